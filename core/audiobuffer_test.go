package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAudioBufferNextReturnsFramesInOrder(t *testing.T) {
	b := newAudioBuffer()
	b.AddAudio([]byte("a"))
	b.AddAudio([]byte("b"))

	for _, want := range []string{"a", "b"} {
		frame, err := b.Next(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(frame) != want {
			t.Fatalf("expected %q, got %q", want, frame)
		}
	}
}

func TestAudioBufferNextWaitsForAudio(t *testing.T) {
	b := newAudioBuffer()
	go func() {
		time.Sleep(10 * time.Millisecond)
		b.AddAudio([]byte("late"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	frame, err := b.Next(ctx)
	if err != nil || string(frame) != "late" {
		t.Fatalf("expected late frame, got %q, %v", frame, err)
	}
}

func TestAudioBufferNextReturnsOnCancellation(t *testing.T) {
	b := newAudioBuffer()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := b.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestAudioBufferClearDropsQueuedFramesOnly(t *testing.T) {
	b := newAudioBuffer()
	b.AddAudio([]byte("a"))
	b.AddAudio([]byte("b"))
	b.AddAudio([]byte("c"))

	if discarded := b.Clear(); discarded != 3 {
		t.Fatalf("expected 3 discarded frames, got %d", discarded)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", b.Len())
	}

	b.AddAudio([]byte("next"))
	frame, err := b.Next(context.Background())
	if err != nil || string(frame) != "next" {
		t.Fatalf("expected frame added after clear, got %q, %v", frame, err)
	}
}
