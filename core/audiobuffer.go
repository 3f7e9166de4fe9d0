package orchestration

import (
	"context"
	"sync"
)

// audioBuffer queues assistant audio for playback. Adding never blocks so the
// receiver is never stalled by the device; Clear drops everything not yet
// handed to playback.
type audioBuffer struct {
	mu     sync.Mutex
	frames [][]byte

	updateSignal chan struct{}
}

func newAudioBuffer() *audioBuffer {
	return &audioBuffer{updateSignal: make(chan struct{}, 1)}
}

func (b *audioBuffer) AddAudio(frame []byte) {
	b.mu.Lock()
	b.frames = append(b.frames, frame)
	b.mu.Unlock()
	b.signalUpdate()
}

// Next blocks until a frame is available or ctx is done.
func (b *audioBuffer) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if frame, ok := b.consumeNextFrame(); ok {
			return frame, nil
		}

		select {
		case <-b.updateSignal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (b *audioBuffer) consumeNextFrame() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return nil, false
	}
	frame := b.frames[0]
	b.frames[0] = nil
	b.frames = b.frames[1:]
	return frame, true
}

// Clear discards every queued frame and returns how many were dropped.
func (b *audioBuffer) Clear() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	discarded := len(b.frames)
	b.frames = nil
	return discarded
}

func (b *audioBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func (b *audioBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
