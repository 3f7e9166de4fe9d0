package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-live/core/audio"
)

// Playback writes PCM to the default output device with blocking stream
// writes. Bytes that do not fill a whole device buffer are kept until the
// next Write.
type Playback struct {
	mu            sync.Mutex
	stream        *portaudio.Stream
	out           []int16
	leftoverAudio []byte

	encodingInfo audio.EncodingInfo
}

func NewPlayback(frameSize int) (*Playback, error) {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	encodingInfo := audio.PlaybackEncodingInfo()
	out := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encodingInfo.SampleRate), frameSize, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open playback stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start playback stream: %w", err)
	}

	return &Playback{stream: stream, out: out, encodingInfo: encodingInfo}, nil
}

func (p *Playback) Write(ctx context.Context, pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return ErrClosed
	}

	bufferSize := len(p.out) * 2
	pending := append(p.leftoverAudio, pcm...)
	for len(pending) >= bufferSize {
		if err := ctx.Err(); err != nil {
			p.leftoverAudio = nil
			return err
		}

		audio.BytesToInt16(p.out, pending[:bufferSize])
		if err := p.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			p.leftoverAudio = nil
			return fmt.Errorf("failed to write to playback stream: %w", err)
		}
		pending = pending[bufferSize:]
	}

	p.leftoverAudio = append(p.leftoverAudio[:0:0], pending...)
	return nil
}

// ClearBuffer drops audio held back for an incomplete device buffer.
func (p *Playback) ClearBuffer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leftoverAudio = nil
}

func (p *Playback) EncodingInfo() audio.EncodingInfo {
	return p.encodingInfo
}

func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}

	var errs error
	if err := p.stream.Stop(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to stop playback stream: %w", err))
	}
	if err := p.stream.Close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to close playback stream: %w", err))
	}
	p.stream = nil
	if err := portaudio.Terminate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to terminate portaudio: %w", err))
	}
	return errs
}
