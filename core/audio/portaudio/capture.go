package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-live/core/audio"
)

var ErrClosed = errors.New("portaudio: device closed")

// Capture reads fixed-size frames from the default input device with
// blocking stream reads.
type Capture struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	in     []int16

	encodingInfo audio.EncodingInfo
}

func NewCapture(frameSize int) (*Capture, error) {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	encodingInfo := audio.CaptureEncodingInfo()
	in := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(encodingInfo.SampleRate), frameSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start capture stream: %w", err)
	}

	return &Capture{stream: stream, in: in, encodingInfo: encodingInfo}, nil
}

// Read blocks for one frame and returns it as little-endian PCM. Input
// overflows lose audio but are not reported as failures.
func (c *Capture) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil, ErrClosed
	}

	if err := c.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("failed to read from capture stream: %w", err)
		}
		logger.Debug("capture input overflowed")
	}

	return audio.Int16ToBytes(nil, c.in), nil
}

func (c *Capture) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil
	}

	var errs error
	if err := c.stream.Stop(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to stop capture stream: %w", err))
	}
	if err := c.stream.Close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to close capture stream: %w", err))
	}
	c.stream = nil
	if err := portaudio.Terminate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to terminate portaudio: %w", err))
	}
	return errs
}
