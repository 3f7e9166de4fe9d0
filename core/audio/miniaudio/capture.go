package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-live/core/audio"
)

const captureQueueFrames = 16

// Capture bridges the callback-driven capture device to blocking reads of
// fixed-size frames. When the reader falls behind, whole frames are dropped
// on the device thread instead of blocking it.
type Capture struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	frameBytes int
	pending    []byte
	frames     chan []byte
	dropped    atomic.Int64

	encodingInfo audio.EncodingInfo

	mu        sync.Mutex
	closeOnce sync.Once
}

func NewCapture(frameSize int) (*Capture, error) {
	if frameSize <= 0 {
		frameSize = audio.DefaultFrameSize
	}

	audioCtx, err := initContext()
	if err != nil {
		return nil, err
	}

	encodingInfo := audio.CaptureEncodingInfo()
	c := &Capture{
		audioContext: audioCtx,
		frameBytes:   encodingInfo.FrameBytes(frameSize),
		frames:       make(chan []byte, captureQueueFrames),
		encodingInfo: encodingInfo,
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(encodingInfo.SampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	c.device, err = malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.onAudio(pInput[:n])
		},
	})
	if err != nil {
		_ = freeContext(audioCtx)
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := c.device.Start(); err != nil {
		c.device.Uninit()
		_ = freeContext(audioCtx)
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return c, nil
}

func (c *Capture) onAudio(pcm []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = append(c.pending, pcm...)
	for len(c.pending) >= c.frameBytes {
		frame := make([]byte, c.frameBytes)
		copy(frame, c.pending[:c.frameBytes])
		c.pending = c.pending[c.frameBytes:]

		select {
		case c.frames <- frame:
		default:
			c.dropped.Add(1)
		}
	}
	c.pending = append(c.pending[:0:0], c.pending...)
}

func (c *Capture) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case frame, ok := <-c.frames:
		if !ok {
			return nil, ErrClosed
		}
		return frame, nil
	}
}

// Dropped is the number of frames lost because the reader fell behind.
func (c *Capture) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Capture) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *Capture) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.device != nil {
			c.device.Uninit()
			c.device = nil
		}
		c.mu.Lock()
		close(c.frames)
		c.mu.Unlock()
		err = freeContext(c.audioContext)
	})
	return err
}
