package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-live/core/audio"
)

// Playback feeds the callback-driven playback device from a byte buffer.
// Write blocks while more than highWaterBytes are waiting to be played, so a
// single writer is paced by the device.
type Playback struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	leftoverAudio  []byte
	highWaterBytes int
	drained        chan struct{}

	encodingInfo audio.EncodingInfo

	audioMu   sync.Mutex
	closeOnce sync.Once
}

func NewPlayback() (*Playback, error) {
	audioCtx, err := initContext()
	if err != nil {
		return nil, err
	}

	encodingInfo := audio.PlaybackEncodingInfo()
	p := &Playback{
		audioContext: audioCtx,
		// ~200ms of queued audio
		highWaterBytes: encodingInfo.FrameBytes(encodingInfo.SampleRate / 5),
		drained:        make(chan struct{}, 1),
		encodingInfo:   encodingInfo,
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels
	sampleRate := uint32(encodingInfo.SampleRate)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	if p.device, err = malgo.InitDevice(
		audioCtx.Context,
		config,
		malgo.DeviceCallbacks{Data: p.processAudio(bytesPerFrame)},
	); err != nil {
		_ = freeContext(audioCtx)
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := p.device.Start(); err != nil {
		p.device.Uninit()
		_ = freeContext(audioCtx)
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return p, nil
}

func (p *Playback) Write(ctx context.Context, pcm []byte) error {
	for {
		p.audioMu.Lock()
		if p.device == nil {
			p.audioMu.Unlock()
			return ErrClosed
		}
		if len(p.leftoverAudio) < p.highWaterBytes {
			p.leftoverAudio = append(p.leftoverAudio, pcm...)
			p.audioMu.Unlock()
			return nil
		}
		p.audioMu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.drained:
		}
	}
}

func (p *Playback) ClearBuffer() {
	p.audioMu.Lock()
	defer p.audioMu.Unlock()
	p.leftoverAudio = make([]byte, 0)
}

func (p *Playback) EncodingInfo() audio.EncodingInfo {
	return p.encodingInfo
}

func (p *Playback) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.audioMu.Lock()
		device := p.device
		p.device = nil
		p.leftoverAudio = nil
		p.audioMu.Unlock()

		if device != nil {
			device.Uninit()
		}
		err = freeContext(p.audioContext)
	})
	return err
}

func (p *Playback) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		out := pOutput
		if need := int(frameCount) * bytesPerFrame; len(out) > need {
			out = out[:need]
		}

		p.audioMu.Lock()
		n := copy(out, p.leftoverAudio)
		p.leftoverAudio = p.leftoverAudio[n:]
		p.audioMu.Unlock()

		select {
		case p.drained <- struct{}{}:
		default:
		}
	}
}
