package orchestration

import (
	"context"

	"github.com/koscakluka/ema-live/core/audio"
	"github.com/koscakluka/ema-live/core/events"
)

// AudioInput is a capture device delivering fixed-size PCM frames. Read
// blocks until a frame is available; Close unblocks a pending Read.
type AudioInput interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

type encodingInfoProvider interface {
	EncodingInfo() audio.EncodingInfo
}

func inputEncodingInfo(input AudioInput) audio.EncodingInfo {
	if provider, ok := input.(encodingInfoProvider); ok {
		if info := provider.EncodingInfo(); !info.IsZero() {
			return info
		}
	}
	return audio.CaptureEncodingInfo()
}

// runCapture reads frames and queues them for the sender. A full queue blocks
// the loop, so capture never runs ahead of the transport.
func (o *Orchestrator) runCapture(ctx context.Context, input AudioInput, queue *outboundQueue) error {
	mimeType := inputEncodingInfo(input).MIMEType()
	for {
		frame, err := input.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &DeviceError{Device: "capture", Err: err}
		}

		if err := queue.Put(ctx, events.NewAudioChunk(frame, mimeType)); err != nil {
			return nil
		}
	}
}
