package orchestration

import (
	"context"
)

// AudioOutput is a playback device. Only the playback task writes to it.
type AudioOutput interface {
	Write(ctx context.Context, pcm []byte) error
	Close() error
}

// bufferClearer is implemented by outputs holding audio of their own that
// should be dropped together with the queued frames at a turn boundary.
type bufferClearer interface {
	ClearBuffer()
}

func (o *Orchestrator) runPlayback(ctx context.Context, output AudioOutput, buffer *audioBuffer) error {
	for {
		frame, err := buffer.Next(ctx)
		if err != nil {
			return nil
		}

		if err := output.Write(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &DeviceError{Device: "playback", Err: err}
		}
	}
}
