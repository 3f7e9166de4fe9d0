package orchestration

import (
	"context"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// runReceiver reads the session one turn at a time. When a turn's stream
// ends it flushes pending playback and immediately opens the next one.
func (o *Orchestrator) runReceiver(ctx context.Context, session live.Session, writer *sessionWriter, buffer *audioBuffer) error {
	dispatcher := &inboundDispatcher{ctx: ctx, orchestrator: o, writer: writer, buffer: buffer}
	for {
		if ctx.Err() != nil {
			return nil
		}

		for event, err := range session.Turn(ctx) {
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return &TransportError{Op: "receive", Err: err}
			}
			if err := event.Dispatch(dispatcher); err != nil {
				return err
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		if err := (events.TurnEnd{}).Dispatch(dispatcher); err != nil {
			return err
		}
	}
}

// inboundDispatcher routes each inbound event. A nil buffer means there is
// no playback device and assistant audio is dropped.
type inboundDispatcher struct {
	ctx          context.Context
	orchestrator *Orchestrator
	writer       *sessionWriter
	buffer       *audioBuffer
}

func (d *inboundDispatcher) HandleFunctionCallBatch(batch events.FunctionCallBatch) error {
	return d.orchestrator.handleFunctionCalls(d.ctx, batch, d.writer)
}

func (d *inboundDispatcher) HandleAudioPayload(payload events.AudioPayload) error {
	d.orchestrator.states.setTurn(TurnAssistantSpeaking)
	if d.buffer != nil && len(payload.Data) > 0 {
		d.buffer.AddAudio(payload.Data)
	}
	return nil
}

func (d *inboundDispatcher) HandleTranscriptText(transcript events.TranscriptText) error {
	if transcript.Text == "" {
		return nil
	}
	if transcript.Source == events.TranscriptSourceInput {
		d.orchestrator.states.setTurn(TurnUserSpeaking)
	}
	d.orchestrator.logger.Debug("transcript", "source", string(transcript.Source), "text", transcript.Text)
	d.orchestrator.emit(events.NewTranscriptReceived(transcript.Source, transcript.Text))
	return nil
}

// HandleTurnEnd drops all assistant audio not yet handed to the device. A
// completed turn and an interrupted one are treated the same.
func (d *inboundDispatcher) HandleTurnEnd(events.TurnEnd) error {
	discarded := 0
	if d.buffer != nil {
		discarded = d.buffer.Clear()
	}
	if clearer, ok := d.orchestrator.audioOutput.(bufferClearer); ok {
		clearer.ClearBuffer()
	}
	if discarded > 0 {
		trace.SpanFromContext(d.ctx).AddEvent("playback flushed", trace.WithAttributes(attribute.Int("frames", discarded)))
		d.orchestrator.logger.Debug("flushed pending playback", "frames", discarded)
		d.orchestrator.emit(events.NewAssistantPlaybackFlushed(discarded))
	}
	d.orchestrator.states.setTurn(TurnIdle)
	return nil
}
