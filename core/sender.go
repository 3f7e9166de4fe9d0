package orchestration

import (
	"context"

	"github.com/koscakluka/ema-live/core/events"
)

// runSender writes outbound messages to the session in the order they were
// queued, one at a time.
func (o *Orchestrator) runSender(ctx context.Context, queue *outboundQueue, writer *sessionWriter) error {
	sender := &outboundSender{ctx: ctx, writer: writer, orchestrator: o}
	for {
		message, err := queue.Get(ctx)
		if err != nil {
			return nil
		}

		if err := message.Dispatch(sender); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &TransportError{Op: "send", Err: err}
		}
	}
}

type outboundSender struct {
	ctx          context.Context
	writer       *sessionWriter
	orchestrator *Orchestrator
}

func (s *outboundSender) HandleAudioChunk(chunk events.AudioChunk) error {
	return s.writer.Send(s.ctx, chunk)
}

func (s *outboundSender) HandleTextTurn(turn events.TextTurn) error {
	if err := s.writer.Send(s.ctx, turn); err != nil {
		return err
	}
	s.orchestrator.logger.Debug("sent text turn", "length", len(turn.Content), "end_of_turn", turn.EndOfTurn)
	s.orchestrator.states.setTurn(TurnUserSpeaking)
	return nil
}
