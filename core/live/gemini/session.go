package gemini

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/koscakluka/ema-live/core/events"
	"google.golang.org/genai"
)

type liveConnection interface {
	SendRealtimeInput(genai.LiveRealtimeInput) error
	SendClientContent(genai.LiveClientContentInput) error
	SendToolResponse(genai.LiveToolResponseInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

// session adapts a genai live session. Receive has no cancellation of its
// own; closing the session is what unblocks a pending read.
type session struct {
	conn          liveConnection
	inputMIMEType string

	closeOnce sync.Once
	closeErr  error
}

func newSession(conn liveConnection, inputMIMEType string) *session {
	return &session{conn: conn, inputMIMEType: inputMIMEType}
}

func (s *session) Send(ctx context.Context, message events.Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return message.Dispatch(&outboundWriter{session: s})
}

func (s *session) SendToolResponse(ctx context.Context, results []events.FunctionCallResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.conn.SendToolResponse(toolResponse(results)); err != nil {
		return fmt.Errorf("failed to send tool response: %w", err)
	}
	return nil
}

func (s *session) Turn(ctx context.Context) iter.Seq2[events.Inbound, error] {
	return func(yield func(events.Inbound, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				return
			}

			message, err := s.conn.Receive()
			if err != nil {
				yield(nil, fmt.Errorf("failed to receive: %w", err))
				return
			}

			inbound, turnDone := inboundEvents(message)
			for _, event := range inbound {
				if !yield(event, nil) {
					return
				}
			}
			if turnDone {
				return
			}
		}
	}
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close live session: %w", err)
		}
	})
	return s.closeErr
}

type outboundWriter struct {
	session *session
}

func (w *outboundWriter) HandleAudioChunk(chunk events.AudioChunk) error {
	mimeType := chunk.MIMEType
	if mimeType == "" {
		mimeType = w.session.inputMIMEType
	}
	if err := w.session.conn.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: chunk.Data, MIMEType: mimeType},
	}); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

func (w *outboundWriter) HandleTextTurn(turn events.TextTurn) error {
	if err := w.session.conn.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(turn.Content, genai.RoleUser)},
		TurnComplete: genai.Ptr(turn.EndOfTurn),
	}); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}
	return nil
}
