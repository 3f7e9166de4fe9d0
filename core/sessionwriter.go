package orchestration

import (
	"context"
	"sync"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
)

// sessionWriter is the single write path onto the session. The sender and the
// function call handler share it, so an outbound message and a tool response
// batch are never interleaved.
type sessionWriter struct {
	mu      sync.Mutex
	session live.Session
}

func newSessionWriter(session live.Session) *sessionWriter {
	return &sessionWriter{session: session}
}

func (w *sessionWriter) Send(ctx context.Context, message events.Outbound) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return w.session.Send(ctx, message)
}

func (w *sessionWriter) SendToolResponse(ctx context.Context, results []events.FunctionCallResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return w.session.SendToolResponse(ctx, results)
}
