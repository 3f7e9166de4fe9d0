package orchestration

import (
	"context"

	"github.com/koscakluka/ema-live/core/events"
)

const defaultOutboundCapacity = 5

// outboundQueue is the bounded FIFO between the capture and text input tasks
// and the sender. Put blocks while the queue is full, which paces capture to
// the transport.
type outboundQueue struct {
	messages chan events.Outbound
}

func newOutboundQueue(capacity int) *outboundQueue {
	if capacity < 1 {
		capacity = defaultOutboundCapacity
	}
	return &outboundQueue{messages: make(chan events.Outbound, capacity)}
}

func (q *outboundQueue) Put(ctx context.Context, message events.Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.messages <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *outboundQueue) Get(ctx context.Context) (events.Outbound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case message := <-q.messages:
		return message, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *outboundQueue) Len() int { return len(q.messages) }
func (q *outboundQueue) Cap() int { return cap(q.messages) }
