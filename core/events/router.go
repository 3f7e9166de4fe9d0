package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Record is the wire form of an Event on the router.
type Record struct {
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into v.
func (r Record) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

// Router carries session events from the orchestrator to any number of
// handlers over an in-process watermill pub/sub.
type Router struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
}

type RouterOption func(*Router)

func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = NewWatermillLogger(logger)
	}
}

func NewRouter(options ...RouterOption) (*Router, error) {
	ret := &Router{logger: watermill.NopLogger{}}
	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	ret.router = router

	return ret, nil
}

// AddHandler registers fn for every record published on topic.
func (r *Router) AddHandler(name, topic string, fn func(Record) error) {
	r.router.AddNoPublisherHandler(name, topic, r.Subscriber, func(msg *message.Message) error {
		var record Record
		if err := json.Unmarshal(msg.Payload, &record); err != nil {
			r.logger.Error("dropping undecodable event", err, watermill.LogFields{"message_id": msg.UUID})
			return nil
		}
		return fn(record)
	})
}

// Run blocks until ctx is cancelled or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Emitter returns a function publishing events on topic. Publish failures are
// logged, never returned: observability must not stop the session.
func (r *Router) Emitter(topic string) func(Event) {
	return func(event Event) {
		payload, err := Encode(event)
		if err != nil {
			r.logger.Error("failed to encode event", err, watermill.LogFields{"kind": string(event.Kind())})
			return
		}
		if err := r.Publisher.Publish(topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			r.logger.Error("failed to publish event", err, watermill.LogFields{"kind": string(event.Kind())})
		}
	}
}

func (r *Router) Close() error {
	var closeErr error
	if err := r.Publisher.Close(); err != nil {
		closeErr = fmt.Errorf("failed to close publisher: %w", err)
	}
	if err := r.router.Close(); err != nil && closeErr == nil {
		closeErr = fmt.Errorf("failed to close router: %w", err)
	}
	return closeErr
}

// Encode serializes an event into a Record payload.
func Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Record{Kind: event.Kind(), Timestamp: event.Timestamp(), Data: data})
}
