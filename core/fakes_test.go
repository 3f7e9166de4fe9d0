package orchestration

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
)

var errFakeClosed = errors.New("fake: closed")

type fakeConnector struct {
	session *fakeSession
	err     error

	mu     sync.Mutex
	config live.Config
}

func (c *fakeConnector) Connect(_ context.Context, config live.Config) (live.Session, error) {
	c.mu.Lock()
	c.config = config
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

// fakeTurn is one scripted read stream. After yielding its events the turn
// closes yielded and stays open until hold is closed.
type fakeTurn struct {
	events  []events.Inbound
	err     error
	hold    chan struct{}
	yielded chan struct{}
}

type fakeSession struct {
	turns    chan *fakeTurn
	sendGate chan struct{}
	sendErr  error
	toolErr  error

	turnsServed atomic.Int32

	mu              sync.Mutex
	sent            []events.Outbound
	toolResponses   [][]events.FunctionCallResult
	writesAfterStop int
	closed          bool
	closedCh        chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{turns: make(chan *fakeTurn, 8), closedCh: make(chan struct{})}
}

func (s *fakeSession) script(turn *fakeTurn) *fakeTurn {
	if turn.yielded == nil {
		turn.yielded = make(chan struct{})
	}
	s.turns <- turn
	return turn
}

func (s *fakeSession) Send(ctx context.Context, message events.Outbound) error {
	if s.sendGate != nil {
		select {
		case <-s.sendGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.writesAfterStop++
	}
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, message)
	return nil
}

func (s *fakeSession) SendToolResponse(_ context.Context, results []events.FunctionCallResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.writesAfterStop++
	}
	if s.toolErr != nil {
		return s.toolErr
	}
	s.toolResponses = append(s.toolResponses, results)
	return nil
}

func (s *fakeSession) Turn(ctx context.Context) iter.Seq2[events.Inbound, error] {
	return func(yield func(events.Inbound, error) bool) {
		s.turnsServed.Add(1)

		var turn *fakeTurn
		select {
		case turn = <-s.turns:
		case <-ctx.Done():
			return
		case <-s.closedCh:
			yield(nil, errFakeClosed)
			return
		}

		for _, event := range turn.events {
			if !yield(event, nil) {
				return
			}
		}
		close(turn.yielded)
		if turn.err != nil {
			yield(nil, turn.err)
			return
		}
		if turn.hold != nil {
			select {
			case <-turn.hold:
			case <-ctx.Done():
			case <-s.closedCh:
				yield(nil, errFakeClosed)
			}
		}
	}
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closedCh)
	}
	return nil
}

func (s *fakeSession) Sent() []events.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Outbound(nil), s.sent...)
}

func (s *fakeSession) ToolResponses() [][]events.FunctionCallResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]events.FunctionCallResult(nil), s.toolResponses...)
}

func (s *fakeSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) WritesAfterStop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writesAfterStop
}

// fakeInput returns its frames in order, then fails with err if set or
// blocks until cancelled or closed.
type fakeInput struct {
	frames [][]byte
	err    error

	reads    atomic.Int32
	closed   atomic.Bool
	closedCh chan struct{}
	once     sync.Once
}

func newFakeInput(frames ...[]byte) *fakeInput {
	return &fakeInput{frames: frames, closedCh: make(chan struct{})}
}

func (i *fakeInput) Read(ctx context.Context) ([]byte, error) {
	if i.closed.Load() {
		return nil, errFakeClosed
	}
	n := int(i.reads.Add(1)) - 1
	if n < len(i.frames) {
		return i.frames[n], nil
	}
	i.reads.Add(-1)
	if i.err != nil {
		return nil, i.err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-i.closedCh:
		return nil, errFakeClosed
	}
}

func (i *fakeInput) Close() error {
	i.once.Do(func() {
		i.closed.Store(true)
		close(i.closedCh)
	})
	return nil
}

// fakeOutput records writes. With a gate set, the first write blocks until
// the gate is closed and started is signalled when it begins.
type fakeOutput struct {
	gate    chan struct{}
	started chan struct{}
	err     error

	mu      sync.Mutex
	writes  [][]byte
	cleared int
	closed  bool
	first   sync.Once
}

func (o *fakeOutput) Write(ctx context.Context, pcm []byte) error {
	if o.gate != nil {
		waited := false
		o.first.Do(func() {
			waited = true
			if o.started != nil {
				close(o.started)
			}
		})
		if waited {
			select {
			case <-o.gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.writes = append(o.writes, pcm)
	return nil
}

func (o *fakeOutput) ClearBuffer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared++
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *fakeOutput) Writes() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][]byte(nil), o.writes...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func waitFor(t *testing.T, what string, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitClosed(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

type runResult struct {
	done chan struct{}
	err  error
}

func startRun(ctx context.Context, o *Orchestrator) *runResult {
	result := &runResult{done: make(chan struct{})}
	go func() {
		defer close(result.done)
		result.err = o.Run(ctx)
	}()
	return result
}

func (r *runResult) wait(t *testing.T) error {
	t.Helper()
	waitClosed(t, "run to return", r.done)
	return r.err
}

func (o *fakeOutput) Cleared() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cleared
}

type syncWriter struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
