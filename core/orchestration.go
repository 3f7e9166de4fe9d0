package orchestration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var errAlreadyRun = errors.New("orchestrator already ran")

// Orchestrator runs one session: capture, text input, sender, receiver and
// playback tasks share a single cancellation and the first fatal error ends
// them all.
type Orchestrator struct {
	connector     live.Connector
	sessionConfig live.Config

	audioInput   AudioInput
	audioOutput  AudioOutput
	textInput    io.Reader
	promptOutput io.Writer
	inputPrompt  string

	tools map[string]live.Tool

	emit   eventEmitter
	logger *slog.Logger
	states stateTracker

	outboundCapacity int
	quitSentinel     string
	toolTimeout      time.Duration

	started atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tools:            map[string]live.Tool{},
		emit:             noopEventEmitter,
		logger:           defaultLogger,
		outboundCapacity: defaultOutboundCapacity,
		quitSentinel:     defaultQuitSentinel,
		inputPrompt:      defaultInputPrompt,
		toolTimeout:      defaultToolTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.states.emit = func(event events.Event) { o.emit(event) }

	return o
}

func (o *Orchestrator) SessionState() SessionState { return o.states.Session() }
func (o *Orchestrator) TurnState() TurnState       { return o.states.Turn() }

// Run connects and blocks until the session is closed. An operator quit or
// cancellation of ctx is a clean shutdown and returns nil; a failed connect,
// transport or device error is returned.
//
// Run may be called once per orchestrator.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	if !o.started.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	ctx, span := tracer.Start(ctx, "run session")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if o.connector == nil {
		err = &TransportError{Op: "connect", Err: errors.New("no connector configured")}
		o.closeDevices()
		o.states.advanceSession(SessionClosed, err)
		return err
	}

	session, err := o.connector.Connect(ctx, o.connectConfig())
	if err != nil {
		err = &TransportError{Op: "connect", Err: err}
		o.closeDevices()
		o.states.advanceSession(SessionClosed, err)
		return err
	}
	o.states.advanceSession(SessionActive, nil)
	o.logger.Info("session active", "model", o.sessionConfig.Model, "tools", o.toolNames())

	err = o.runTasks(ctx, session)
	switch {
	case errors.Is(err, ErrQuit):
		o.logger.Info("session ended by operator")
		err = nil
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		err = nil
	}

	o.states.advanceSession(SessionClosed, err)
	return err
}

func (o *Orchestrator) connectConfig() live.Config {
	config := o.sessionConfig
	if config.InputMIMEType == "" {
		config.InputMIMEType = inputEncodingInfo(o.audioInput).MIMEType()
	}

	tools := make([]live.Tool, 0, len(o.tools))
	for _, name := range o.toolNames() {
		tools = append(tools, o.tools[name])
	}
	config.Tools = slices.Concat(config.Tools, live.Declarations(tools...))
	return config
}

func (o *Orchestrator) runTasks(ctx context.Context, session live.Session) error {
	group, groupCtx := errgroup.WithContext(ctx)

	queue := newOutboundQueue(o.outboundCapacity)
	writer := newSessionWriter(session)
	var buffer *audioBuffer
	if o.audioOutput != nil {
		buffer = newAudioBuffer()
	}

	group.Go(func() error { return o.runSender(groupCtx, queue, writer) })
	group.Go(func() error { return o.runReceiver(groupCtx, session, writer, buffer) })
	if o.audioInput != nil {
		group.Go(func() error { return o.runCapture(groupCtx, o.audioInput, queue) })
	}
	if o.textInput != nil {
		group.Go(func() error { return o.runTextInput(groupCtx, queue) })
	}
	if o.audioOutput != nil {
		group.Go(func() error { return o.runPlayback(groupCtx, o.audioOutput, buffer) })
	}

	// Blocking reads only return once their source is closed, so shutting
	// down closes the transport and the capture device as soon as the shared
	// context is cancelled.
	var release sync.Once
	shutdown := func() {
		release.Do(func() {
			o.states.advanceSession(SessionShuttingDown, nil)
			o.closeSession(session)
			o.closeInput()
		})
	}
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		<-groupCtx.Done()
		shutdown()
	}()

	err := group.Wait()
	<-watcherDone
	o.closeOutput()

	if buffer != nil {
		if discarded := buffer.Clear(); discarded > 0 {
			o.logger.Debug("discarded pending playback on close", "frames", discarded)
		}
	}
	if discarded := queue.Len(); discarded > 0 {
		o.logger.Debug("discarded pending outbound messages on close", "messages", discarded)
	}
	return err
}

func (o *Orchestrator) closeSession(session live.Session) {
	if err := session.Close(); err != nil {
		o.logger.Warn("failed to close session", "error", err)
	}
}

func (o *Orchestrator) closeInput() {
	if o.audioInput == nil {
		return
	}
	if err := o.audioInput.Close(); err != nil {
		o.logger.Warn("failed to close audio input", "error", err)
	}
}

func (o *Orchestrator) closeOutput() {
	if o.audioOutput == nil {
		return
	}
	if err := o.audioOutput.Close(); err != nil {
		o.logger.Warn("failed to close audio output", "error", err)
	}
}

func (o *Orchestrator) closeDevices() {
	o.closeInput()
	o.closeOutput()
}

func (o *Orchestrator) toolNames() []string {
	names := make([]string, 0, len(o.tools))
	for name := range o.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
