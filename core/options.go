package orchestration

import (
	"io"
	"log/slog"
	"time"

	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
)

type OrchestratorOption func(*Orchestrator)

func WithConnector(connector live.Connector) OrchestratorOption {
	return func(o *Orchestrator) { o.connector = connector }
}

// WithSessionConfig sets the parameters the session is opened with. Tool
// declarations are filled in from the tools given to WithTools.
func WithSessionConfig(config live.Config) OrchestratorOption {
	return func(o *Orchestrator) { o.sessionConfig = config }
}

// WithAudioInput enables the capture task. The orchestrator closes the device
// when the session shuts down.
func WithAudioInput(input AudioInput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioInput = input }
}

// WithAudioOutput enables playback. Without an output, assistant audio is
// dropped.
func WithAudioOutput(output AudioOutput) OrchestratorOption {
	return func(o *Orchestrator) { o.audioOutput = output }
}

// WithTextInput enables the text input task reading lines from input. When
// prompt is not nil the input prompt is written to it before each line.
func WithTextInput(input io.Reader, prompt io.Writer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.textInput = input
		o.promptOutput = prompt
	}
}

func WithInputPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) { o.inputPrompt = prompt }
}

func WithTools(tools ...live.Tool) OrchestratorOption {
	return func(o *Orchestrator) {
		for _, tool := range tools {
			o.tools[tool.Declaration().Name] = tool
		}
	}
}

// WithEventEmitter receives state changes, transcripts and tool call events.
// The emitter is called synchronously from the session tasks.
func WithEventEmitter(emit func(events.Event)) OrchestratorOption {
	return func(o *Orchestrator) {
		if emit == nil {
			emit = noopEventEmitter
		}
		o.emit = emit
	}
}

func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOutboundCapacity bounds the number of messages waiting for the sender.
func WithOutboundCapacity(capacity int) OrchestratorOption {
	return func(o *Orchestrator) { o.outboundCapacity = capacity }
}

func WithQuitSentinel(sentinel string) OrchestratorOption {
	return func(o *Orchestrator) {
		if sentinel != "" {
			o.quitSentinel = sentinel
		}
	}
}

// WithToolTimeout bounds every single function call.
func WithToolTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.toolTimeout = timeout
		}
	}
}
