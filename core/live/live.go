// Package live describes the boundary to a bidirectional conversational
// session: how it is opened, what flows over it and which tools it may call.
package live

import (
	"context"
	"iter"

	"github.com/koscakluka/ema-live/core/events"
)

// ModalityAudio asks the service to answer with synthesized speech.
const ModalityAudio = "AUDIO"

type Connector interface {
	Connect(ctx context.Context, config Config) (Session, error)
}

// Session is one open duplex stream. Implementations need not make Send and
// SendToolResponse safe for concurrent use; callers serialize writes.
type Session interface {
	Send(ctx context.Context, message events.Outbound) error
	SendToolResponse(ctx context.Context, results []events.FunctionCallResult) error
	// Turn streams the events of one conversational turn. The sequence ends
	// when the service completes or interrupts the turn; a yielded error is
	// terminal for the session.
	Turn(ctx context.Context) iter.Seq2[events.Inbound, error]
	Close() error
}

type Config struct {
	Model             string
	ResponseModality  string
	Voice             string
	SystemInstruction string
	Compression       Compression
	// InputMIMEType tags outbound audio chunks that carry no type of their own.
	InputMIMEType string
	Tools         []ToolDeclaration
}

// Compression keeps the context window bounded: once TriggerTokens is reached
// the service slides the window down to TargetTokens.
type Compression struct {
	TriggerTokens int64
	TargetTokens  int64
}

func (c Compression) Enabled() bool {
	return c.TriggerTokens > 0
}
