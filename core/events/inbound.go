package events

// Inbound is an event read from the session transport. The set of variants
// is closed: only this package can add one.
type Inbound interface {
	// Dispatch calls the handler method matching the variant.
	Dispatch(h InboundHandler) error
	inbound()
}

// InboundHandler must handle every inbound variant, so a new variant fails to
// compile until each consumer routes it.
type InboundHandler interface {
	HandleFunctionCallBatch(FunctionCallBatch) error
	HandleAudioPayload(AudioPayload) error
	HandleTranscriptText(TranscriptText) error
	HandleTurnEnd(TurnEnd) error
}

// FunctionCallBatch holds every function call the service requested in one
// message. It is answered by exactly one response write.
type FunctionCallBatch struct {
	Calls []FunctionCallRequest
}

func NewFunctionCallBatch(calls ...FunctionCallRequest) FunctionCallBatch {
	return FunctionCallBatch{Calls: calls}
}

func (b FunctionCallBatch) Dispatch(h InboundHandler) error { return h.HandleFunctionCallBatch(b) }
func (FunctionCallBatch) inbound()                          {}

// AudioPayload is synthesized assistant audio awaiting playback.
type AudioPayload struct {
	Data []byte
}

func NewAudioPayload(data []byte) AudioPayload { return AudioPayload{Data: data} }

func (p AudioPayload) Dispatch(h InboundHandler) error { return h.HandleAudioPayload(p) }
func (AudioPayload) inbound()                          {}

type TranscriptSource string

const (
	// TranscriptSourceInput is the service's transcription of operator speech.
	TranscriptSourceInput TranscriptSource = "input"
	// TranscriptSourceOutput is the transcription of assistant speech.
	TranscriptSourceOutput TranscriptSource = "output"
	// TranscriptSourceModel is a text part of the model turn.
	TranscriptSourceModel TranscriptSource = "model"
)

type TranscriptText struct {
	Source TranscriptSource
	Text   string
}

func NewTranscriptText(source TranscriptSource, text string) TranscriptText {
	return TranscriptText{Source: source, Text: text}
}

func (t TranscriptText) Dispatch(h InboundHandler) error { return h.HandleTranscriptText(t) }
func (TranscriptText) inbound()                          {}

// TurnEnd marks the end of a read stream, either because the turn completed
// or because the service interrupted it.
type TurnEnd struct{}

func (e TurnEnd) Dispatch(h InboundHandler) error { return h.HandleTurnEnd(e) }
func (TurnEnd) inbound()                          {}
