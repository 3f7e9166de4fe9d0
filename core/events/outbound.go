package events

// Outbound is a message travelling from the local tasks to the session
// transport. The set of variants is closed: only this package can add one.
type Outbound interface {
	// Dispatch calls the handler method matching the variant.
	Dispatch(h OutboundHandler) error
	outbound()
}

// OutboundHandler must handle every outbound variant.
type OutboundHandler interface {
	HandleAudioChunk(AudioChunk) error
	HandleTextTurn(TextTurn) error
}

// AudioChunk is one captured audio frame with the MIME type describing its
// encoding (e.g. "audio/pcm;rate=16000").
type AudioChunk struct {
	Data     []byte
	MIMEType string
}

func NewAudioChunk(data []byte, mimeType string) AudioChunk {
	return AudioChunk{Data: data, MIMEType: mimeType}
}

func (c AudioChunk) Dispatch(h OutboundHandler) error { return h.HandleAudioChunk(c) }
func (AudioChunk) outbound()                          {}

// TextTurn is operator text. With EndOfTurn set the service starts
// generating as soon as it receives it.
type TextTurn struct {
	Content   string
	EndOfTurn bool
}

func NewTextTurn(content string, endOfTurn bool) TextTurn {
	return TextTurn{Content: content, EndOfTurn: endOfTurn}
}

func (t TextTurn) Dispatch(h OutboundHandler) error { return h.HandleTextTurn(t) }
func (TextTurn) outbound()                          {}
