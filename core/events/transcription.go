package events

// KindTranscriptReceived identifies transcript text read from the session.
const KindTranscriptReceived Kind = "transcript.received"

type TranscriptReceived struct {
	Base
	Source TranscriptSource
	Text   string
}

func NewTranscriptReceived(source TranscriptSource, text string) TranscriptReceived {
	return TranscriptReceived{Base: NewBase(KindTranscriptReceived), Source: source, Text: text}
}
