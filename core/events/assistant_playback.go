package events

// KindAssistantPlaybackFlushed identifies discarding of queued assistant audio
// at a turn boundary.
const KindAssistantPlaybackFlushed Kind = "assistant_playback.flushed"

// AssistantPlaybackFlushed reports how many queued frames were dropped
// without being played.
type AssistantPlaybackFlushed struct {
	Base
	Discarded int
}

// NewAssistantPlaybackFlushed creates an assistant playback flushed event.
func NewAssistantPlaybackFlushed(discarded int) AssistantPlaybackFlushed {
	return AssistantPlaybackFlushed{Base: NewBase(KindAssistantPlaybackFlushed), Discarded: discarded}
}
