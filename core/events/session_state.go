package events

// KindSessionStateChanged identifies a session lifecycle transition.
const KindSessionStateChanged Kind = "session_state.changed"

// SessionStateChanged marks a lifecycle transition. Err is set when the
// session closes because of a failure.
type SessionStateChanged struct {
	Base
	From  string
	To    string
	Error string `json:",omitempty"`
}

// NewSessionStateChanged creates a session state changed event.
func NewSessionStateChanged(from, to string, err error) SessionStateChanged {
	event := SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
	if err != nil {
		event.Error = err.Error()
	}
	return event
}
