package events

import (
	"strings"
	"time"
)

// Kind names an observability event as "<namespace>.<what happened>".
type Kind string

// Namespace is the part of the kind before the first dot.
func (k Kind) Namespace() string {
	namespace, _, _ := strings.Cut(string(k), ".")
	return namespace
}

// Event is anything the orchestrator reports to its event emitter.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and creation time of an event. Embedding it is what
// makes a struct an Event; neither field is serialized with the payload.
type Base struct {
	kind Kind
	at   time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, at: time.Now().UTC()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.at }
