package orchestration

import (
	"sync/atomic"

	"github.com/koscakluka/ema-live/core/events"
)

type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionActive
	SessionShuttingDown
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionShuttingDown:
		return "shutting_down"
	case SessionClosed:
		return "closed"
	}
	return "unknown"
}

type TurnState int32

const (
	TurnIdle TurnState = iota
	TurnUserSpeaking
	TurnAssistantSpeaking
	TurnToolPending
)

func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnUserSpeaking:
		return "user_speaking"
	case TurnAssistantSpeaking:
		return "assistant_speaking"
	case TurnToolPending:
		return "tool_pending"
	}
	return "unknown"
}

// stateTracker holds the session lifecycle and the turn state. Session
// transitions only move forward; every change is emitted.
type stateTracker struct {
	session atomic.Int32
	turn    atomic.Int32

	emit eventEmitter
}

func (s *stateTracker) Session() SessionState { return SessionState(s.session.Load()) }
func (s *stateTracker) Turn() TurnState       { return TurnState(s.turn.Load()) }

func (s *stateTracker) advanceSession(to SessionState, err error) bool {
	for {
		from := s.session.Load()
		if SessionState(from) >= to {
			return false
		}
		if s.session.CompareAndSwap(from, int32(to)) {
			s.emit(events.NewSessionStateChanged(SessionState(from).String(), to.String(), err))
			return true
		}
	}
}

func (s *stateTracker) setTurn(to TurnState) {
	if from := TurnState(s.turn.Swap(int32(to))); from != to {
		s.emit(events.NewTurnStateChanged(from.String(), to.String()))
	}
}
