package events

import "time"

const (
	KindToolCallStarted   Kind = "tool_call.started"
	KindToolCallCompleted Kind = "tool_call.completed"
	KindToolCallFailed    Kind = "tool_call.failed"
)

// ToolCallStarted is emitted before a function call runs.
type ToolCallStarted struct {
	Base
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func NewToolCallStarted(id, name string, arguments map[string]any) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), ID: id, Name: name, Arguments: arguments}
}

// ToolCallCompleted carries the result mapping sent back for the call.
type ToolCallCompleted struct {
	Base
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
	Elapsed  time.Duration  `json:"elapsed"`
}

func NewToolCallCompleted(id, name string, response map[string]any, elapsed time.Duration) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted), ID: id, Name: name, Response: response, Elapsed: elapsed}
}

// ToolCallFailed carries the message sent back as the call's error result.
type ToolCallFailed struct {
	Base
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Error   string        `json:"error"`
	Elapsed time.Duration `json:"elapsed"`
}

func NewToolCallFailed(id, name, err string, elapsed time.Duration) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed), ID: id, Name: name, Error: err, Elapsed: elapsed}
}
