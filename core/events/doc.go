// Package events defines the typed session event contract.
//
// Two closed variant sets describe the data flowing over the session:
//
//   - Outbound: AudioChunk, TextTurn. Written by the sender task.
//   - Inbound: FunctionCallBatch, AudioPayload, TranscriptText, TurnEnd. Read
//     by the inbound dispatcher.
//
// Both are matched through Dispatch and a handler interface with one method
// per variant, so an unhandled variant is a compile error rather than a
// silently ignored string kind.
//
// Observability events implement Event and are grouped by namespace:
//
//   - session_state.changed: Connecting, Active, ShuttingDown, Closed.
//   - turn_state.changed: idle, user-speaking, assistant-speaking, tool-pending.
//   - transcript.received: input, output or model text.
//   - assistant_playback.flushed: queued audio discarded at a turn boundary.
//   - tool_call.started, tool_call.completed, tool_call.failed.
//
// Router publishes observability events as JSON records over an in-process
// watermill pub/sub so several sinks can consume them.
package events
