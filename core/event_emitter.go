package orchestration

import "github.com/koscakluka/ema-live/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}
