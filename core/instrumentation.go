package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-live/core"

var (
	tracer        = otel.Tracer(scopeName)
	defaultLogger = otelslog.NewLogger(scopeName)
)
