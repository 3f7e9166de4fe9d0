package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/koscakluka/ema-live/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const defaultToolTimeout = 5 * time.Second

// handleFunctionCalls runs every call of the batch concurrently, each with
// its own timeout, and answers the batch with one response write. Tool
// failures become error results; only the write itself can fail the session.
func (o *Orchestrator) handleFunctionCalls(ctx context.Context, batch events.FunctionCallBatch, writer *sessionWriter) error {
	if len(batch.Calls) == 0 {
		o.logger.Warn("ignoring empty function call batch")
		return nil
	}

	ctx, span := tracer.Start(ctx, "handle function calls")
	defer span.End()
	span.SetAttributes(attribute.Int("function_calls.count", len(batch.Calls)))

	previous := o.states.Turn()
	o.states.setTurn(TurnToolPending)

	results := make([]events.FunctionCallResult, len(batch.Calls))
	var group errgroup.Group
	for i, call := range batch.Calls {
		group.Go(func() error {
			results[i] = o.callTool(ctx, call)
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if err := writer.SendToolResponse(ctx, results); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		err = &TransportError{Op: "send tool response", Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if previous == TurnToolPending {
		previous = TurnIdle
	}
	o.states.setTurn(previous)
	return nil
}

func (o *Orchestrator) callTool(ctx context.Context, call events.FunctionCallRequest) (result events.FunctionCallResult) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", call.Name), attribute.String("tool.call_id", call.ID))

	o.emit(events.NewToolCallStarted(call.ID, call.Name, call.Args))
	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			result = events.NewFunctionCallFailure(call, fmt.Sprintf("function %s panicked: %v", call.Name, recovered))
		}
		if result.Failed() {
			span.SetStatus(codes.Error, result.Err)
			o.logger.Warn("function call failed", "id", call.ID, "name", call.Name, "error", result.Err)
			o.emit(events.NewToolCallFailed(call.ID, call.Name, result.Err, time.Since(started)))
			return
		}
		elapsed := time.Since(started)
		o.logger.Info("function call completed", "id", call.ID, "name", call.Name, "elapsed", elapsed)
		o.emit(events.NewToolCallCompleted(call.ID, call.Name, result.Response, elapsed))
	}()

	tool, ok := o.tools[call.Name]
	if !ok {
		return events.NewFunctionCallFailure(call, fmt.Sprintf("unknown function: %s", call.Name))
	}

	callCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	response, err := tool.Call(callCtx, call.Args)
	if err != nil {
		span.RecordError(err)
		return events.NewFunctionCallFailure(call, err.Error())
	}
	return events.NewFunctionCallSuccess(call, response)
}
