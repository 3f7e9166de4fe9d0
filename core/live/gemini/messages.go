package gemini

import (
	"github.com/koscakluka/ema-live/core/events"
	"google.golang.org/genai"
)

// inboundEvents maps one server message. turnDone is set when the model
// completed its turn or was interrupted.
func inboundEvents(message *genai.LiveServerMessage) (inbound []events.Inbound, turnDone bool) {
	if message == nil {
		return nil, false
	}

	if call := message.ToolCall; call != nil && len(call.FunctionCalls) > 0 {
		requests := make([]events.FunctionCallRequest, 0, len(call.FunctionCalls))
		for _, functionCall := range call.FunctionCalls {
			if functionCall == nil {
				continue
			}
			args := functionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			requests = append(requests, events.FunctionCallRequest{ID: functionCall.ID, Name: functionCall.Name, Args: args})
		}
		if len(requests) > 0 {
			inbound = append(inbound, events.NewFunctionCallBatch(requests...))
		}
	}

	if content := message.ServerContent; content != nil {
		if transcription := content.InputTranscription; transcription != nil && transcription.Text != "" {
			inbound = append(inbound, events.NewTranscriptText(events.TranscriptSourceInput, transcription.Text))
		}
		if turn := content.ModelTurn; turn != nil {
			for _, part := range turn.Parts {
				switch {
				case part == nil || part.Thought:
				case part.InlineData != nil && len(part.InlineData.Data) > 0:
					inbound = append(inbound, events.NewAudioPayload(part.InlineData.Data))
				case part.Text != "":
					inbound = append(inbound, events.NewTranscriptText(events.TranscriptSourceModel, part.Text))
				}
			}
		}
		if transcription := content.OutputTranscription; transcription != nil && transcription.Text != "" {
			inbound = append(inbound, events.NewTranscriptText(events.TranscriptSourceOutput, transcription.Text))
		}
		if content.Interrupted {
			logger.Debug("model turn interrupted")
		}
		turnDone = content.TurnComplete || content.Interrupted
	}

	if cancellation := message.ToolCallCancellation; cancellation != nil {
		logger.Warn("server cancelled function calls", "ids", cancellation.IDs)
	}
	if goAway := message.GoAway; goAway != nil {
		logger.Warn("server is about to close the session", "time_left", goAway.TimeLeft)
	}

	return inbound, turnDone
}

func toolResponse(results []events.FunctionCallResult) genai.LiveToolResponseInput {
	responses := make([]*genai.FunctionResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, &genai.FunctionResponse{
			ID:       result.ID,
			Name:     result.Name,
			Response: result.Payload(),
		})
	}
	return genai.LiveToolResponseInput{FunctionResponses: responses}
}
