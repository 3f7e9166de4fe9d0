package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-live/core/events"
	"github.com/koscakluka/ema-live/core/live"
	"google.golang.org/genai"
)

type leadArgs struct {
	Name   string   `json:"name" jsonschema:"description=Full name"`
	Status string   `json:"status" jsonschema:"enum=NEW,enum=WON"`
	Tags   []string `json:"tags,omitempty"`
}

func TestLiveConnectConfigMapsSessionParameters(t *testing.T) {
	tool := live.NewTool("createLead", "Creates a lead", func(context.Context, leadArgs) (map[string]any, error) { return nil, nil })
	config, err := liveConnectConfig(live.Config{
		Voice:             "Zephyr",
		SystemInstruction: "be brief",
		Compression:       live.Compression{TriggerTokens: 25600, TargetTokens: 12800},
		Tools:             live.Declarations(tool),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(config.ResponseModalities) != 1 || config.ResponseModalities[0] != genai.ModalityAudio {
		t.Fatalf("expected audio modality, got %v", config.ResponseModalities)
	}
	if config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Zephyr" {
		t.Fatalf("expected voice to be set")
	}
	if config.SystemInstruction.Parts[0].Text != "be brief" {
		t.Fatalf("expected system instruction to be set")
	}
	compression := config.ContextWindowCompression
	if *compression.TriggerTokens != 25600 || *compression.SlidingWindow.TargetTokens != 12800 {
		t.Fatalf("unexpected compression %+v", compression)
	}
	if config.InputAudioTranscription == nil || config.OutputAudioTranscription == nil {
		t.Fatalf("expected transcriptions to be enabled")
	}

	declarations := config.Tools[0].FunctionDeclarations
	if len(declarations) != 1 || declarations[0].Name != "createLead" {
		t.Fatalf("unexpected declarations %+v", declarations)
	}
	parameters := declarations[0].Parameters
	if parameters.Type != genai.TypeObject || len(parameters.Required) != 2 {
		t.Fatalf("unexpected parameters %+v", parameters)
	}
	if got := parameters.PropertyOrdering; len(got) != 3 || got[0] != "name" || got[2] != "tags" {
		t.Fatalf("expected property order to be kept, got %v", got)
	}
	status := parameters.Properties["status"]
	if status.Type != genai.TypeString || len(status.Enum) != 2 || status.Enum[1] != "WON" {
		t.Fatalf("unexpected status schema %+v", status)
	}
	if tags := parameters.Properties["tags"]; tags.Type != genai.TypeArray || tags.Items.Type != genai.TypeString {
		t.Fatalf("unexpected tags schema %+v", tags)
	}
}

func TestLiveConnectConfigRejectsTargetAboveTrigger(t *testing.T) {
	_, err := liveConnectConfig(live.Config{Compression: live.Compression{TriggerTokens: 100, TargetTokens: 200}})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestLiveConnectConfigWithoutCompressionOrTools(t *testing.T) {
	config, err := liveConnectConfig(live.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.ContextWindowCompression != nil || config.Tools != nil || config.SpeechConfig != nil {
		t.Fatalf("expected optional settings to stay unset, got %+v", config)
	}
}

func TestConvertJSONSchemaScalarTypes(t *testing.T) {
	cases := map[string]genai.Type{
		"string":  genai.TypeString,
		"number":  genai.TypeNumber,
		"integer": genai.TypeInteger,
		"boolean": genai.TypeBoolean,
		"object":  genai.TypeObject,
		"":        genai.TypeObject,
	}
	for in, want := range cases {
		if got := convertJSONSchema(&jsonschema.Schema{Type: in}).Type; got != want {
			t.Fatalf("type %q: expected %v, got %v", in, want, got)
		}
	}
	if convertJSONSchema(nil) != nil {
		t.Fatalf("expected nil schema to stay nil")
	}
}

func TestInboundEventsMapsServerContent(t *testing.T) {
	message := &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		InputTranscription: &genai.Transcription{Text: "create a lead"},
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm;rate=24000"}},
			{Text: "thinking", Thought: true},
			{Text: "sure"},
		}},
		OutputTranscription: &genai.Transcription{Text: "sure"},
	}}

	inbound, done := inboundEvents(message)
	if done {
		t.Fatalf("expected turn to continue")
	}
	if len(inbound) != 4 {
		t.Fatalf("expected 4 events, got %d: %#v", len(inbound), inbound)
	}
	if got := inbound[0].(events.TranscriptText); got.Source != events.TranscriptSourceInput {
		t.Fatalf("unexpected first event %#v", got)
	}
	if got := inbound[1].(events.AudioPayload); len(got.Data) != 2 {
		t.Fatalf("unexpected audio %#v", got)
	}
	if got := inbound[2].(events.TranscriptText); got.Source != events.TranscriptSourceModel || got.Text != "sure" {
		t.Fatalf("unexpected model text %#v", got)
	}
	if got := inbound[3].(events.TranscriptText); got.Source != events.TranscriptSourceOutput {
		t.Fatalf("unexpected output transcript %#v", got)
	}
}

func TestInboundEventsEndsTurnOnCompleteOrInterrupted(t *testing.T) {
	for _, content := range []*genai.LiveServerContent{{TurnComplete: true}, {Interrupted: true}} {
		if _, done := inboundEvents(&genai.LiveServerMessage{ServerContent: content}); !done {
			t.Fatalf("expected turn to end for %+v", content)
		}
	}
	if _, done := inboundEvents(&genai.LiveServerMessage{SetupComplete: &genai.LiveServerSetupComplete{}}); done {
		t.Fatalf("expected setup message not to end the turn")
	}
}

func TestInboundEventsMapsToolCallToOneBatch(t *testing.T) {
	message := &genai.LiveServerMessage{ToolCall: &genai.LiveServerToolCall{FunctionCalls: []*genai.FunctionCall{
		{ID: "a", Name: "createLead", Args: map[string]any{"name": "Rohan"}},
		{ID: "b", Name: "scheduleVisit"},
	}}}

	inbound, _ := inboundEvents(message)
	if len(inbound) != 1 {
		t.Fatalf("expected one batch, got %d", len(inbound))
	}
	batch := inbound[0].(events.FunctionCallBatch)
	if len(batch.Calls) != 2 || batch.Calls[0].ID != "a" || batch.Calls[1].Args == nil {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestToolResponseCarriesPayloads(t *testing.T) {
	request := events.FunctionCallRequest{ID: "a", Name: "createLead"}
	response := toolResponse([]events.FunctionCallResult{
		events.NewFunctionCallSuccess(request, map[string]any{"status": "NEW"}),
		events.NewFunctionCallFailure(events.FunctionCallRequest{ID: "b", Name: "x"}, "unknown function: x"),
	})

	if len(response.FunctionResponses) != 2 {
		t.Fatalf("expected 2 responses")
	}
	if response.FunctionResponses[0].ID != "a" || response.FunctionResponses[0].Response["status"] != "NEW" {
		t.Fatalf("unexpected success response %+v", response.FunctionResponses[0])
	}
	if response.FunctionResponses[1].Response["error"] != "unknown function: x" {
		t.Fatalf("unexpected failure response %+v", response.FunctionResponses[1])
	}
}

type fakeConnection struct {
	messages []*genai.LiveServerMessage
	err      error

	realtime []genai.LiveRealtimeInput
	content  []genai.LiveClientContentInput
	tools    []genai.LiveToolResponseInput
	closed   int
}

func (c *fakeConnection) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	c.realtime = append(c.realtime, input)
	return nil
}

func (c *fakeConnection) SendClientContent(input genai.LiveClientContentInput) error {
	c.content = append(c.content, input)
	return nil
}

func (c *fakeConnection) SendToolResponse(input genai.LiveToolResponseInput) error {
	c.tools = append(c.tools, input)
	return nil
}

func (c *fakeConnection) Receive() (*genai.LiveServerMessage, error) {
	if len(c.messages) == 0 {
		return nil, c.err
	}
	message := c.messages[0]
	c.messages = c.messages[1:]
	return message, nil
}

func (c *fakeConnection) Close() error {
	c.closed++
	return nil
}

func TestSessionTurnStopsAtTurnBoundary(t *testing.T) {
	conn := &fakeConnection{messages: []*genai.LiveServerMessage{
		{ServerContent: &genai.LiveServerContent{ModelTurn: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte{1}}}}}}},
		{ServerContent: &genai.LiveServerContent{TurnComplete: true}},
		{ServerContent: &genai.LiveServerContent{ModelTurn: &genai.Content{Parts: []*genai.Part{{Text: "next turn"}}}}},
	}}
	s := newSession(conn, "audio/pcm;rate=16000")

	count := 0
	for event, err := range s.Turn(context.Background()) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := event.(events.AudioPayload); !ok {
			t.Fatalf("unexpected event %#v", event)
		}
		count++
	}
	if count != 1 || len(conn.messages) != 1 {
		t.Fatalf("expected turn to stop after the boundary, got %d events, %d left", count, len(conn.messages))
	}
}

func TestSessionTurnYieldsReceiveError(t *testing.T) {
	conn := &fakeConnection{err: errors.New("websocket closed")}
	s := newSession(conn, "")

	var got error
	for _, err := range s.Turn(context.Background()) {
		got = err
	}
	if got == nil || !errors.Is(got, conn.err) {
		t.Fatalf("expected wrapped receive error, got %v", got)
	}
}

func TestSessionSendMapsOutboundMessages(t *testing.T) {
	conn := &fakeConnection{}
	s := newSession(conn, "audio/pcm;rate=16000")
	ctx := context.Background()

	if err := s.Send(ctx, events.NewAudioChunk([]byte{1, 2}, "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Send(ctx, events.NewTextTurn("hello", true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SendToolResponse(ctx, []events.FunctionCallResult{{ID: "a", Name: "x", Response: map[string]any{}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if conn.realtime[0].Audio.MIMEType != "audio/pcm;rate=16000" {
		t.Fatalf("expected default input mime type, got %q", conn.realtime[0].Audio.MIMEType)
	}
	content := conn.content[0]
	if content.Turns[0].Parts[0].Text != "hello" || content.Turns[0].Role != genai.RoleUser || !*content.TurnComplete {
		t.Fatalf("unexpected client content %+v", content)
	}
	if len(conn.tools) != 1 || conn.tools[0].FunctionResponses[0].ID != "a" {
		t.Fatalf("unexpected tool responses %+v", conn.tools)
	}

	_ = s.Close()
	_ = s.Close()
	if conn.closed != 1 {
		t.Fatalf("expected a single close, got %d", conn.closed)
	}
}

func TestSessionSendAfterCancellationDoesNothing(t *testing.T) {
	conn := &fakeConnection{}
	s := newSession(conn, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Send(ctx, events.NewTextTurn("late", true)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if len(conn.content) != 0 {
		t.Fatalf("expected nothing to be sent")
	}
}
