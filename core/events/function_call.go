package events

// FunctionCallRequest is one call requested by the service. ID is an opaque
// correlation token that must be echoed verbatim in the result.
type FunctionCallRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// FunctionCallResult answers one FunctionCallRequest. Exactly one of
// Response and Err is meaningful.
type FunctionCallResult struct {
	ID       string
	Name     string
	Response map[string]any
	Err      string
}

func NewFunctionCallSuccess(request FunctionCallRequest, response map[string]any) FunctionCallResult {
	if response == nil {
		response = map[string]any{}
	}
	return FunctionCallResult{ID: request.ID, Name: request.Name, Response: response}
}

func NewFunctionCallFailure(request FunctionCallRequest, message string) FunctionCallResult {
	return FunctionCallResult{ID: request.ID, Name: request.Name, Err: message}
}

func (r FunctionCallResult) Failed() bool { return r.Err != "" }

// Payload is the mapping sent back to the service: the response on success
// and {"error": message} on failure.
func (r FunctionCallResult) Payload() map[string]any {
	if r.Failed() {
		return map[string]any{"error": r.Err}
	}
	return r.Response
}
