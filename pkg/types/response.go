package types

// DataEnvelope wraps every successful payload under a "data" key so clients
// can distinguish results from error bodies without inspecting status codes.
type DataEnvelope struct {
	Data any `json:"data"`
}

// ErrorBody carries the machine-readable code plus a human message. Details
// is only populated for codes that allow surfacing field-level information.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the top-level shape of every failed response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
