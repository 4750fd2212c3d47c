package transport

import "encoding/json"

// Envelope wraps every JSON response of the ticket API. Success carries the
// ticket view (or list) in Data; errors carry the domain error code so kiosk
// and dashboard clients can branch without parsing messages.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess wraps a payload in a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{Status: "success", Data: data, Meta: meta}
}

// NewError wraps an error code and detail in an error envelope.
func NewError(code string, detail interface{}, meta interface{}) Envelope {
	return Envelope{Status: "error", Code: code, Error: detail, Meta: meta}
}

// String renders the envelope as JSON for log lines, best effort.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
