package models

import (
	"encoding/json"
	"time"
)

// MessageEnvelope is the top-level message structure for all communications
type MessageEnvelope struct {
	Type     string    `json:"type"` // "request", "response", or "event"
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// Error codes carried in ErrorInfo.Code
const (
	CodeBadRequest         = 400
	CodeNotFound           = 404
	CodeConstraintConflict = 409
	CodeInternal           = 500
)

// Methods served by the griddock daemon
const (
	MethodPing         = "ping"
	MethodTrack        = "window.track"
	MethodUntrack      = "window.untrack"
	MethodJoin         = "group.join"
	MethodMerge        = "group.merge"
	MethodLeave        = "group.leave"
	MethodList         = "group.list"
	MethodUpdateBounds = "bounds.update"
	MethodSetBounds    = "bounds.set"
	MethodRaiseEvent   = "raiseEvent"
	MethodSubscribe    = "events.subscribe"
)

// Request represents an RPC request
type Request struct {
	ID     string                 `json:"id"`
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

// Response represents an RPC response
type Response struct {
	ID     string                 `json:"id"`
	Result map[string]interface{} `json:"result,omitempty"`
	Error  *ErrorInfo             `json:"error,omitempty"`
}

// ErrorInfo represents an error in a response
type ErrorInfo struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Event represents an asynchronous event from the server
type Event struct {
	EventType string                 `json:"eventType"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewRequest creates a new request envelope
func NewRequest(id, method string, params map[string]interface{}) *MessageEnvelope {
	return &MessageEnvelope{
		Type: "request",
		Request: &Request{
			ID:     id,
			Method: method,
			Params: params,
		},
	}
}

// NewResponse creates a successful response envelope
func NewResponse(id string, result map[string]interface{}) *MessageEnvelope {
	return &MessageEnvelope{
		Type:     "response",
		Response: &Response{ID: id, Result: result},
	}
}

// NewErrorResponse creates an error response envelope
func NewErrorResponse(id string, code int, message string) *MessageEnvelope {
	return &MessageEnvelope{
		Type: "response",
		Response: &Response{
			ID:    id,
			Error: &ErrorInfo{Code: code, Message: message},
		},
	}
}

// NewEvent creates an event envelope
func NewEvent(eventType string, data map[string]interface{}, ts time.Time) *MessageEnvelope {
	return &MessageEnvelope{
		Type: "event",
		Event: &Event{
			EventType: eventType,
			Data:      data,
			Timestamp: ts,
		},
	}
}

// IsError returns true if the response contains an error
func (r *Response) IsError() bool {
	return r.Error != nil
}

// GetError returns the error message if present
func (r *Response) GetError() string {
	if r.Error != nil {
		return r.Error.Message
	}
	return ""
}

// MarshalJSON implements custom JSON marshaling for MessageEnvelope
func (m *MessageEnvelope) MarshalJSON() ([]byte, error) {
	type Alias MessageEnvelope
	return json.Marshal(&struct {
		*Alias
	}{
		Alias: (*Alias)(m),
	})
}
