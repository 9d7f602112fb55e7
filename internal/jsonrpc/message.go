package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the only protocol version accepted
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// MessageType represents the type of JSON-RPC message
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeResponse     MessageType = "response"
	MessageTypeNotification MessageType = "notification"
	MessageTypeError        MessageType = "error"
)

var nullID = json.RawMessage("null")

// Error is a JSON-RPC error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError creates an error object with a formatted message
func NewError(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Message is an inbound JSON-RPC 2.0 message
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Response is an outbound reply. ID is null when the request could not be read.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ParseMessage decodes one line of input. Malformed JSON yields a parse error and
// structurally invalid messages an invalid-request error; the message is returned
// alongside so its id can be echoed.
func ParseMessage(data []byte) (*Message, *Error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, NewError(CodeParseError, "parse error: %v", err)
	}
	if msg.JSONRPC != Version {
		return &msg, NewError(CodeInvalidRequest, "unsupported JSON-RPC version: %q", msg.JSONRPC)
	}
	if msg.Type() == "" {
		return &msg, NewError(CodeInvalidRequest, "cannot determine JSON-RPC message type")
	}
	return &msg, nil
}

// Type classifies the message
func (m *Message) Type() MessageType {
	switch {
	case m.Error != nil:
		return MessageTypeError
	case m.Method != "":
		if m.hasID() && !strings.HasPrefix(m.Method, "notifications/") {
			return MessageTypeRequest
		}
		return MessageTypeNotification
	case m.Result != nil && m.hasID():
		return MessageTypeResponse
	}
	return ""
}

// IsRequest returns true if the message expects a response
func (m *Message) IsRequest() bool {
	return m.Type() == MessageTypeRequest
}

// IsNotification returns true for messages that must not be answered
func (m *Message) IsNotification() bool {
	return m.Type() == MessageTypeNotification
}

// ResponseID returns the id to echo in a reply
func (m *Message) ResponseID() json.RawMessage {
	if m == nil || !m.hasID() {
		return nullID
	}
	return m.ID
}

func (m *Message) hasID() bool {
	return len(m.ID) > 0 && !bytes.Equal(m.ID, nullID)
}

// NewResult builds a success response
func NewResult(id json.RawMessage, result interface{}) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{JSONRPC: Version, ID: id, Error: err}
}
