package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindUnknown Kind = iota // request could not be built, or the reply could not be decoded
	KindNetwork             // no response: transport failure or timeout
	KindAuth                // 401/403; the session has been invalidated
	KindServer              // any other non-2xx status
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrNetwork = errors.New("gateway: network error")
	ErrAuth    = errors.New("gateway: authentication error")
	ErrServer  = errors.New("gateway: server error")
	ErrUnknown = errors.New("gateway: unknown error")
)

// Error is the single error type returned by the gateway.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status for KindAuth and KindServer
	Body    []byte // raw response body for KindServer
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if msg := e.ServerMessage(); msg != "" {
			return fmt.Sprintf("server error: status %d: %s", e.Status, msg)
		}
		return fmt.Sprintf("server error: status %d", e.Status)
	default:
		return e.Kind.String() + " error: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrServer:
		return e.Kind == KindServer
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// ServerMessage extracts a human message from a JSON error body
// ({"message": ...} or {"error": ...}), falling back to short plain text.
func (e *Error) ServerMessage() string {
	if len(e.Body) == 0 {
		return e.Message
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(e.Body, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
		return e.Message
	}
	txt := strings.TrimSpace(string(e.Body))
	if len(txt) > 200 {
		txt = txt[:200]
	}
	return txt
}

// NetworkError reports that no response was received.
func NetworkError(msg string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: msg, Err: cause}
}

// AuthError reports a rejected credential.
func AuthError(status int, msg string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg}
}

// ServerError reports a non-2xx, non-auth response.
func ServerError(status int, body []byte) *Error {
	return &Error{Kind: KindServer, Status: status, Body: body}
}

// UnknownError wraps encode, decode and construction failures.
func UnknownError(msg string, cause error) *Error {
	return &Error{Kind: KindUnknown, Message: msg, Err: cause}
}

// KindOf returns the kind of a gateway error, or KindUnknown for other errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by a gateway error, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}
