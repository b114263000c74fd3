package stytch

import "fmt"

// Error is a normalized Stytch API error. It carries the upstream status
// so callers can separate credential rejections from provider outages.
type Error struct {
	Operation string
	Status    int
	Type      string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e == nil {
		return "stytch error"
	}

	scope := "stytch"
	if e.Operation != "" {
		scope = "stytch " + e.Operation
	}

	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Type)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorCode returns the Stytch error type, e.g. "session_not_found".
func (e *Error) ErrorCode() string {
	if e == nil {
		return ""
	}
	return e.Type
}

// ErrorDetail returns the human readable message.
func (e *Error) ErrorDetail() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Type
}

// StatusCode returns the upstream HTTP status, 0 for transport failures.
func (e *Error) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

func apiError(operation string, status int, errType, message string, err error) *Error {
	return &Error{
		Operation: operation,
		Status:    status,
		Type:      errType,
		Message:   message,
		Err:       err,
	}
}
