package telegram

import "fmt"

// ErrSendFailed is returned when a Bot API call could not be completed.
type ErrSendFailed struct {
	Method string
	Cause  error
}

func (e *ErrSendFailed) Error() string {
	return fmt.Sprintf("telegram: %s failed: %v", e.Method, e.Cause)
}

func (e *ErrSendFailed) Unwrap() error { return e.Cause }
