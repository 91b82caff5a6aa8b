// File: internal/services/vector/errors.go
package vector

import (
	"fmt"
)

// VectorError is returned by every Store implementation in this package.
type VectorError struct {
	Type    string
	Op      string
	Message string
	Err     error
}

func (e *VectorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vector %s error in %s: %s: %v", e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("vector %s error in %s: %s", e.Type, e.Op, e.Message)
}

func (e *VectorError) Unwrap() error {
	return e.Err
}

func NewConnectionError(op, message string, err error) *VectorError {
	return &VectorError{Type: "connection", Op: op, Message: message, Err: err}
}

func NewOperationError(op, message string, err error) *VectorError {
	return &VectorError{Type: "operation", Op: op, Message: message, Err: err}
}

func NewConfigError(message string) *VectorError {
	return &VectorError{Type: "config", Op: "config", Message: message}
}

func NewValidationError(op, message string) *VectorError {
	return &VectorError{Type: "validation", Op: op, Message: message}
}

func NewTimeoutError(message string, err error) *VectorError {
	return &VectorError{Type: "timeout", Op: "retry", Message: message, Err: err}
}

func NewRetryError(message string, err error) *VectorError {
	return &VectorError{Type: "retry", Op: "retry", Message: message, Err: err}
}
