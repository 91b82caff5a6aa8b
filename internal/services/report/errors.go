package report

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeInvalidInput    ErrorType = "invalid_input"
	ErrTypeExternalService ErrorType = "external_service"
	ErrTypeParse           ErrorType = "parse"
	ErrTypeNotFound        ErrorType = "not_found"
)

// ReportError is returned by the pipeline and the report service.
type ReportError struct {
	Type      ErrorType
	Operation string
	Message   string
	ReportID  string
	Cause     error
}

func (e *ReportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("report %s error in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("report %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ReportError) Unwrap() error {
	return e.Cause
}

func NewInvalidInputError(operation, msg string) *ReportError {
	return &ReportError{Type: ErrTypeInvalidInput, Operation: operation, Message: msg}
}

func NewExternalServiceError(operation, reportID, msg string, cause error) *ReportError {
	return &ReportError{Type: ErrTypeExternalService, Operation: operation, Message: msg, ReportID: reportID, Cause: cause}
}

func NewParseError(operation, msg string, cause error) *ReportError {
	return &ReportError{Type: ErrTypeParse, Operation: operation, Message: msg, Cause: cause}
}

func NewNotFoundError(operation, reportID string) *ReportError {
	return &ReportError{Type: ErrTypeNotFound, Operation: operation, Message: "report not found", ReportID: reportID}
}

// IsInvalidInput reports whether err is a validation failure the caller
// can fix.
func IsInvalidInput(err error) bool {
	var re *ReportError
	return errors.As(err, &re) && re.Type == ErrTypeInvalidInput
}
