package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	// CodeConfiguration is fatal for a scan: nothing downstream can be trusted.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	CodeUnreadable    ErrorCode = "UNREADABLE_FILE"
	CodeMalformedLine ErrorCode = "MALFORMED_LINE"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxVersion   = "runtime_version"
	CtxLine      = "line"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// Configuration builds the fatal error raised for an unsupported runtime version.
func Configuration(version string, err error) error {
	de := &DomainError{
		Code:    CodeConfiguration,
		Message: fmt.Sprintf("unsupported runtime version %q", version),
		Err:     err,
	}
	return de.WithContext(CtxVersion, version)
}

// Unreadable builds the per-file error for a source that could not be read.
func Unreadable(path string, err error) error {
	de := &DomainError{
		Code:    CodeUnreadable,
		Message: "source file could not be read",
		Err:     err,
	}
	return de.WithContext(CtxPath, path)
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
