package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindUnexpected ErrorKind = "unexpected"
)

// AppError is the single failure signal returned by service operations.
type AppError struct {
	Kind    ErrorKind
	Message string
	// Fields maps a document path (e.g. "items[0].jobs") to the failed rule.
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, fields map[string]string) error {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// NewNotFoundError wraps ErrorRecordNotFound so errors.Is keeps working.
func NewNotFoundError(entity string, id int) error {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
		Err:     ErrorRecordNotFound,
	}
}

func NewConflictError(message string, err error) error {
	return &AppError{Kind: KindConflict, Message: message, Err: err}
}

// KindOf classifies any error returned by a service operation.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return KindNotFound
	}
	return KindUnexpected
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
