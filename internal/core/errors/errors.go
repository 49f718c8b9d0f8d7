package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationError  ErrorCode = "VALIDATION_ERROR"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	CodeMissingDataset   ErrorCode = "MISSING_DATASET"
	CodeEmptyDataset     ErrorCode = "EMPTY_DATASET"
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
	CtxDataset   = "dataset"
	CtxBundleID  = "bundle_id"
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

// Extraction reports a descriptor that could not be normalized. Callers log it
// and move on to the next descriptor.
func Extraction(source string, err error) error {
	de := &DomainError{Code: CodeExtractionFailed, Message: "cannot normalize descriptor", Err: err}
	if source != "" {
		de.WithContext(CtxPath, source)
	}
	return de
}

// MissingDataset reports a dataset file required by a comparison or visualization step.
func MissingDataset(dataset, path string) error {
	return (&DomainError{
		Code:    CodeMissingDataset,
		Message: fmt.Sprintf("dataset file %s not found", path),
	}).WithContext(CtxDataset, dataset)
}

// EmptyDataset reports an extraction pass that produced no records.
func EmptyDataset(dataset string) error {
	return (&DomainError{
		Code:    CodeEmptyDataset,
		Message: "no kernel extensions found",
	}).WithContext(CtxDataset, dataset)
}

// AddContext attaches key/value context, wrapping plain errors as internal errors.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
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

// Join combines step errors; see errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
