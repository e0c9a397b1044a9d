// Package errors defines the typed error taxonomy every component wraps
// its failures in, per spec.md §7. Per-command handlers in the daemon
// translate these into socket error responses; parser failures never
// propagate past the extractor for a single file.
package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies an error for the daemon's error response and for
// logging.
type ErrorType string

const (
	ErrorTypeIndexing      ErrorType = "indexing"
	ErrorTypeParse         ErrorType = "parse"
	ErrorTypeSearch        ErrorType = "search"
	ErrorTypeFileNotFound  ErrorType = "file_not_found"
	ErrorTypeFileTooLarge  ErrorType = "file_too_large"
	ErrorTypePermission    ErrorType = "permission"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInvalidInput  ErrorType = "invalid_request"
	ErrorTypeTransient     ErrorType = "transient"
	ErrorTypeFatal         ErrorType = "fatal"
	ErrorTypeInternal      ErrorType = "internal"
)

// NotFoundError covers "function not in file" / "target not in graph".
// CFG extraction surfaces this as "not found"; DFG instead returns an
// empty graph to preserve the no-throw contract for bulk indexers.
type NotFoundError struct {
	Kind string // e.g. "function", "module", "edge"
	What string
}

func NewNotFoundError(kind, what string) *NotFoundError {
	return &NotFoundError{Kind: kind, What: what}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.What)
}

// ParseError represents a parser that could not read a file. The extractor
// records an empty FileFacts and logs; indexing continues for other files.
type ParseError struct {
	FilePath   string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

func NewParseError(path string, line, column int, token string, err error) *ParseError {
	return &ParseError{FilePath: path, Line: line, Column: column, Token: token, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near token %q): %v", e.FilePath, e.Line, e.Column, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// FileTooLargeError is treated like ParseError with a specific kind so
// callers can distinguish "unreadable" from "too big to even attempt".
type FileTooLargeError struct {
	FilePath string
	SizeByte int64
	LimitByte int64
}

func NewFileTooLargeError(path string, size, limit int64) *FileTooLargeError {
	return &FileTooLargeError{FilePath: path, SizeByte: size, LimitByte: limit}
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s (%d bytes) exceeds the %d byte ceiling", e.FilePath, e.SizeByte, e.LimitByte)
}

// InvalidRequestError covers malformed JSON or a missing required argument.
// The daemon replies without touching any state.
type InvalidRequestError struct {
	Message string
}

func NewInvalidRequestError(msg string) *InvalidRequestError {
	return &InvalidRequestError{Message: msg}
}

func (e *InvalidRequestError) Error() string { return e.Message }

// TransientError covers a subprocess timeout or a socket write failure:
// logged, the daemon continues serving.
type TransientError struct {
	Operation  string
	Underlying error
}

func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Operation: op, Underlying: err}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Operation, e.Underlying)
}

func (e *TransientError) Unwrap() error { return e.Underlying }

// FatalError covers lock-acquisition failure at startup or out-of-disk
// while persisting caches: the daemon exits cleanly after logging this.
type FatalError struct {
	Reason     string
	Underlying error
}

func NewFatalError(reason string, err error) *FatalError {
	return &FatalError{Reason: reason, Underlying: err}
}

func (e *FatalError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Underlying)
	}
	return e.Reason
}

func (e *FatalError) Unwrap() error { return e.Underlying }

// IndexingError wraps a failure during the extract/resolve/partition
// pipeline for a single file.
type IndexingError struct {
	Type        ErrorType
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{Type: ErrorTypeIndexing, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *IndexingError) WithFile(path string) *IndexingError {
	e.FilePath = path
	return e
}

func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

func (e *IndexingError) Unwrap() error { return e.Underlying }

// ConfigError wraps a failure loading or validating a KDL/TOML config file.
type ConfigError struct {
	Section    string
	Key        string
	Underlying error
}

func NewConfigError(section, key string, err error) *ConfigError {
	return &ConfigError{Section: section, Key: key, Underlying: err}
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error in %s.%s: %v", e.Section, e.Key, e.Underlying)
	}
	return fmt.Sprintf("config error in %s: %v", e.Section, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError aggregates per-file errors from a bulk indexing run.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// ToResponse maps any error into the (status, message) pair the daemon's
// socket protocol emits: nil becomes ("ok", ""), every other error becomes
// ("error", err.Error()) whatever its type.
func ToResponse(err error) (status string, message string) {
	if err == nil {
		return "ok", ""
	}
	return "error", err.Error()
}
