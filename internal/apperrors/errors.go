// Package apperrors defines the closed error-kind taxonomy used across the
// indexing pipeline, graph store, and search engine.
package apperrors

import (
	"fmt"
	"time"
)

// Kind is the closed tag set of error categories the engine can raise.
type Kind string

const (
	KindParse      Kind = "parse"
	KindExtraction Kind = "extraction"
	KindResolution Kind = "resolution"
	KindStorage    Kind = "storage"
	KindSearch     Kind = "search"
	KindBudget     Kind = "budget"
	KindCancelled  Kind = "cancelled"
)

// Error is a typed error carrying a Kind, an operation name, optional file
// context, and the underlying cause. It unwraps to the underlying error so
// errors.Is/errors.As work against it.
type Error struct {
	Kind        Kind
	Operation   string
	FilePath    string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:       kind,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *Error) WithFile(path string) *Error {
	e.FilePath = path
	return e
}

func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

func (e *Error) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Operation, e.Underlying)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func (e *Error) IsRecoverable() bool {
	return e.Recoverable
}

// Parse, Extraction, Resolution, Storage, Search, Cancelled are
// convenience constructors matching spec.md §7's error kinds; KindBudget
// has no constructor of its own.

func Parse(op string, err error) *Error      { return New(KindParse, op, err).WithRecoverable(true) }
func Extraction(op string, err error) *Error { return New(KindExtraction, op, err).WithRecoverable(true) }
func Resolution(op string, err error) *Error { return New(KindResolution, op, err).WithRecoverable(true) }
func Storage(op string, err error) *Error    { return New(KindStorage, op, err) }
func Search(op string, err error) *Error     { return New(KindSearch, op, err) }
func Cancelled(op string) *Error {
	return New(KindCancelled, op, fmt.Errorf("operation cancelled")).WithRecoverable(true)
}
