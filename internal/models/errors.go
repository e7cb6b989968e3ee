package models

import (
	"errors"
	"fmt"
)

// Exit codes returned by the process for each failure category.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitValidation  = 2
	ExitSource      = 3
	ExitPersistence = 4
)

// ValidationError reports a malformed command-line value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Field, e.Reason)
}

// SourceUnavailableError reports a log or config file that cannot be read.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("unable to read %s: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// PersistenceError reports any failure talking to the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var validationErr *ValidationError
	var sourceErr *SourceUnavailableError
	var persistenceErr *PersistenceError

	switch {
	case errors.As(err, &validationErr):
		return ExitValidation
	case errors.As(err, &sourceErr):
		return ExitSource
	case errors.As(err, &persistenceErr):
		return ExitPersistence
	default:
		return ExitFailure
	}
}
