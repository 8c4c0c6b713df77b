package core

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	// MissingInput is a required field that was not supplied, found before any fetch
	MissingInput ErrorKind = iota + 1
	// InvalidInput is a field that was supplied but could not be parsed
	InvalidInput
	// NoDataAvailable means the provider answered but had no rows for the request
	NoDataAvailable
	// ExternalFetchFailure covers network errors, unknown symbols and malformed responses
	ExternalFetchFailure
	// UndefinedStatistic is a computation with no mathematical answer, like zero variance
	UndefinedStatistic
)

func (k ErrorKind) String() string {
	switch k {
	case MissingInput:
		return "missing_input"
	case InvalidInput:
		return "invalid_input"
	case NoDataAvailable:
		return "no_data_available"
	case ExternalFetchFailure:
		return "external_fetch_failure"
	case UndefinedStatistic:
		return "undefined_statistic"
	default:
		return "unknown"
	}
}

// HttpStatus is the status a json endpoint answers with for this kind.
func (k ErrorKind) HttpStatus() int {
	switch k {
	case MissingInput, InvalidInput:
		return http.StatusBadRequest
	case NoDataAvailable:
		return http.StatusNotFound
	case ExternalFetchFailure:
		return http.StatusBadGateway
	case UndefinedStatistic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// AnalysisError is the only error type an analysis returns. Message is safe to show a user,
// Err keeps the underlying cause for logs.
type AnalysisError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first AnalysisError in the chain, zero when there is none.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// UserMessage turns any error into the single line shown on a page.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "An unexpected error occurred"
}
