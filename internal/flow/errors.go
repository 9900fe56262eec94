package flow

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a flow failure.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindSchemaViolation Kind = "schema_violation"
	KindServiceFailure  Kind = "service_failure"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSchemaViolation = errors.New("schema violation")
	ErrServiceFailure  = errors.New("service failure")
)

// Error is the single error type returned by Flow.Run.
type Error struct {
	Flow    string
	Kind    Kind
	Message string
	// Details holds per-field violations, "field: problem".
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "flow %s: %s", e.Flow, e.Message)
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrSchemaViolation:
		return e.Kind == KindSchemaViolation
	case ErrServiceFailure:
		return e.Kind == KindServiceFailure
	}
	return false
}

// UserMessage is the text shown in the error notification.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindInvalidInput:
		if len(e.Details) == 0 {
			return e.Message
		}
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, "; "))
	case KindSchemaViolation:
		return "The analysis service returned an unexpected response. Please try again."
	default:
		return "An error occurred during analysis. Please try again."
	}
}

// KindOf returns the Kind of a flow error, or KindServiceFailure for any
// other non-nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindServiceFailure
}

func invalidInput(flow string, details []string, err error) *Error {
	return &Error{Flow: flow, Kind: KindInvalidInput, Message: "invalid input", Details: details, Err: err}
}

func schemaViolation(flow string, details []string, err error) *Error {
	return &Error{Flow: flow, Kind: KindSchemaViolation, Message: "response does not match the output schema", Details: details, Err: err}
}

func serviceFailure(flow string, err error) *Error {
	return &Error{Flow: flow, Kind: KindServiceFailure, Message: "completion service call failed", Err: err}
}
