// Package failure classifies pipeline errors so callers can tell bad input from a failing
// upstream dependency (embedding, scoring, or generation service) and decide whether to retry.
package failure

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the class of a pipeline failure.
type Kind int

const (
	// KindInput is a caller error: unreadable or empty document, malformed query.
	// Retrying the same request will fail the same way.
	KindInput Kind = iota + 1
	// KindUpstream is a failure of an external capability (unavailable, rate-limited,
	// timed out). The caller may retry with backoff.
	KindUpstream
	// KindInternal is a failure of the service itself, such as a persistence error.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindUpstream:
		return "upstream"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Stage names a step of the index or query flow.
type Stage string

const (
	StageLoaded        Stage = "loaded"
	StageChunked       Stage = "chunked"
	StageEmbedded      Stage = "embedded"
	StageStored        Stage = "stored"
	StageQueryEmbedded Stage = "query_embedded"
	StageRetrieved     Stage = "retrieved"
	StageReranked      Stage = "reranked"
	StageAnswered      Stage = "answered"
)

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrEmptyQuery    = errors.New("query is empty")
	ErrInvalidTopK   = errors.New("top_k must be positive")
)

// Error is a classified failure at a given stage.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s error [stage=%s]: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Input wraps err as an input failure at stage. An already classified error keeps its
// kind and stage.
func Input(stage Stage, err error) error {
	return wrap(stage, KindInput, err)
}

// Upstream wraps err as an upstream dependency failure at stage. An already classified
// error keeps its kind and stage.
func Upstream(stage Stage, err error) error {
	return wrap(stage, KindUpstream, err)
}

// Internal wraps err as a failure of the service's own storage at stage.
func Internal(stage Stage, err error) error {
	return wrap(stage, KindInternal, err)
}

func wrap(stage Stage, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Stage: stage, Kind: kind, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not classified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// StageOf returns the stage err was raised at, or "" if err is not classified.
func StageOf(err error) Stage {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}

// IsInput reports whether err is an input failure.
func IsInput(err error) bool { return KindOf(err) == KindInput }

// IsUpstream reports whether err is an upstream dependency failure.
func IsUpstream(err error) bool { return KindOf(err) == KindUpstream }

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool { return errors.Is(err, context.DeadlineExceeded) }
