package evaluator

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("missing evaluator API key")
	ErrEmptyReply        = errors.New("evaluator returned no content")
	// ErrUnrecognizedShape means no evaluation list could be resolved from the reply.
	ErrUnrecognizedShape = errors.New("unrecognized evaluation reply shape")
	ErrNoEvaluations     = errors.New("evaluation reply contains no evaluations")
)

// ParseError is returned when the reply is not JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse evaluator reply as JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProviderError wraps a transport or provider-side failure.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsNoResults reports whether err is a well-formed reply without usable
// evaluations, as opposed to a transport or parse failure.
func IsNoResults(err error) bool {
	return errors.Is(err, ErrUnrecognizedShape) || errors.Is(err, ErrNoEvaluations)
}
