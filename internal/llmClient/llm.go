package llmclient

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("empty response from LLM")

// Media is an inline binary attachment such as a wireframe image.
type Media struct {
	Data     []byte
	MIMEType string
}

// Request is a single-turn generation request.
type Request struct {
	Prompt string
	Media  []Media
	// JSON asks the model for application/json output constrained by Schema when set.
	JSON   bool
	Schema *Schema
}

// LLMClient is the provider-facing surface the generation gateway is built on.
type LLMClient interface {
	Name() string
	GenerateText(ctx context.Context, req Request) (string, error)
	Close() error
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err (or anything it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}
