package generation

import (
	"context"
	"errors"
)

// Image is a reference image (wireframe or inspiration) sent alongside the requirements.
type Image struct {
	Data     []byte
	MIMEType string
}

// Gateway produces prototype markup and story text. Implementations may block for
// as long as the backing model takes; cancellation follows ctx.
type Gateway interface {
	GeneratePrototype(ctx context.Context, requirements string, image *Image) (string, error)
	GenerateStories(ctx context.Context, requirements string, image *Image) (string, error)
	Refine(ctx context.Context, currentMarkup, instruction string) (string, error)
	GenerateVariant(ctx context.Context, requirements, previousMarkup string, image *Image) (string, error)
}

// Op names a gateway operation. It is also the metrics and log label.
type Op string

const (
	OpPrototype Op = "prototype"
	OpStories   Op = "stories"
	OpRefine    Op = "refine"
	OpVariant   Op = "variant"
)

var opMessages = map[Op]string{
	OpPrototype: "Failed to generate UI prototype.",
	OpStories:   "Failed to generate Jira stories.",
	OpRefine:    "Failed to refine UI prototype.",
	OpVariant:   "Failed to generate UI variant.",
}

// Error is a gateway failure. Error() is the user-facing message; the cause is kept for logs.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	if msg, ok := opMessages[e.Op]; ok {
		return msg
	}
	return "Generation failed."
}

func (e *Error) Unwrap() error { return e.Err }

// Cause returns the wrapped error text, or "" when there is none.
func (e *Error) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// UserMessage returns the text shown to a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Error()
	}
	return err.Error()
}
