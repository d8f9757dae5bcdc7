package leads

import "errors"

// ErrInvalidInput is matched by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

const (
	MsgAllFieldsRequired     = "All fields are required"
	MsgNameAndNumberRequired = "Name and number are required"
	MsgSearchQueryRequired   = "Search query is required"
	MsgRequiredFieldsMissing = "Required fields are missing"
	MsgNothingToUpdate       = "No fields to update"
)

// ValidationError carries the message shown to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
