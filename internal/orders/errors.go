package orders

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrAlreadyProcessed    = errors.New("order already processed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("forbidden")
)

// ValidationError rejects malformed input before it reaches the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(msg string) error {
	return &ValidationError{Msg: msg}
}
