package domain

import "errors"

// Error taxonomy. Services wrap these with fmt.Errorf("%w: ...") and the
// HTTP layer translates them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
