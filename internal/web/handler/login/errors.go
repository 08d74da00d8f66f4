package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login form cannot be parsed.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is shown for any rejected login.
	ErrInvalidCredentials = errors.New("invalid password or code")

	// ErrTooManyAttempts is shown when the client hit the login rate limit.
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")

	// ErrInternalServerError is returned for unexpected failures during the login
	// process.
	ErrInternalServerError = errors.New("internal server error")
)
