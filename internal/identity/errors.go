package identity

import "errors"

var (
	// ErrEmailTaken is returned by SignUp when an account already uses the
	// email address.
	ErrEmailTaken = errors.New("email already in use")

	// ErrInvalidCredentials is returned by SignIn for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrInvalidEmail     = errors.New("email is invalid")

	// ErrInvalidToken means the bearer token is malformed, badly signed or
	// expired.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrSessionEnded means the token is well formed but its session was
	// revoked or has expired.
	ErrSessionEnded = errors.New("session ended")

	ErrGoogleDisabled = errors.New("google sign-in is not configured")
	ErrInvalidState   = errors.New("invalid or expired oauth state")

	// ErrEmailUnverified means Google did not confirm the profile's email.
	ErrEmailUnverified = errors.New("google email is not verified")

	// ErrAccountNotLinked means the email belongs to an account that signs
	// in with a password.
	ErrAccountNotLinked = errors.New("email belongs to a password account")
)
