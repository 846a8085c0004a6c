package store

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the record already exists (unique constraint).
	ErrAlreadyExists = errors.New("already exists")

	// ErrExpired indicates a session is past its expiry or revoked.
	ErrExpired = errors.New("expired")
)
