package poapmint

import "errors"

var (
	// ErrEmptyMintCode is returned when an operation is called without a mint code.
	ErrEmptyMintCode = errors.New("poapmint: empty mint code")

	// ErrInvalidEmail is returned when a reservation targets a malformed email address.
	ErrInvalidEmail = errors.New("poapmint: invalid email")

	// ErrEmptyResponse is returned when the Tokens API answers without a body.
	ErrEmptyResponse = errors.New("poapmint: empty response")

	// ErrClosed is returned when operating on a closed Client.
	ErrClosed = errors.New("poapmint: client has been closed")
)
