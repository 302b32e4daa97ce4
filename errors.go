package psm

import (
	"errors"

	"github.com/ontanj/psm/ahe"
)

var (
	// ErrSetSizeMismatch means the client message was built for a dataset of a
	// different size than the server holds.
	ErrSetSizeMismatch = errors.New("psm: set size mismatch")
	// ErrMalformedMessage means a message does not have the expected shape.
	ErrMalformedMessage = errors.New("psm: malformed message")
	// ErrProtocolState means a single-use client was driven out of order.
	ErrProtocolState = errors.New("psm: client used out of order")
	// ErrUnknownScheme means no cryptosystem is registered under the name.
	ErrUnknownScheme = errors.New("psm: unknown scheme")

	ErrKeyGeneration = ahe.ErrKeyGeneration
	ErrKeyMismatch   = ahe.ErrKeyMismatch
	ErrDecryption    = ahe.ErrDecryption
)
