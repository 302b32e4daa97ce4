package ahe

import "errors"

var (
	// ErrKeyGeneration reports a key size below MinKeyBits or a failed
	// prime search.
	ErrKeyGeneration = errors.New("ahe: key generation failed")

	// ErrDecryption reports a ciphertext that does not belong to the
	// decrypting key.
	ErrDecryption = errors.New("ahe: decryption failed")

	// ErrKeyMismatch reports a homomorphic operation across ciphertexts of
	// different keys. It always indicates a bug in the caller.
	ErrKeyMismatch = errors.New("ahe: key mismatch")
)
