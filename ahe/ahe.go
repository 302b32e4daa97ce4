// Package ahe defines the additively homomorphic public-key cryptosystem the
// membership protocol is written against.
//
// Any scheme whose keys satisfy PublicKey and PrivateKey can drive the
// protocol: encryption must be probabilistic, Add must map to plaintext
// addition mod N and MultiplyScalar to plaintext multiplication mod N.
// Plaintexts live in [0, N) and are decoded as signed integers with the
// midpoint convention implemented by Signed.
package ahe

import (
	"io"
	"math/big"
)

const (
	// MinKeyBits is the smallest modulus accepted by GenerateKey. It is only
	// suitable for tests and demos.
	MinKeyBits = 512

	// RecommendedKeyBits is the smallest modulus recommended outside of tests.
	RecommendedKeyBits = 2048
)

// PublicKey is the part of a key pair shared with the evaluating party.
type PublicKey interface {
	// N returns a copy of the plaintext modulus.
	N() *big.Int

	// Fingerprint identifies the key; every ciphertext carries the
	// fingerprint of the key that produced it.
	Fingerprint() Fingerprint

	// Encrypt encrypts m mod N with fresh randomness.
	Encrypt(m *big.Int) (*Ciphertext, error)

	// Add returns Enc(a+b mod N).
	Add(a, b *Ciphertext) (*Ciphertext, error)

	// MultiplyScalar returns Enc(a*k mod N). k may be negative or exceed N.
	MultiplyScalar(c *Ciphertext, k *big.Int) (*Ciphertext, error)

	// AddPlain returns Enc(a+k mod N).
	AddPlain(c *Ciphertext, k *big.Int) (*Ciphertext, error)
}

// PrivateKey decrypts ciphertexts produced under its public key.
type PrivateKey interface {
	Public() PublicKey

	// Decrypt returns the signed plaintext of c.
	Decrypt(c *Ciphertext) (*big.Int, error)

	// Zeroize wipes the secret material. The key is unusable afterwards.
	Zeroize()
}

// Scheme generates key pairs for one cryptosystem.
type Scheme interface {
	Name() string

	// GenerateKey returns a key pair whose modulus has at least bits bits.
	// Schemes that manage their own randomness may ignore random.
	GenerateKey(random io.Reader, bits int) (PublicKey, PrivateKey, error)
}
