package ahe

import (
	"encoding/hex"
	"math/big"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Fingerprint is a key handle: BLAKE3 over the scheme name and modulus.
type Fingerprint [32]byte

// NewFingerprint derives the fingerprint of a public key.
func NewFingerprint(scheme string, n *big.Int) Fingerprint {
	h := blake3.New()
	h.Write([]byte(scheme))
	h.Write([]byte{0})
	h.Write(n.Bytes())
	var f Fingerprint
	copy(f[:], h.Sum(nil))
	return f
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:8])
}

// Ciphertext is an encrypted integer bound to the key that produced it.
// It is immutable; homomorphic operations return new ciphertexts.
type Ciphertext struct {
	value *big.Int
	key   Fingerprint
}

// NewCiphertext wraps a raw ciphertext value produced under key.
func NewCiphertext(value *big.Int, key Fingerprint) *Ciphertext {
	return &Ciphertext{value: new(big.Int).Set(value), key: key}
}

// Value returns a copy of the raw ciphertext integer.
func (c *Ciphertext) Value() *big.Int {
	return new(big.Int).Set(c.value)
}

// Key returns the fingerprint of the key that produced c.
func (c *Ciphertext) Key() Fingerprint {
	return c.key
}

// Equal reports whether both ciphertexts are the same value under the same key.
func (c *Ciphertext) Equal(o *Ciphertext) bool {
	return c.key == o.key && c.value.Cmp(o.value) == 0
}

// Operand returns the raw value of c after checking it was produced under pk.
// Schemes use it to unwrap operands of homomorphic operations.
func Operand(pk Fingerprint, c *Ciphertext) (*big.Int, error) {
	if c == nil || c.value == nil {
		return nil, errors.Wrap(ErrKeyMismatch, "nil ciphertext")
	}
	if c.key != pk {
		return nil, errors.Wrapf(ErrKeyMismatch, "ciphertext under key %v, operation under key %v", c.key, pk)
	}
	return c.value, nil
}

// Reduce returns k mod n in [0, n).
func Reduce(k, n *big.Int) *big.Int {
	return new(big.Int).Mod(k, n)
}

// Signed maps m in [0, n) to (-n/2, n/2): m if 2m < n, else m - n.
func Signed(m, n *big.Int) *big.Int {
	twice := new(big.Int).Lsh(m, 1)
	if twice.Cmp(n) < 0 {
		return new(big.Int).Set(m)
	}
	return new(big.Int).Sub(m, n)
}
