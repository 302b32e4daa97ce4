// Package dj is the threshold variant of the Paillier scheme: the key is
// dealt as Shares shares, any Threshold of which decrypt. The key owner
// holds all of them and decrypts with the first Threshold.
package dj

import (
	"io"

	"github.com/ontanj/psm/ahe"
	"github.com/ontanj/psm/ahe/paillier"
)

const (
	// SchemeName is the name the scheme is selected by.
	SchemeName = "dj"

	Shares    = 3
	Threshold = 2
)

type Scheme struct{}

func (Scheme) Name() string { return SchemeName }

func (Scheme) GenerateKey(_ io.Reader, bits int) (ahe.PublicKey, ahe.PrivateKey, error) {
	sk, err := GenerateKey(bits)
	if err != nil {
		return nil, nil, err
	}
	return sk.PublicKey, sk, nil
}

// GenerateKey deals a Threshold-of-Shares key with a modulus of at least
// bits bits.
func GenerateKey(bits int) (*paillier.PrivateKey, error) {
	return paillier.Deal(SchemeName, bits, Shares, Threshold)
}
