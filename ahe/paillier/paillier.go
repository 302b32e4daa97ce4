// Package paillier runs the membership protocol on Paillier keys dealt by
// github.com/niclabs/tcpaillier.
//
// tcpaillier is a threshold scheme: the dealer splits the decryption key into
// shares and any threshold of them decrypts. Here the key owner keeps every
// share, so decryption is a local PartialDecrypt per share followed by
// CombineShares.
package paillier

import (
	"io"
	"math/big"

	"github.com/niclabs/tcpaillier"
	"github.com/pkg/errors"

	"github.com/ontanj/psm/ahe"
)

const (
	// SchemeName is the name the scheme is selected by.
	SchemeName = "paillier"

	// the dealer refuses fewer than two shares
	minShares = 2

	maxDeals = 4
)

var one = big.NewInt(1)

// Scheme generates Paillier key pairs. tcpaillier draws its own randomness
// from crypto/rand, so the random argument is unused.
type Scheme struct{}

func (Scheme) Name() string { return SchemeName }

func (Scheme) GenerateKey(_ io.Reader, bits int) (ahe.PublicKey, ahe.PrivateKey, error) {
	sk, err := GenerateKey(bits)
	if err != nil {
		return nil, nil, err
	}
	return sk.PublicKey, sk, nil
}

// PublicKey wraps a tcpaillier public key.
type PublicKey struct {
	pk *tcpaillier.PubKey
	nn *big.Int
	fp ahe.Fingerprint
}

// PrivateKey holds the key shares and how many of them decrypt.
type PrivateKey struct {
	*PublicKey
	shares    []*tcpaillier.KeyShare
	threshold int
}

// GenerateKey deals a key with a modulus of at least bits bits whose
// shares all stay with the caller.
func GenerateKey(bits int) (*PrivateKey, error) {
	return Deal(SchemeName, bits, minShares, minShares)
}

// Deal generates a key of at least bits bits split into shares, any
// threshold of which decrypt. scheme names the key in its fingerprint.
func Deal(scheme string, bits int, shares, threshold uint8) (*PrivateKey, error) {
	if bits < ahe.MinKeyBits {
		return nil, errors.Wrapf(ahe.ErrKeyGeneration, "%d bit modulus below minimum %d", bits, ahe.MinKeyBits)
	}
	var (
		keyShares []*tcpaillier.KeyShare
		pk        *tcpaillier.PubKey
		err       error
	)
	// the dealer may return a modulus a bit short; deal again asking for more
	for attempt := 0; ; attempt++ {
		keyShares, pk, err = tcpaillier.NewKey(bits+attempt, 1, shares, threshold)
		if err != nil {
			return nil, errors.Wrapf(ahe.ErrKeyGeneration, "tcpaillier: %v", err)
		}
		if pk.N.BitLen() >= bits {
			break
		}
		if attempt == maxDeals-1 {
			return nil, errors.Wrapf(ahe.ErrKeyGeneration, "no %d bit modulus after %d deals", bits, maxDeals)
		}
	}
	if len(keyShares) != int(shares) {
		return nil, errors.Wrapf(ahe.ErrKeyGeneration, "expected %d key shares, got %d", shares, len(keyShares))
	}
	pub := &PublicKey{
		pk: pk,
		nn: new(big.Int).Mul(pk.N, pk.N),
		fp: ahe.NewFingerprint(scheme, pk.N),
	}
	return &PrivateKey{PublicKey: pub, shares: keyShares, threshold: int(threshold)}, nil
}

func (pk *PublicKey) N() *big.Int {
	return new(big.Int).Set(pk.pk.N)
}

func (pk *PublicKey) Fingerprint() ahe.Fingerprint {
	return pk.fp
}

// Encrypt encrypts m mod N with fresh randomness.
func (pk *PublicKey) Encrypt(m *big.Int) (*ahe.Ciphertext, error) {
	c, _, err := pk.pk.Encrypt(ahe.Reduce(m, pk.pk.N))
	if err != nil {
		return nil, errors.Wrap(err, "tcpaillier encrypt")
	}
	return ahe.NewCiphertext(c, pk.fp), nil
}

func (pk *PublicKey) Add(a, b *ahe.Ciphertext) (*ahe.Ciphertext, error) {
	av, err := ahe.Operand(pk.fp, a)
	if err != nil {
		return nil, err
	}
	bv, err := ahe.Operand(pk.fp, b)
	if err != nil {
		return nil, err
	}
	sum, err := pk.pk.Add(av, bv)
	if err != nil {
		return nil, errors.Wrap(err, "tcpaillier add")
	}
	return ahe.NewCiphertext(sum, pk.fp), nil
}

// MultiplyScalar raises c to k mod N.
func (pk *PublicKey) MultiplyScalar(c *ahe.Ciphertext, k *big.Int) (*ahe.Ciphertext, error) {
	cv, err := ahe.Operand(pk.fp, c)
	if err != nil {
		return nil, err
	}
	product, _, err := pk.pk.Multiply(cv, ahe.Reduce(k, pk.pk.N))
	if err != nil {
		return nil, errors.Wrap(err, "tcpaillier multiply")
	}
	return ahe.NewCiphertext(product, pk.fp), nil
}

func (pk *PublicKey) AddPlain(c *ahe.Ciphertext, k *big.Int) (*ahe.Ciphertext, error) {
	ck, err := pk.Encrypt(k)
	if err != nil {
		return nil, err
	}
	return pk.Add(c, ck)
}

func (sk *PrivateKey) Public() ahe.PublicKey {
	return sk.PublicKey
}

// Shares is the number of key shares held.
func (sk *PrivateKey) Shares() int {
	return len(sk.shares)
}

// Threshold is the number of shares a decryption combines.
func (sk *PrivateKey) Threshold() int {
	return sk.threshold
}

// Decrypt partially decrypts c with threshold shares and combines the
// results into the signed plaintext.
func (sk *PrivateKey) Decrypt(c *ahe.Ciphertext) (*big.Int, error) {
	if len(sk.shares) < sk.threshold || sk.threshold == 0 {
		return nil, errors.Wrap(ahe.ErrDecryption, "key has been zeroized")
	}
	if c == nil {
		return nil, errors.Wrap(ahe.ErrDecryption, "nil ciphertext")
	}
	if c.Key() != sk.fp {
		return nil, errors.Wrapf(ahe.ErrDecryption, "ciphertext under key %v, decrypting with %v", c.Key(), sk.fp)
	}
	cv := c.Value()
	if cv.Sign() <= 0 || cv.Cmp(sk.nn) >= 0 {
		return nil, errors.Wrap(ahe.ErrDecryption, "ciphertext out of range")
	}
	if new(big.Int).GCD(nil, nil, cv, sk.pk.N).Cmp(one) != 0 {
		return nil, errors.Wrap(ahe.ErrDecryption, "ciphertext not invertible mod N^2")
	}
	parts := make([]*tcpaillier.DecryptionShare, sk.threshold)
	for i, share := range sk.shares[:sk.threshold] {
		part, err := share.PartialDecrypt(cv)
		if err != nil {
			return nil, errors.Wrapf(ahe.ErrDecryption, "partial decryption %d: %v", i, err)
		}
		parts[i] = part
	}
	m, err := sk.pk.CombineShares(parts...)
	if err != nil {
		return nil, errors.Wrapf(ahe.ErrDecryption, "combine shares: %v", err)
	}
	return ahe.Signed(ahe.Reduce(m, sk.pk.N), sk.pk.N), nil
}

// Zeroize drops the key shares. tcpaillier keeps the share values in
// unexported fields, so they are released rather than overwritten.
func (sk *PrivateKey) Zeroize() {
	for i := range sk.shares {
		sk.shares[i] = nil
	}
	sk.shares = nil
}
