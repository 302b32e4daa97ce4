package paillier

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontanj/psm/ahe"
)

const testBits = 512

func newTestKey(t *testing.T) *PrivateKey {
	t.Helper()
	sk, err := GenerateKey(testBits)
	require.NoError(t, err)
	return sk
}

func TestGenerateKey(t *testing.T) {
	sk := newTestKey(t)
	assert.GreaterOrEqual(t, sk.N().BitLen(), testBits)
	assert.Equal(t, minShares, sk.Shares())
	assert.Equal(t, minShares, sk.Threshold())

	t.Run("below floor", func(t *testing.T) {
		_, err := GenerateKey(256)
		assert.True(t, errors.Is(err, ahe.ErrKeyGeneration))

		_, _, err = Scheme{}.GenerateKey(nil, ahe.MinKeyBits-1)
		assert.True(t, errors.Is(err, ahe.ErrKeyGeneration))
	})

	t.Run("fingerprint names the scheme", func(t *testing.T) {
		other, err := Deal("other", testBits, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, ahe.NewFingerprint("other", other.N()), other.Fingerprint())
		assert.Equal(t, ahe.NewFingerprint(SchemeName, sk.N()), sk.Fingerprint())
	})
}

func TestEncryptDecrypt(t *testing.T) {
	sk := newTestKey(t)
	n := sk.N()
	half := new(big.Int).Rsh(n, 1)
	plaintexts := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-1),
		big.NewInt(42),
		big.NewInt(-123456789),
		new(big.Int).Lsh(big.NewInt(1), 200),
		new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 300)),
		new(big.Int).Sub(half, big.NewInt(1)),
	}
	for _, m := range plaintexts {
		c, err := sk.Encrypt(m)
		require.NoError(t, err)
		got, err := sk.Decrypt(c)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Cmp(got), "expected %v, got %v", m, got)
	}

	t.Run("wraps mod n", func(t *testing.T) {
		m := new(big.Int).Add(n, big.NewInt(5))
		c, err := sk.Encrypt(m)
		require.NoError(t, err)
		got, err := sk.Decrypt(c)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Int64())
	})
}

func TestEncryptionIsProbabilistic(t *testing.T) {
	sk := newTestKey(t)
	m := big.NewInt(7)
	a, err := sk.Encrypt(m)
	require.NoError(t, err)
	b, err := sk.Encrypt(m)
	require.NoError(t, err)
	assert.False(t, a.Equal(b), "two encryptions of the same plaintext collided")
	assert.NotEqual(t, 0, m.Cmp(a.Value()), "plaintext didn't encrypt")
}

func TestHomomorphism(t *testing.T) {
	sk := newTestKey(t)
	pk := sk.PublicKey
	big1 := new(big.Int).Lsh(big.NewInt(1), 100)
	pairs := [][2]*big.Int{
		{big.NewInt(3), big.NewInt(5)},
		{big.NewInt(-3), big.NewInt(5)},
		{big.NewInt(-30), big.NewInt(-12)},
		{big1, new(big.Int).Neg(big1)},
		{big1, big.NewInt(17)},
	}
	for _, ab := range pairs {
		a, b := ab[0], ab[1]
		ca, err := pk.Encrypt(a)
		require.NoError(t, err)
		cb, err := pk.Encrypt(b)
		require.NoError(t, err)

		sum, err := pk.Add(ca, cb)
		require.NoError(t, err)
		got, err := sk.Decrypt(sum)
		require.NoError(t, err)
		want := new(big.Int).Add(a, b)
		assert.Equal(t, 0, want.Cmp(got), "%v + %v: got %v", a, b, got)

		prod, err := pk.MultiplyScalar(ca, b)
		require.NoError(t, err)
		got, err = sk.Decrypt(prod)
		require.NoError(t, err)
		want = new(big.Int).Mul(a, b)
		assert.Equal(t, 0, want.Cmp(got), "%v * %v: got %v", a, b, got)

		plain, err := pk.AddPlain(ca, b)
		require.NoError(t, err)
		got, err = sk.Decrypt(plain)
		require.NoError(t, err)
		want = new(big.Int).Add(a, b)
		assert.Equal(t, 0, want.Cmp(got), "%v +plain %v: got %v", a, b, got)
	}

	t.Run("scalar above n", func(t *testing.T) {
		ca, err := pk.Encrypt(big.NewInt(4))
		require.NoError(t, err)
		k := new(big.Int).Add(pk.N(), big.NewInt(3))
		prod, err := pk.MultiplyScalar(ca, k)
		require.NoError(t, err)
		got, err := sk.Decrypt(prod)
		require.NoError(t, err)
		assert.Equal(t, int64(12), got.Int64())
	})

	t.Run("scalar zero", func(t *testing.T) {
		ca, err := pk.Encrypt(big.NewInt(4))
		require.NoError(t, err)
		prod, err := pk.MultiplyScalar(ca, big.NewInt(0))
		require.NoError(t, err)
		got, err := sk.Decrypt(prod)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Sign())
	})
}

func TestKeyMismatch(t *testing.T) {
	sk1 := newTestKey(t)
	sk2 := newTestKey(t)
	c1, err := sk1.Encrypt(big.NewInt(1))
	require.NoError(t, err)
	c2, err := sk2.Encrypt(big.NewInt(2))
	require.NoError(t, err)

	_, err = sk1.Add(c1, c2)
	assert.True(t, errors.Is(err, ahe.ErrKeyMismatch))
	_, err = sk1.MultiplyScalar(c2, big.NewInt(3))
	assert.True(t, errors.Is(err, ahe.ErrKeyMismatch))

	_, err = sk1.Decrypt(c2)
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
}

func TestDecryptRejectsMalformed(t *testing.T) {
	sk := newTestKey(t)
	nn := new(big.Int).Mul(sk.N(), sk.N())

	_, err := sk.Decrypt(ahe.NewCiphertext(big.NewInt(0), sk.Fingerprint()))
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
	_, err = sk.Decrypt(ahe.NewCiphertext(nn, sk.Fingerprint()))
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
	_, err = sk.Decrypt(ahe.NewCiphertext(new(big.Int).Mul(sk.N(), big.NewInt(2)), sk.Fingerprint()))
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
	_, err = sk.Decrypt(nil)
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
}

func TestZeroize(t *testing.T) {
	sk := newTestKey(t)
	c, err := sk.Encrypt(big.NewInt(1))
	require.NoError(t, err)
	sk.Zeroize()
	_, err = sk.Decrypt(c)
	assert.True(t, errors.Is(err, ahe.ErrDecryption))
}
