package psm

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ontanj/psm/poly"
)

// BlindingBits is the size of the blinding factor's range [1, 2^BlindingBits).
const BlindingBits = 128

var blindingBound = new(big.Int).Lsh(big.NewInt(1), BlindingBits)

// Server holds a dataset and its membership polynomial. The polynomial is
// computed once and only read afterwards, so one Server answers any number
// of concurrent queries.
type Server struct {
	dataset Dataset
	coeffs  []*big.Int
	setting setting
}

// NewServer deduplicates values and expands their membership polynomial.
func NewServer(values []*big.Int, opts ...Option) *Server {
	dataset := NewDataset(values)
	s := &Server{
		dataset: dataset,
		coeffs:  poly.Expand(dataset.elements),
		setting: newSetting(opts),
	}
	s.setting.log.Debug("server ready", zap.Int("set_size", dataset.Size()))
	return s
}

// Size is the number of distinct elements.
func (s *Server) Size() int {
	return s.dataset.Size()
}

// Coefficients returns a copy of the polynomial, lowest degree first. It
// reveals the dataset and is meant for debugging.
func (s *Server) Coefficients() []*big.Int {
	return copyInts(s.coeffs)
}

// sample r uniformly from [1, 2^BlindingBits)
func (s *Server) sampleBlinding() (*big.Int, error) {
	for {
		r, err := rand.Int(s.setting.random, blindingBound)
		if err != nil {
			return nil, err
		}
		if r.Sign() != 0 {
			return r, nil
		}
	}
}

// ProcessQuery evaluates the polynomial at the client's encrypted query and
// returns the result multiplied by a fresh random factor.
func (s *Server) ProcessQuery(msg *ClientMessage) (*ServerMessage, error) {
	if msg == nil {
		return nil, errors.Wrap(ErrMalformedMessage, "nil client message")
	}
	if msg.setSize != s.Size() {
		return nil, errors.Wrapf(ErrSetSizeMismatch, "client expects %d, server has %d", msg.setSize, s.Size())
	}
	if len(msg.powers) != msg.setSize+1 {
		return nil, errors.Wrapf(ErrMalformedMessage, "%d powers for set size %d", len(msg.powers), msg.setSize)
	}
	pk := msg.publicKey
	if pk == nil {
		return nil, errors.Wrap(ErrMalformedMessage, "missing public key")
	}
	for i, p := range msg.powers {
		if p.Ciphertext == nil {
			return nil, errors.Wrapf(ErrMalformedMessage, "power %d missing", i)
		}
		if p.Index != i {
			return nil, errors.Wrapf(ErrMalformedMessage, "power at position %d has index %d", i, p.Index)
		}
	}

	// P(c) = a_0 + sum a_i * c^i
	result, err := pk.Encrypt(s.coeffs[0])
	if err != nil {
		return nil, errors.Wrap(err, "encrypt constant term")
	}
	for i := 1; i < len(s.coeffs); i++ {
		a := s.coeffs[i]
		if a.Sign() == 0 {
			continue
		}
		term, err := pk.MultiplyScalar(msg.powers[i].Ciphertext, a)
		if err != nil {
			return nil, errors.Wrapf(err, "term %d", i)
		}
		if result, err = pk.Add(result, term); err != nil {
			return nil, errors.Wrapf(err, "term %d", i)
		}
	}

	r, err := s.sampleBlinding()
	if err != nil {
		return nil, errors.Wrap(err, "sample blinding factor")
	}
	blinded, err := pk.MultiplyScalar(result, r)
	if err != nil {
		return nil, errors.Wrap(err, "blind result")
	}
	s.setting.log.Debug("query processed",
		zap.Int("set_size", s.Size()),
		zap.Stringer("key", pk.Fingerprint()))
	return NewServerMessage(blinded), nil
}
