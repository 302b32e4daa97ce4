package psm

import (
	"crypto/rand"
	"io"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ontanj/psm/ahe"
	"github.com/ontanj/psm/ahe/dj"
	"github.com/ontanj/psm/ahe/paillier"
)

// setting is shared by servers, clients and protocols; each reads the fields
// it needs.
type setting struct {
	securityBits int
	scheme       ahe.Scheme
	workers      int
	random       io.Reader
	log          *zap.Logger
}

// Option configures a Protocol, Server or Client.
type Option func(*setting)

func newSetting(opts []Option) setting {
	s := setting{
		securityBits: ahe.RecommendedKeyBits,
		scheme:       paillier.Scheme{},
		random:       rand.Reader,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.random != rand.Reader {
		s.random = &lockedReader{r: s.random}
	}
	return s
}

// WithSecurityBits sets the modulus size of the keys a Protocol generates.
func WithSecurityBits(bits int) Option {
	return func(s *setting) { s.securityBits = bits }
}

// WithScheme selects the cryptosystem clients generate keys for.
func WithScheme(scheme ahe.Scheme) Option {
	return func(s *setting) {
		if scheme != nil {
			s.scheme = scheme
		}
	}
}

// WithWorkers bounds the number of queries a batch runs at once. Zero or
// less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *setting) { s.workers = n }
}

// WithRandom sets the source of blinding factors. Runs of one Protocol or
// Server share it, so reads are serialized.
func WithRandom(random io.Reader) Option {
	return func(s *setting) {
		if random != nil {
			s.random = random
		}
	}
}

// lockedReader serializes reads from a reader that may not be safe for
// concurrent use.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

func WithLogger(log *zap.Logger) Option {
	return func(s *setting) {
		if log != nil {
			s.log = log
		}
	}
}

func (s setting) concurrency() int {
	if s.workers > 0 {
		return s.workers
	}
	return runtime.GOMAXPROCS(0)
}

// SchemeByName returns the cryptosystem registered under name.
func SchemeByName(name string) (ahe.Scheme, error) {
	switch name {
	case "", paillier.SchemeName:
		return paillier.Scheme{}, nil
	case dj.SchemeName:
		return dj.Scheme{}, nil
	}
	return nil, errors.Wrapf(ErrUnknownScheme, "%q", name)
}

// Schemes lists the registered scheme names.
func Schemes() []string {
	return []string{paillier.SchemeName, dj.SchemeName}
}
