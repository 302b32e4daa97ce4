package psm

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ontanj/psm/ahe"
	"github.com/ontanj/psm/internal/logger"
	"github.com/ontanj/psm/poly"
)

type clientState int

const (
	clientInit clientState = iota
	clientMessageCreated
	clientDecided
)

// Client owns a query and the key pair generated for it. A Client runs the
// protocol once: CreateMessage, then CheckMembership.
type Client struct {
	mu      sync.Mutex
	query   *big.Int
	setSize int
	pk      ahe.PublicKey
	sk      ahe.PrivateKey
	msg     *ClientMessage
	state   clientState
	log     *zap.Logger
}

// NewClient generates a fresh key pair of securityBits for one query against
// a dataset of setSize elements.
func NewClient(query *big.Int, setSize, securityBits int, opts ...Option) (*Client, error) {
	if query == nil {
		return nil, errors.Wrap(ErrMalformedMessage, "nil query")
	}
	if setSize < 0 {
		return nil, errors.Wrapf(ErrMalformedMessage, "negative set size %d", setSize)
	}
	s := newSetting(opts)
	pk, sk, err := s.scheme.GenerateKey(s.random, securityBits)
	if err != nil {
		return nil, err
	}
	return &Client{
		query:   new(big.Int).Set(query),
		setSize: setSize,
		pk:      pk,
		sk:      sk,
		log:     s.log,
	}, nil
}

func (c *Client) PublicKey() ahe.PublicKey {
	return c.pk
}

func (c *Client) String() string {
	return fmt.Sprintf("Client(query=***, set_size=%d, key_size=%d)", c.setSize, c.pk.N().BitLen())
}

// CreateMessage encrypts c^0 ... c^setSize. Later calls return the same
// message.
func (c *Client) CreateMessage() (*ClientMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == clientDecided {
		return nil, errors.Wrap(ErrProtocolState, "membership already decided")
	}
	if c.msg != nil {
		return c.msg, nil
	}
	powers := poly.Powers(c.query, c.setSize, c.pk.N())
	encrypted := make([]EncryptedPower, len(powers))
	for i, p := range powers {
		ct, err := c.pk.Encrypt(p)
		if err != nil {
			return nil, errors.Wrapf(err, "encrypt power %d", i)
		}
		encrypted[i] = EncryptedPower{Index: i, Ciphertext: ct}
	}
	c.msg = &ClientMessage{publicKey: c.pk, powers: encrypted, setSize: c.setSize}
	c.state = clientMessageCreated
	c.log.Debug("client message created",
		logger.Redacted("query"),
		zap.Int("set_size", c.setSize),
		zap.Stringer("key", c.pk.Fingerprint()))
	return c.msg, nil
}

// CheckMembership decrypts the server's answer. The query is a member iff
// the blinded value is zero. The client is spent after the first call; on
// failure its key is wiped.
func (c *Client) CheckMembership(msg *ServerMessage) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	// one attempt only, whatever its outcome
	c.state = clientDecided
	switch prev {
	case clientInit:
		c.sk.Zeroize()
		return false, errors.Wrap(ErrProtocolState, "no message created")
	case clientDecided:
		return false, errors.Wrap(ErrProtocolState, "membership already decided")
	}
	if msg == nil || msg.blindedResult == nil {
		c.sk.Zeroize()
		return false, errors.Wrap(ErrMalformedMessage, "missing blinded result")
	}
	v, err := c.sk.Decrypt(msg.blindedResult)
	if err != nil {
		c.sk.Zeroize()
		return false, err
	}
	return v.Sign() == 0, nil
}

// Close wipes the private key.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sk.Zeroize()
}
