package psm

import (
	"math/big"
	"time"

	"github.com/ontanj/psm/ahe"
)

// EncryptedPower is Enc(c^Index) under the client's key.
type EncryptedPower struct {
	Index      int
	Ciphertext *ahe.Ciphertext
}

// ClientMessage carries the client's public key and the encrypted powers
// c^0 ... c^SetSize of its query.
type ClientMessage struct {
	publicKey ahe.PublicKey
	powers    []EncryptedPower
	setSize   int
}

// NewClientMessage assembles a client message, for instance one decoded from
// a transport. The powers slice is copied.
func NewClientMessage(pk ahe.PublicKey, powers []EncryptedPower, setSize int) *ClientMessage {
	return &ClientMessage{
		publicKey: pk,
		powers:    append([]EncryptedPower(nil), powers...),
		setSize:   setSize,
	}
}

func (m *ClientMessage) PublicKey() ahe.PublicKey { return m.publicKey }
func (m *ClientMessage) SetSize() int             { return m.setSize }

// Powers returns a copy of the encrypted powers. Ciphertexts are immutable
// and shared.
func (m *ClientMessage) Powers() []EncryptedPower {
	return append([]EncryptedPower(nil), m.powers...)
}

// ServerMessage carries Enc(r * P(c)) back to the client.
type ServerMessage struct {
	blindedResult *ahe.Ciphertext
}

func NewServerMessage(blinded *ahe.Ciphertext) *ServerMessage {
	return &ServerMessage{blindedResult: blinded}
}

func (m *ServerMessage) BlindedResult() *ahe.Ciphertext { return m.blindedResult }

// Result is the outcome of one membership test.
type Result struct {
	Query       *big.Int
	IsMember    bool
	DatasetSize int
	Elapsed     time.Duration
}

// Timings breaks a run down by step.
type Timings struct {
	KeyGeneration     time.Duration
	ClientEncryption  time.Duration
	ServerComputation time.Duration
	ClientDecryption  time.Duration
	Total             time.Duration
}
