// Package compare implements the two-party secure comparison protocols used
// by tmpsi rounds: SEP, an encrypted equality test, and SCP, an encrypted
// threshold comparison.
//
// Both are played between an Initiator, which holds ciphertexts but no
// private key, and a Helper, which holds the private key and only ever sees
// blinded values. The Helper answers one question per blinded value: is it
// positive. Results stay encrypted; whoever holds the private key decides
// when to open them.
package compare

import (
	"fmt"
	"sync/atomic"

	"github.com/niclabs/tmpsi/paillier"
)

// Helper reveals the sign of a blinded ciphertext.
type Helper interface {
	// IsPositive reports whether c decrypts to a strictly positive signed
	// plaintext.
	IsPositive(c *paillier.EncryptedNumber) (bool, error)
}

// KeyHolder is a Helper backed by a private key. It is safe for concurrent
// use.
type KeyHolder struct {
	sk      *paillier.PrivateKey
	queries atomic.Uint64
}

// NewKeyHolder returns a Helper that decrypts with sk.
func NewKeyHolder(sk *paillier.PrivateKey) *KeyHolder {
	return &KeyHolder{sk: sk}
}

// IsPositive implements Helper. Ciphertexts produced under another key are
// rejected with paillier.ErrIncompatibleKey.
func (h *KeyHolder) IsPositive(c *paillier.EncryptedNumber) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("%w: nil ciphertext", paillier.ErrInvalidArgument)
	}
	m, err := h.sk.DecryptSigned(c)
	if err != nil {
		return false, fmt.Errorf("compare: helper: %w", err)
	}
	h.queries.Add(1)
	return m.Sign() > 0, nil
}

// Queries returns how many blinded values the key holder has answered.
func (h *KeyHolder) Queries() uint64 {
	return h.queries.Load()
}

// PublicKey returns the public half of the key holder's key.
func (h *KeyHolder) PublicKey() *paillier.PublicKey {
	return h.sk.PublicKey
}
