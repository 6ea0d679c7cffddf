package compare

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/niclabs/tmpsi/paillier"
)

// BlindingScale is the factor applied to a difference before it is masked
// with a random sign.
const BlindingScale = 2

// Initiator runs SEP and SCP against a Helper. An Initiator is not safe for
// concurrent use unless its random source is; use WithRandSource to give
// each goroutine its own.
type Initiator struct {
	pk         *paillier.PublicKey
	helper     Helper
	randSource io.Reader
}

// NewInitiator returns an Initiator working under pk. Blinding signs come
// from crypto/rand and encryption nonces from pk.RandSource.
func NewInitiator(pk *paillier.PublicKey, helper Helper) *Initiator {
	return &Initiator{
		pk:         pk,
		helper:     helper,
		randSource: rand.Reader,
	}
}

// WithRandSource returns a copy of in that takes blinding signs and
// encryption nonces from r.
func (in *Initiator) WithRandSource(r io.Reader) *Initiator {
	return &Initiator{
		pk:         in.pk.WithRandSource(r),
		helper:     in.helper,
		randSource: r,
	}
}

// PublicKey returns the key the initiator encrypts under.
func (in *Initiator) PublicKey() *paillier.PublicKey {
	return in.pk
}

// Equal runs SEP on x and y. The result decrypts to 2 if x and y hold the
// same plaintext and to 0 otherwise. It costs two helper queries.
func (in *Initiator) Equal(x, y *paillier.EncryptedNumber) (*paillier.EncryptedNumber, error) {
	if err := in.checkKey(x, y); err != nil {
		return nil, err
	}
	xy, err := x.Sub(y)
	if err != nil {
		return nil, fmt.Errorf("compare: equal: %w", err)
	}
	yx, err := y.Sub(x)
	if err != nil {
		return nil, fmt.Errorf("compare: equal: %w", err)
	}
	c, err := in.nonPositive(xy)
	if err != nil {
		return nil, fmt.Errorf("compare: equal: %w", err)
	}
	d, err := in.nonPositive(yx)
	if err != nil {
		return nil, fmt.Errorf("compare: equal: %w", err)
	}
	return c.Add(d)
}

// LessThan runs SCP on x and the public threshold t. The result decrypts to
// 1 if x < t and to -1 otherwise. It costs one helper query.
func (in *Initiator) LessThan(x *paillier.EncryptedNumber, t *big.Int) (*paillier.EncryptedNumber, error) {
	if err := in.checkKey(x); err != nil {
		return nil, err
	}
	encT, err := in.pk.Encrypt(t)
	if err != nil {
		return nil, fmt.Errorf("compare: less than: %w", err)
	}
	diff, err := encT.Sub(x)
	if err != nil {
		return nil, fmt.Errorf("compare: less than: %w", err)
	}
	positive, err := in.isPositive(diff)
	if err != nil {
		return nil, fmt.Errorf("compare: less than: %w", err)
	}
	return in.encryptSign(positive)
}

// LessOrEqual is LessThan(x, t+1).
func (in *Initiator) LessOrEqual(x *paillier.EncryptedNumber, t *big.Int) (*paillier.EncryptedNumber, error) {
	return in.LessThan(x, new(big.Int).Add(t, big.NewInt(1)))
}

func (in *Initiator) checkKey(values ...*paillier.EncryptedNumber) error {
	for _, v := range values {
		if v == nil {
			return fmt.Errorf("%w: nil ciphertext", paillier.ErrInvalidArgument)
		}
		if !in.pk.Compatible(v.PublicKey()) {
			return fmt.Errorf("%w: operand was not produced under the initiator key", paillier.ErrIncompatibleKey)
		}
	}
	return nil
}

// nonPositive returns an encryption of 1 if d <= 0 and of -1 otherwise.
func (in *Initiator) nonPositive(d *paillier.EncryptedNumber) (*paillier.EncryptedNumber, error) {
	positive, err := in.isPositive(d)
	if err != nil {
		return nil, err
	}
	return in.encryptSign(!positive)
}

// isPositive asks the helper about s·(BlindingScale·d - 1) for a random sign
// s. The blinded value is odd, so it is never zero, and its sign matches
// d > 0 up to s.
func (in *Initiator) isPositive(d *paillier.EncryptedNumber) (bool, error) {
	s, err := in.randomSign()
	if err != nil {
		return false, err
	}
	scaled, err := d.MulInt(BlindingScale * s)
	if err != nil {
		return false, err
	}
	blinded, err := scaled.AddPlain(big.NewInt(-s))
	if err != nil {
		return false, err
	}
	positive, err := in.helper.IsPositive(blinded)
	if err != nil {
		return false, err
	}
	if s < 0 {
		positive = !positive
	}
	return positive, nil
}

func (in *Initiator) encryptSign(plus bool) (*paillier.EncryptedNumber, error) {
	if plus {
		return in.pk.EncryptInt(1)
	}
	return in.pk.EncryptInt(-1)
}

func (in *Initiator) randomSign() (int64, error) {
	var b [1]byte
	if _, err := io.ReadFull(in.randSource, b[:]); err != nil {
		return 0, fmt.Errorf("compare: drawing blinding sign: %w", err)
	}
	if b[0]&1 == 1 {
		return -1, nil
	}
	return 1, nil
}
