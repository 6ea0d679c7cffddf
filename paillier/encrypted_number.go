package paillier

import (
	"fmt"
	"math/big"
)

// EncryptedNumber is a ciphertext bound to the public key it was produced
// under. It never exposes its plaintext: decryption needs the matching
// PrivateKey.
type EncryptedNumber struct {
	pk *PublicKey
	c  *big.Int
}

// PublicKey returns the key the value was encrypted under.
func (e *EncryptedNumber) PublicKey() *PublicKey {
	return e.pk
}

// Ciphertext returns a copy of the raw ciphertext.
func (e *EncryptedNumber) Ciphertext() *big.Int {
	return new(big.Int).Set(e.c)
}

// Equal reports whether both values carry the same ciphertext under
// compatible keys. Two encryptions of the same plaintext are almost never
// Equal.
func (e *EncryptedNumber) Equal(o *EncryptedNumber) bool {
	return e.pk.Compatible(o.pk) && e.c.Cmp(o.c) == 0
}

func (e *EncryptedNumber) checkKey(o *EncryptedNumber) error {
	if !e.pk.Compatible(o.pk) {
		return fmt.Errorf("%w: operands use moduli of %d and %d bits", ErrIncompatibleKey, e.pk.BitLen(), o.pk.BitLen())
	}
	return nil
}

// Add returns the encryption of plaintext(e) + plaintext(o).
func (e *EncryptedNumber) Add(o *EncryptedNumber) (*EncryptedNumber, error) {
	if err := e.checkKey(o); err != nil {
		return nil, err
	}
	sum, err := e.pk.Add(e.c, o.c)
	if err != nil {
		return nil, err
	}
	return &EncryptedNumber{pk: e.pk, c: sum}, nil
}

// Sub returns the encryption of plaintext(e) - plaintext(o).
func (e *EncryptedNumber) Sub(o *EncryptedNumber) (*EncryptedNumber, error) {
	if err := e.checkKey(o); err != nil {
		return nil, err
	}
	neg, err := o.Neg()
	if err != nil {
		return nil, err
	}
	return e.Add(neg)
}

// AddPlain returns the encryption of plaintext(e) + p.
func (e *EncryptedNumber) AddPlain(p *big.Int) (*EncryptedNumber, error) {
	sum, err := e.pk.AddPlain(e.c, p)
	if err != nil {
		return nil, err
	}
	return &EncryptedNumber{pk: e.pk, c: sum}, nil
}

// Mul returns the encryption of k · plaintext(e). k may be negative.
func (e *EncryptedNumber) Mul(k *big.Int) (*EncryptedNumber, error) {
	mul, err := e.pk.Multiply(e.c, k)
	if err != nil {
		return nil, err
	}
	return &EncryptedNumber{pk: e.pk, c: mul}, nil
}

// MulInt is Mul for small scalars.
func (e *EncryptedNumber) MulInt(k int64) (*EncryptedNumber, error) {
	return e.Mul(big.NewInt(k))
}

// Neg returns the encryption of -plaintext(e).
func (e *EncryptedNumber) Neg() (*EncryptedNumber, error) {
	return e.MulInt(-1)
}

// Sum adds all values together. It fails on an empty list or on the first
// key mismatch.
func Sum(values ...*EncryptedNumber) (*EncryptedNumber, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: nothing to sum", ErrInvalidArgument)
	}
	acc := values[0]
	for _, v := range values[1:] {
		var err error
		if acc, err = acc.Add(v); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
