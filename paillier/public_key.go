// Package paillier implements the Paillier additively homomorphic
// cryptosystem with generator g = n+1.
package paillier

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"
)

var one = big.NewInt(1)

// PublicKey is a Paillier public key. A PublicKey can be shared by several
// goroutines as long as its RandSource is safe for concurrent use. Keys
// built as a literal compute their cached values once, on first use.
type PublicKey struct {
	N          *big.Int
	RandSource io.Reader
	cacheOnce  sync.Once
	cached     *Cached
}

// Cached holds values derived from N that every operation needs.
type Cached struct {
	G, NSquared, NMinusOne, HalfN *big.Int
}

// NewPublicKey returns the public key with modulus n. Randomness comes
// from crypto/rand.
func NewPublicKey(n *big.Int) *PublicKey {
	pk := &PublicKey{
		N:          new(big.Int).Set(n),
		RandSource: rand.Reader,
	}
	pk.cached = newCached(pk.N)
	return pk
}

func newCached(n *big.Int) *Cached {
	return &Cached{
		G:         new(big.Int).Add(n, one),
		NSquared:  new(big.Int).Mul(n, n),
		NMinusOne: new(big.Int).Sub(n, one),
		HalfN:     new(big.Int).Rsh(n, 1),
	}
}

// Cache returns the values derived from N.
func (pk *PublicKey) Cache() *Cached {
	pk.cacheOnce.Do(func() {
		if pk.cached == nil {
			pk.cached = newCached(pk.N)
		}
	})
	return pk.cached
}

// WithRandSource returns a copy of pk that draws its randomness from r.
// The copy is compatible with pk.
func (pk *PublicKey) WithRandSource(r io.Reader) *PublicKey {
	return &PublicKey{
		N:          pk.N,
		RandSource: r,
		cached:     pk.Cache(),
	}
}

// BitLen returns the bit length of the modulus.
func (pk *PublicKey) BitLen() int {
	return pk.N.BitLen()
}

// Compatible reports whether pk and other share the same modulus.
func (pk *PublicKey) Compatible(other *PublicKey) bool {
	if pk == nil || other == nil {
		return false
	}
	return pk == other || pk.N.Cmp(other.N) == 0
}

// encode maps a signed plaintext -N < m < N to its representative in [0, N).
func (pk *PublicKey) encode(m *big.Int) (*big.Int, error) {
	if m.Cmp(pk.N) >= 0 {
		return nil, fmt.Errorf("%w: plaintext must be smaller than N", ErrInvalidArgument)
	}
	if m.Sign() >= 0 {
		return new(big.Int).Set(m), nil
	}
	encoded := new(big.Int).Add(pk.N, m)
	if encoded.Sign() <= 0 {
		return nil, fmt.Errorf("%w: plaintext must be greater than -N", ErrInvalidArgument)
	}
	return encoded, nil
}

// Encrypt encrypts m with a fresh random nonce. m may be negative as long
// as -N < m < N.
func (pk *PublicKey) Encrypt(m *big.Int) (*EncryptedNumber, error) {
	r, err := pk.randomModNStar()
	if err != nil {
		return nil, err
	}
	return pk.EncryptFixed(m, r)
}

// EncryptInt is Encrypt for small plaintexts.
func (pk *PublicKey) EncryptInt(m int64) (*EncryptedNumber, error) {
	return pk.Encrypt(big.NewInt(m))
}

// EncryptFixed encrypts m using r as nonce. r must be a unit in [1, N).
func (pk *PublicKey) EncryptFixed(m, r *big.Int) (*EncryptedNumber, error) {
	encoded, err := pk.encode(m)
	if err != nil {
		return nil, err
	}
	if r.Sign() <= 0 || r.Cmp(pk.N) >= 0 {
		return nil, fmt.Errorf("%w: nonce must be between 1 (inclusive) and N (exclusive)", ErrInvalidArgument)
	}
	if new(big.Int).GCD(nil, nil, r, pk.N).Cmp(one) != 0 {
		return nil, fmt.Errorf("%w: nonce must be coprime with N", ErrInvalidArgument)
	}
	cache := pk.Cache()
	nSquared := cache.NSquared
	gToM := new(big.Int).Exp(cache.G, encoded, nSquared)
	rToN := new(big.Int).Exp(r, pk.N, nSquared)
	c := gToM.Mul(gToM, rToN)
	c.Mod(c, nSquared)
	return &EncryptedNumber{pk: pk, c: c}, nil
}

// NewEncryptedNumber wraps a raw ciphertext produced under pk.
func (pk *PublicKey) NewEncryptedNumber(c *big.Int) (*EncryptedNumber, error) {
	if err := pk.checkCiphertext(c, 0); err != nil {
		return nil, err
	}
	return &EncryptedNumber{pk: pk, c: new(big.Int).Set(c)}, nil
}

func (pk *PublicKey) checkCiphertext(c *big.Int, i int) error {
	if c == nil || c.Sign() < 0 || c.Cmp(pk.Cache().NSquared) >= 0 {
		return fmt.Errorf("%w: c%d must be between 0 (inclusive) and N^2 (exclusive)", ErrInvalidArgument, i+1)
	}
	return nil
}

// Add returns the product of the ciphertexts mod N^2, which decrypts to the
// sum of their plaintexts.
func (pk *PublicKey) Add(cList ...*big.Int) (sum *big.Int, err error) {
	nSquared := pk.Cache().NSquared
	sum = big.NewInt(1)
	for i, ci := range cList {
		if err = pk.checkCiphertext(ci, i); err != nil {
			return nil, err
		}
		sum.Mul(sum, ci)
		sum.Mod(sum, nSquared)
	}
	return
}

// AddPlain returns c·g^p mod N^2, which decrypts to plaintext(c)+p.
func (pk *PublicKey) AddPlain(c, p *big.Int) (sum *big.Int, err error) {
	if err = pk.checkCiphertext(c, 0); err != nil {
		return
	}
	cache := pk.Cache()
	exp := new(big.Int).Mod(p, pk.N)
	gToP := new(big.Int).Exp(cache.G, exp, cache.NSquared)
	sum = gToP.Mul(gToP, c)
	sum.Mod(sum, cache.NSquared)
	return
}

// Multiply returns c^k mod N^2, which decrypts to k·plaintext(c). k may be
// negative, in which case the modular inverse of c is raised to -k.
func (pk *PublicKey) Multiply(c, k *big.Int) (mul *big.Int, err error) {
	if err = pk.checkCiphertext(c, 0); err != nil {
		return
	}
	nSquared := pk.Cache().NSquared
	base := c
	exp := k
	if k.Sign() < 0 {
		base = new(big.Int).ModInverse(c, nSquared)
		if base == nil {
			err = fmt.Errorf("%w: ciphertext has no inverse mod N^2", ErrArithmetic)
			return
		}
		exp = new(big.Int).Neg(k)
	}
	mul = new(big.Int).Exp(base, exp, nSquared)
	return
}

func (pk *PublicKey) randomModNStar() (r *big.Int, err error) {
	source := pk.RandSource
	if source == nil {
		source = rand.Reader
	}
	nMinusOne := pk.Cache().NMinusOne
	for {
		r, err = rand.Int(source, nMinusOne)
		if err != nil {
			return
		}
		r.Add(r, one)
		if new(big.Int).GCD(nil, nil, r, pk.N).Cmp(one) == 0 {
			return
		}
	}
}
