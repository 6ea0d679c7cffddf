package paillier

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Miller-Rabin rounds used to validate externally supplied primes.
const primalityRounds = 25

// MaxKeyGenAttempts bounds the number of prime pairs GenerateKeyPair draws
// before giving up.
const MaxKeyGenAttempts = 64

// KeyPair owns a public key and the private key generated with it.
type KeyPair struct {
	PublicKey  *PublicKey
	PrivateKey *PrivateKey
}

// FixedParams are the primes of a key built by NewFixedKey.
type FixedParams struct {
	P, Q *big.Int
}

// Validate checks that P and Q are distinct primes of the same bit length
// and that gcd((P-1)(Q-1), PQ) = 1.
func (fp *FixedParams) Validate() bool {
	if fp.P == nil || fp.Q == nil {
		return false
	}
	return fp.P.ProbablyPrime(primalityRounds) &&
		fp.Q.ProbablyPrime(primalityRounds) &&
		fp.P.BitLen() == fp.Q.BitLen() &&
		suitablePair(fp.P, fp.Q)
}

func (fp *FixedParams) String() string {
	return fmt.Sprintf("P: %s\nQ: %s\n", fp.P, fp.Q)
}

// suitablePair reports whether p != q and gcd((p-1)(q-1), pq) = 1.
func suitablePair(p, q *big.Int) bool {
	if p.Cmp(q) == 0 {
		return false
	}
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
	return new(big.Int).GCD(nil, nil, phi, n).Cmp(one) == 0
}

// NewFixedKey builds a key pair from the primes in params.
func NewFixedKey(params *FixedParams) (*KeyPair, error) {
	if !params.Validate() {
		return nil, fmt.Errorf("%w: fixed params are not a suitable prime pair", ErrKeyGeneration)
	}
	sk, err := NewPrivateKey(params.P, params.Q)
	if err != nil {
		return nil, err
	}
	return &KeyPair{PublicKey: sk.PublicKey, PrivateKey: sk}, nil
}

// GenerateKeyPair returns a key pair whose modulus has bitSize bits. It
// uses randSource to draw the primes, or crypto/rand if it is nil. The
// resulting public key draws encryption nonces from the same source.
func GenerateKeyPair(bitSize int, randSource io.Reader) (*KeyPair, error) {
	if bitSize < 64 {
		return nil, fmt.Errorf("%w: bitSize should be at least 64 bits, but it is %d", ErrInvalidArgument, bitSize)
	}
	if randSource == nil {
		randSource = rand.Reader
	}
	p, q, err := generatePrimePair(bitSize/2, randSource, MaxKeyGenAttempts)
	if err != nil {
		return nil, err
	}
	sk, err := NewPrivateKey(p, q)
	if err != nil {
		return nil, err
	}
	sk.PublicKey.RandSource = randSource
	return &KeyPair{PublicKey: sk.PublicKey, PrivateKey: sk}, nil
}
