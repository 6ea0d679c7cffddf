package paillier

import (
	"fmt"
	"math/big"
)

// PrivateKey is a Paillier private key bound to its PublicKey.
type PrivateKey struct {
	*PublicKey
	P, Q   *big.Int
	Lambda *big.Int
	Mu     *big.Int
}

// NewPrivateKey derives lambda = lcm(p-1, q-1) and
// mu = L(g^lambda mod n^2)^-1 mod n from the primes p and q.
func NewPrivateKey(p, q *big.Int) (*PrivateKey, error) {
	n := new(big.Int).Mul(p, q)
	pk := NewPublicKey(n)
	cache := pk.Cache()

	pMinusOne := new(big.Int).Sub(p, one)
	qMinusOne := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinusOne, qMinusOne)
	lambda := new(big.Int).Mul(pMinusOne, qMinusOne)
	lambda.Div(lambda, gcd)

	gToLambda := new(big.Int).Exp(cache.G, lambda, cache.NSquared)
	mu := new(big.Int).ModInverse(l(gToLambda, n), n)
	if mu == nil {
		return nil, fmt.Errorf("%w: L(g^lambda) has no inverse mod N", ErrArithmetic)
	}
	return &PrivateKey{
		PublicKey: pk,
		P:         new(big.Int).Set(p),
		Q:         new(big.Int).Set(q),
		Lambda:    lambda,
		Mu:        mu,
	}, nil
}

// l computes L(x) = (x-1)/n.
func l(x, n *big.Int) *big.Int {
	res := new(big.Int).Sub(x, one)
	return res.Div(res, n)
}

// Decrypt returns the plaintext of c in [0, N).
func (sk *PrivateKey) Decrypt(c *EncryptedNumber) (*big.Int, error) {
	if !sk.PublicKey.Compatible(c.pk) {
		return nil, fmt.Errorf("%w: ciphertext was not produced under this key", ErrIncompatibleKey)
	}
	return sk.DecryptRaw(c.c)
}

// DecryptRaw decrypts a raw ciphertext in [0, N^2).
func (sk *PrivateKey) DecryptRaw(c *big.Int) (*big.Int, error) {
	if err := sk.checkCiphertext(c, 0); err != nil {
		return nil, err
	}
	cache := sk.Cache()
	cToLambda := new(big.Int).Exp(c, sk.Lambda, cache.NSquared)
	m := l(cToLambda, sk.N)
	m.Mul(m, sk.Mu)
	m.Mod(m, sk.N)
	return m, nil
}

// DecryptSigned decrypts c and maps the result to (-N/2, N/2], undoing
// the encoding Encrypt applies to negative plaintexts.
func (sk *PrivateKey) DecryptSigned(c *EncryptedNumber) (*big.Int, error) {
	m, err := sk.Decrypt(c)
	if err != nil {
		return nil, err
	}
	if m.Cmp(sk.Cache().HalfN) > 0 {
		m.Sub(m, sk.N)
	}
	return m, nil
}
