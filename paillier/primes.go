package paillier

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// RandomInt returns a uniformly random integer of at most bitLen bits,
// drawn from randSource (crypto/rand if nil).
func RandomInt(bitLen int, randSource io.Reader) (*big.Int, error) {
	if randSource == nil {
		randSource = rand.Reader
	}
	max := new(big.Int)
	max.SetBit(max, bitLen, 1)
	return rand.Int(randSource, max)
}

// generatePrimePair draws primes of bitLen bits until it finds a pair that
// passes suitablePair, trying at most attempts times.
func generatePrimePair(bitLen int, randSource io.Reader, attempts int) (p, q *big.Int, err error) {
	for i := 0; i < attempts; i++ {
		if p, err = rand.Prime(randSource, bitLen); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		if q, err = rand.Prime(randSource, bitLen); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		if suitablePair(p, q) {
			return p, q, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: no suitable prime pair of %d bits after %d attempts", ErrKeyGeneration, bitLen, attempts)
}
