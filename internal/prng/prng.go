// Package prng provides independently seeded random readers for workers
// that run protocol steps in parallel.
package prng

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the size of a reader seed.
const SeedSize = chacha20.KeySize

// Reader is a ChaCha20 keystream. It is not safe for concurrent use; give
// each goroutine its own.
type Reader struct {
	cipher *chacha20.Cipher
}

// New returns a Reader keyed by seed, which must be SeedSize bytes long.
func New(seed []byte) (*Reader, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("prng: seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	nonce := make([]byte, chacha20.NonceSize)
	cipher, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
	if err != nil {
		return nil, fmt.Errorf("prng: %w", err)
	}
	return &Reader{cipher: cipher}, nil
}

// NewFrom seeds a Reader with SeedSize bytes read from source, or from
// crypto/rand if source is nil.
func NewFrom(source io.Reader) (*Reader, error) {
	if source == nil {
		source = rand.Reader
	}
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(source, seed); err != nil {
		return nil, fmt.Errorf("prng: reading seed: %w", err)
	}
	return New(seed)
}

// Read fills b with keystream bytes. It never fails.
func (r *Reader) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 0
	}
	r.cipher.XORKeyStream(b, b)
	return len(b), nil
}
