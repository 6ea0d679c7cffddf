package gbf

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// HashCount is the number of independent digest functions (k).
const HashCount = 10

// digests is the digest family behind the k hash functions. Each one is
// keyed through HMAC with its own key.
var digests = [HashCount]func() hash.Hash{
	md5.New,
	sha256.New224,
	sha256.New,
	sha1.New,
	sha512.New384,
	sha512.New,
	sha3.New224,
	sha3.New256,
	sha3.New384,
	sha3.New512,
}

const hashKeySize = 32

// Hasher maps elements to slot positions in [0, m).
type Hasher struct {
	m    *big.Int
	keys [HashCount][]byte
}

// NewHasher derives the k digest keys from seed and returns a Hasher over m
// slots.
func NewHasher(seed []byte, m int) (*Hasher, error) {
	if m <= 0 {
		return nil, fmt.Errorf("gbf: filter size must be positive, but it is %d", m)
	}
	if len(seed) == 0 {
		return nil, errors.New("gbf: empty hash seed")
	}
	h := &Hasher{m: big.NewInt(int64(m))}
	for i := range digests {
		kdf := hkdf.New(sha256.New, seed, nil, []byte(fmt.Sprintf("tmpsi/gbf/digest/%d", i)))
		h.keys[i] = make([]byte, hashKeySize)
		if _, err := io.ReadFull(kdf, h.keys[i]); err != nil {
			return nil, fmt.Errorf("gbf: deriving digest key %d: %w", i, err)
		}
	}
	return h, nil
}

// Positions returns the distinct slots of element, in the order the digest
// functions produce them. A slot hit by two digests appears once.
func (h *Hasher) Positions(element string) []int {
	positions := make([]int, 0, HashCount)
	idx := new(big.Int)
	for i, newDigest := range digests {
		mac := hmac.New(newDigest, h.keys[i])
		mac.Write([]byte(element))
		idx.SetBytes(mac.Sum(nil))
		idx.Mod(idx, h.m)
		j := int(idx.Int64())
		if !contains(positions, j) {
			positions = append(positions, j)
		}
	}
	return positions
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// deriveSeed returns the hash seed used by the given construction attempt.
// Attempt 0 uses seed itself.
func deriveSeed(seed []byte, attempt int) ([]byte, error) {
	if attempt == 0 {
		return seed, nil
	}
	kdf := hkdf.New(sha256.New, seed, nil, []byte(fmt.Sprintf("tmpsi/gbf/reseed/%d", attempt)))
	next := make([]byte, len(seed))
	if _, err := io.ReadFull(kdf, next); err != nil {
		return nil, fmt.Errorf("gbf: deriving seed for attempt %d: %w", attempt, err)
	}
	return next, nil
}
