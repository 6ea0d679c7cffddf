// Package gbf implements a Garbled Bloom Filter whose members carry fresh
// Paillier encryptions of 1.
//
// A party inserts each element of its set by XOR-sharing an Encrypt(1)
// ciphertext across the element's hash positions. Querying a member XORs the
// same positions back together and recovers that ciphertext exactly, while a
// non-member yields a random λ-bit value that decrypts to garbage (almost
// never to 1).
package gbf

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/niclabs/tmpsi/paillier"
)

const (
	// DefaultLambda is the default bit length of a slot value.
	DefaultLambda = 2048
	// MaxSeedAttempts bounds how many hash seeds Generate tries before it
	// gives up on a set.
	MaxSeedAttempts = 8
	// DefaultSeedSize is the size of the seed drawn when none is given.
	DefaultSeedSize = 32
	// loadFactor is the target fill ratio per hash function.
	loadFactor = 0.69
)

var (
	// ErrFilterConstruction is returned when no hash seed lets every element
	// of a set find a free slot.
	ErrFilterConstruction = errors.New("gbf: filter construction failed")
	// ErrNoFreeSlot is wrapped by ErrFilterConstruction. It names the reason a
	// single construction pass was abandoned.
	ErrNoFreeSlot = errors.New("gbf: element has no free slot")
	// ErrNotGenerated is returned when querying a filter that was never
	// generated.
	ErrNotGenerated = errors.New("gbf: filter has not been generated")
)

// Params tunes a Filter. The zero value and nil both select the defaults.
type Params struct {
	// Lambda is the bit length of the random slot values. It must be at
	// least the bit length of N².
	Lambda int
	// Seed keys the hash functions. A random one is drawn if empty.
	Seed []byte
	// RandSource supplies slot values, the seed and encryption nonces.
	// crypto/rand is used if nil.
	RandSource io.Reader
}

// Filter is a Garbled Bloom Filter. It is not safe for concurrent use while
// Generate runs; once generated, queries may run concurrently.
type Filter struct {
	pk         *paillier.PublicKey
	encryptor  *paillier.PublicKey
	lambda     int
	seed       []byte
	randSource io.Reader
	expected   int
	slots      []*big.Int
	hasher     *Hasher
	attempts   int
}

// Size returns the number of slots used for a set of expected elements.
func Size(expected int) int {
	m := int(math.Ceil(HashCount * float64(expected) / loadFactor))
	if m < HashCount {
		m = HashCount
	}
	return m
}

// DefaultLambdaFor returns the slot size used under pk when none is given:
// DefaultLambda, or twice the modulus size if that is larger. Slot values
// shorter than a ciphertext would tell free slots from random ones.
func DefaultLambdaFor(pk *paillier.PublicKey) int {
	if n := 2 * pk.BitLen(); n > DefaultLambda {
		return n
	}
	return DefaultLambda
}

// New returns an empty filter sized for expected distinct elements whose
// shares are encrypted under pk.
func New(expected int, pk *paillier.PublicKey, params *Params) (*Filter, error) {
	if pk == nil {
		return nil, fmt.Errorf("%w: nil public key", paillier.ErrInvalidArgument)
	}
	if expected < 0 {
		return nil, fmt.Errorf("%w: expected element count must be non-negative, but it is %d", paillier.ErrInvalidArgument, expected)
	}
	if params == nil {
		params = &Params{}
	}
	lambda := params.Lambda
	if lambda == 0 {
		lambda = DefaultLambdaFor(pk)
	}
	if ctBits := pk.Cache().NSquared.BitLen(); lambda < ctBits {
		return nil, fmt.Errorf("%w: lambda must be at least the %d-bit ciphertext size, but it is %d", paillier.ErrInvalidArgument, ctBits, lambda)
	}
	randSource := params.RandSource
	if randSource == nil {
		randSource = rand.Reader
	}
	seed := params.Seed
	if len(seed) == 0 {
		seed = make([]byte, DefaultSeedSize)
		if _, err := io.ReadFull(randSource, seed); err != nil {
			return nil, fmt.Errorf("gbf: drawing hash seed: %w", err)
		}
	} else {
		seed = append([]byte(nil), seed...)
	}
	return &Filter{
		pk:         pk,
		encryptor:  pk.WithRandSource(randSource),
		lambda:     lambda,
		seed:       seed,
		randSource: randSource,
		expected:   expected,
		slots:      make([]*big.Int, Size(expected)),
	}, nil
}

// Generate inserts elements into the filter, replacing anything generated
// before. Repeated strings are inserted once and count once against the
// expected size. If some element finds all its positions taken, the pass is
// thrown away and retried with the next seed derived from the filter seed.
func (f *Filter) Generate(elements []string) error {
	elements = Distinct(elements)
	if len(elements) > f.expected {
		return fmt.Errorf("%w: %d distinct elements given to a filter sized for %d", paillier.ErrInvalidArgument, len(elements), f.expected)
	}
	f.hasher = nil
	f.attempts = 0
	var lastErr error
	for attempt := 0; attempt < MaxSeedAttempts; attempt++ {
		seed, err := deriveSeed(f.seed, attempt)
		if err != nil {
			return err
		}
		hasher, err := NewHasher(seed, len(f.slots))
		if err != nil {
			return err
		}
		slots, err := f.build(hasher, elements)
		f.attempts = attempt + 1
		if err == nil {
			f.slots = slots
			f.hasher = hasher
			return nil
		}
		if !errors.Is(err, ErrNoFreeSlot) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w after %d seeds: %w", ErrFilterConstruction, MaxSeedAttempts, lastErr)
}

// build runs one construction pass over a clean slot table. elements holds
// no repeats.
func (f *Filter) build(hasher *Hasher, elements []string) ([]*big.Int, error) {
	slots := make([]*big.Int, len(f.slots))
	for i, element := range elements {
		share, err := f.encryptor.EncryptInt(1)
		if err != nil {
			return nil, fmt.Errorf("gbf: encrypting share: %w", err)
		}
		acc := share.Ciphertext()
		free := -1
		for _, j := range hasher.Positions(element) {
			if slots[j] == nil {
				if free == -1 {
					free = j
					continue
				}
				if slots[j], err = f.randomSlot(); err != nil {
					return nil, err
				}
			}
			acc.Xor(acc, slots[j])
		}
		if free == -1 {
			return nil, fmt.Errorf("%w: element %d", ErrNoFreeSlot, i)
		}
		slots[free] = acc
	}
	for j := range slots {
		if slots[j] != nil {
			continue
		}
		r, err := f.randomSlot()
		if err != nil {
			return nil, err
		}
		slots[j] = r
	}
	return slots, nil
}

// Distinct returns elements without repeats, keeping first occurrences in
// order.
func Distinct(elements []string) []string {
	seen := make(map[string]struct{}, len(elements))
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (f *Filter) randomSlot() (*big.Int, error) {
	r, err := paillier.RandomInt(f.lambda, f.randSource)
	if err != nil {
		return nil, fmt.Errorf("gbf: drawing slot value: %w", err)
	}
	return r, nil
}

// Query XORs the slots of element. For a member the result is the
// ciphertext inserted for it.
func (f *Filter) Query(element string) (*big.Int, error) {
	if f.hasher == nil {
		return nil, ErrNotGenerated
	}
	acc := new(big.Int)
	for _, j := range f.hasher.Positions(element) {
		acc.Xor(acc, f.slots[j])
	}
	return acc, nil
}

// QueryCiphertext is Query reduced mod N² and bound to the filter key.
func (f *Filter) QueryCiphertext(element string) (*paillier.EncryptedNumber, error) {
	raw, err := f.Query(element)
	if err != nil {
		return nil, err
	}
	raw.Mod(raw, f.pk.Cache().NSquared)
	return f.pk.NewEncryptedNumber(raw)
}

// Len returns the number of slots.
func (f *Filter) Len() int {
	return len(f.slots)
}

// Lambda returns the bit length of the slot values.
func (f *Filter) Lambda() int {
	return f.lambda
}

// Seed returns a copy of the filter seed.
func (f *Filter) Seed() []byte {
	return append([]byte(nil), f.seed...)
}

// PublicKey returns the key the shares are encrypted under.
func (f *Filter) PublicKey() *paillier.PublicKey {
	return f.pk
}

// Attempts returns the number of construction passes the last Generate
// used, or 0 if the filter was never generated.
func (f *Filter) Attempts() int {
	return f.attempts
}

// Slots returns a copy of the slot table. Slots are nil before Generate.
func (f *Filter) Slots() []*big.Int {
	out := make([]*big.Int, len(f.slots))
	for i, s := range f.slots {
		if s != nil {
			out[i] = new(big.Int).Set(s)
		}
	}
	return out
}
