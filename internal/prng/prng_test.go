package prng_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niclabs/tmpsi/internal/prng"
)

func TestNewRejectsShortSeed(t *testing.T) {
	_, err := prng.New(make([]byte, 16))
	assert.Error(t, err)
}

func TestSameSeedSameStream(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, prng.SeedSize)
	a, err := prng.New(seed)
	require.NoError(t, err)
	b, err := prng.New(seed)
	require.NoError(t, err)

	bufA := make([]byte, 100)
	bufB := make([]byte, 100)
	_, _ = a.Read(bufA)
	_, _ = b.Read(bufB)
	assert.Equal(t, bufA, bufB)

	// the stream continues instead of restarting
	next := make([]byte, 100)
	_, _ = a.Read(next)
	assert.NotEqual(t, bufA, next)
}

func TestIndependentReaders(t *testing.T) {
	a, err := prng.NewFrom(nil)
	require.NoError(t, err)
	b, err := prng.NewFrom(nil)
	require.NoError(t, err)

	bufA := make([]byte, 64)
	bufB := make([]byte, 64)
	n, err := a.Read(bufA)
	require.NoError(t, err)
	assert.Equal(t, 64, n)
	_, _ = b.Read(bufB)
	assert.NotEqual(t, bufA, bufB)
}

func TestNewFromShortSource(t *testing.T) {
	_, err := prng.NewFrom(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}
