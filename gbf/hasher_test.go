package gbf

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeed = bytes.Repeat([]byte{0x5a}, DefaultSeedSize)

func TestNewHasherRejectsBadInput(t *testing.T) {
	_, err := NewHasher(testSeed, 0)
	assert.Error(t, err)
	_, err = NewHasher(nil, 10)
	assert.Error(t, err)
}

func TestPositionsDeterministicAndDistinct(t *testing.T) {
	const m = 97
	h1, err := NewHasher(testSeed, m)
	require.NoError(t, err)
	h2, err := NewHasher(testSeed, m)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		element := strconv.Itoa(i)
		p := h1.Positions(element)
		assert.Equal(t, p, h2.Positions(element))
		assert.NotEmpty(t, p)
		assert.LessOrEqual(t, len(p), HashCount)
		seen := make(map[int]bool)
		for _, j := range p {
			assert.True(t, j >= 0 && j < m, "position %d out of range", j)
			assert.False(t, seen[j], "position %d repeated", j)
			seen[j] = true
		}
	}
}

func TestPositionsDependOnSeed(t *testing.T) {
	h1, err := NewHasher(testSeed, 1<<20)
	require.NoError(t, err)
	h2, err := NewHasher(bytes.Repeat([]byte{0x17}, DefaultSeedSize), 1<<20)
	require.NoError(t, err)
	assert.NotEqual(t, h1.Positions("42"), h2.Positions("42"))
}

func TestPositionsSpreadOverSlots(t *testing.T) {
	const m = 100
	h, err := NewHasher(testSeed, m)
	require.NoError(t, err)
	counts := make([]int, m)
	for i := 0; i < 2000; i++ {
		for _, j := range h.Positions(strconv.Itoa(i)) {
			counts[j]++
		}
	}
	for j, c := range counts {
		assert.True(t, c > 100 && c < 320, "slot %d hit %d times", j, c)
	}
}

func TestDeriveSeed(t *testing.T) {
	first, err := deriveSeed(testSeed, 0)
	require.NoError(t, err)
	assert.Equal(t, testSeed, first)

	second, err := deriveSeed(testSeed, 1)
	require.NoError(t, err)
	third, err := deriveSeed(testSeed, 2)
	require.NoError(t, err)
	assert.Len(t, second, len(testSeed))
	assert.NotEqual(t, testSeed, second)
	assert.NotEqual(t, second, third)

	again, err := deriveSeed(testSeed, 1)
	require.NoError(t, err)
	assert.Equal(t, second, again)
}
