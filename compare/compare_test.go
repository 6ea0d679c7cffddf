package compare_test

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niclabs/tmpsi/compare"
	"github.com/niclabs/tmpsi/paillier"
)

const bitSize = 512

var (
	keyOnce sync.Once
	keyPair *paillier.KeyPair
	keyErr  error
)

func testKeyPair(t *testing.T) *paillier.KeyPair {
	t.Helper()
	keyOnce.Do(func() {
		keyPair, keyErr = paillier.GenerateKeyPair(bitSize, nil)
	})
	require.NoError(t, keyErr)
	return keyPair
}

// constReader returns the same byte forever, pinning the blinding sign.
type constReader byte

func (r constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

func setup(t *testing.T) (*compare.Initiator, *compare.KeyHolder, *paillier.KeyPair) {
	t.Helper()
	kp := testKeyPair(t)
	helper := compare.NewKeyHolder(kp.PrivateKey)
	return compare.NewInitiator(kp.PublicKey, helper), helper, kp
}

func encrypt(t *testing.T, pk *paillier.PublicKey, m int64) *paillier.EncryptedNumber {
	t.Helper()
	c, err := pk.EncryptInt(m)
	require.NoError(t, err)
	return c
}

func decrypt(t *testing.T, sk *paillier.PrivateKey, c *paillier.EncryptedNumber) int64 {
	t.Helper()
	m, err := sk.DecryptSigned(c)
	require.NoError(t, err)
	return m.Int64()
}

func TestEqual(t *testing.T) {
	in, _, kp := setup(t)
	cases := []struct {
		x, y int64
		want int64
	}{
		{5, 5, 2},
		{0, 0, 2},
		{-7, -7, 2},
		{5, 3, 0},
		{3, 5, 0},
		{-1, 1, 0},
		{1, 0, 0},
		{0, 1, 0},
		{-1000, 1000, 0},
	}
	for _, c := range cases {
		res, err := in.Equal(encrypt(t, kp.PublicKey, c.x), encrypt(t, kp.PublicKey, c.y))
		require.NoError(t, err)
		assert.Equal(t, c.want, decrypt(t, kp.PrivateKey, res), "SEP(%d, %d)", c.x, c.y)
	}
}

func TestEqualBothBlindingSigns(t *testing.T) {
	_, helper, kp := setup(t)
	base := compare.NewInitiator(kp.PublicKey, helper)
	for _, b := range []byte{0x00, 0x01} {
		in := base.WithRandSource(constReader(b))
		for _, pair := range [][2]int64{{4, 4}, {4, 9}, {9, 4}} {
			res, err := in.Equal(encrypt(t, kp.PublicKey, pair[0]), encrypt(t, kp.PublicKey, pair[1]))
			require.NoError(t, err)
			want := int64(0)
			if pair[0] == pair[1] {
				want = 2
			}
			assert.Equal(t, want, decrypt(t, kp.PrivateKey, res), "sign byte %x, pair %v", b, pair)
		}
	}
}

func TestLessThan(t *testing.T) {
	in, _, kp := setup(t)
	for _, tc := range []struct {
		threshold int64
		x         int64
		want      int64
	}{
		{4, 3, 1},
		{4, 4, -1},
		{4, 5, -1},
		{0, -1, 1},
		{0, 0, -1},
		{-3, -4, 1},
		{-3, -2, -1},
	} {
		res, err := in.LessThan(encrypt(t, kp.PublicKey, tc.x), big.NewInt(tc.threshold))
		require.NoError(t, err)
		assert.Equal(t, tc.want, decrypt(t, kp.PrivateKey, res), "SCP(%d < %d)", tc.x, tc.threshold)
	}
}

func TestLessOrEqual(t *testing.T) {
	in, _, kp := setup(t)
	threshold := big.NewInt(6)
	for x, want := range map[int64]int64{5: 1, 6: 1, 7: -1} {
		res, err := in.LessOrEqual(encrypt(t, kp.PublicKey, x), threshold)
		require.NoError(t, err)
		assert.Equal(t, want, decrypt(t, kp.PrivateKey, res), "SCP(%d <= 6)", x)
	}
}

func TestLessThanBothBlindingSigns(t *testing.T) {
	_, helper, kp := setup(t)
	for _, b := range []byte{0x00, 0x01} {
		in := compare.NewInitiator(kp.PublicKey, helper).WithRandSource(constReader(b))
		for x, want := range map[int64]int64{9: 1, 10: -1, 11: -1} {
			res, err := in.LessThan(encrypt(t, kp.PublicKey, x), big.NewInt(10))
			require.NoError(t, err)
			assert.Equal(t, want, decrypt(t, kp.PrivateKey, res))
		}
	}
}

func TestHelperQueries(t *testing.T) {
	in, helper, kp := setup(t)
	before := helper.Queries()
	_, err := in.Equal(encrypt(t, kp.PublicKey, 1), encrypt(t, kp.PublicKey, 2))
	require.NoError(t, err)
	assert.Equal(t, before+2, helper.Queries())

	_, err = in.LessThan(encrypt(t, kp.PublicKey, 1), big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, before+3, helper.Queries())
	assert.Same(t, kp.PublicKey, helper.PublicKey())
}

func TestIncompatibleKeys(t *testing.T) {
	in, helper, kp := setup(t)
	other, err := paillier.GenerateKeyPair(bitSize, nil)
	require.NoError(t, err)

	foreign := encrypt(t, other.PublicKey, 1)
	_, err = in.Equal(encrypt(t, kp.PublicKey, 1), foreign)
	assert.True(t, errors.Is(err, paillier.ErrIncompatibleKey))
	_, err = in.LessThan(foreign, big.NewInt(3))
	assert.True(t, errors.Is(err, paillier.ErrIncompatibleKey))

	_, err = helper.IsPositive(foreign)
	assert.True(t, errors.Is(err, paillier.ErrIncompatibleKey))
	assert.Equal(t, uint64(0), helper.Queries())
}

type failingHelper struct{}

func (failingHelper) IsPositive(*paillier.EncryptedNumber) (bool, error) {
	return false, errors.New("helper unavailable")
}

func TestHelperErrorAborts(t *testing.T) {
	kp := testKeyPair(t)
	in := compare.NewInitiator(kp.PublicKey, failingHelper{})
	_, err := in.Equal(encrypt(t, kp.PublicKey, 1), encrypt(t, kp.PublicKey, 1))
	assert.ErrorContains(t, err, "helper unavailable")
	_, err = in.LessThan(encrypt(t, kp.PublicKey, 1), big.NewInt(1))
	assert.ErrorContains(t, err, "helper unavailable")
}
