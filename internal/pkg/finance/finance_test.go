package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterest_OneDayOnOneSol(t *testing.T) {
	// 1 SOL at 500bps for one day: floor(500 * 1e9 * 86_400 / (10_000 * 31_536_000))
	got, err := Interest(1_000_000_000, 500, 86_400)
	require.NoError(t, err)
	assert.Equal(t, int64(136_986), got)
}

func TestInterest_NegativeElapsedClampsToZero(t *testing.T) {
	got, err := Interest(1_000_000_000, 500, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestInterest_ZeroBasisPoints(t *testing.T) {
	got, err := Interest(1_000_000_000, 0, 86_400)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestInterest_LargePrincipalNoOverflow(t *testing.T) {
	// 10M SOL for a year at max bps would overflow a naive int64 product.
	got, err := Interest(10_000_000_000_000_000, 10_000, 31_536_000)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000_000_000_000), got)
}

func TestFeeFromBasisPoints(t *testing.T) {
	got, err := FeeFromBasisPoints(1_000_000_000, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(20_000_000), got)

	_, err = FeeFromBasisPoints(100, 10_001)
	assert.Error(t, err)
}

func TestProRata(t *testing.T) {
	// Half the window elapsed: half earned.
	assert.Equal(t, int64(50), ProRata(100, 0, 100, 50))
	// Past the end: everything earned.
	assert.Equal(t, int64(100), ProRata(100, 0, 100, 150))
	// Before the start: nothing earned.
	assert.Equal(t, int64(0), ProRata(100, 0, 100, 0))
	// Truncates, never rounds up.
	assert.Equal(t, int64(33), ProRata(100, 0, 3, 1))
}

func TestCreatorShare(t *testing.T) {
	assert.Equal(t, int64(50), CreatorShare(100, 50))
	assert.Equal(t, int64(0), CreatorShare(0, 50))
	// 3-way split leaves dust with the caller.
	total := int64(100)
	split := CreatorShare(total, 33) * 3 // 99
	assert.Less(t, split, total)
}
