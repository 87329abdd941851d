package amm

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBootstrapShares(t *testing.T) {
	tests := []struct {
		a, b uint64
		want uint64
	}{
		{1, 1, 1},
		{4, 9, 6},
		{2, 3, 2},
		{100_000, 150_000, 122_474},
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{math.MaxUint64, 1, 4_294_967_295},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, BootstrapShares(tt.a, tt.b), "sqrt(%d*%d)", tt.a, tt.b)
	}
}

func TestSwapOutputScenario(t *testing.T) {
	require.Equal(t, uint64(997), AmountInAfterFee(1000, 30))
	out, err := SwapOutput(1000, 100_000, 150_000, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(1481), out)
}

func TestSwapOutputNeverDrains(t *testing.T) {
	out, err := SwapOutput(math.MaxUint64, 1, 1_000, 0)
	require.NoError(t, err)
	require.Less(t, out, uint64(1_000))

	out, err = SwapOutput(math.MaxUint64, math.MaxUint64, math.MaxUint64, 1)
	require.NoError(t, err)
	require.Less(t, out, uint64(math.MaxUint64))
}

func TestSwapOutputZeroReserve(t *testing.T) {
	_, err := SwapOutput(10, 0, 10, 30)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, err = SwapOutput(10, 10, 0, 30)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestProportionalSharesTakesMinimum(t *testing.T) {
	shares, err := ProportionalShares(1_000, 1_500, 100_000, 150_000, 122_474)
	require.NoError(t, err)
	require.Equal(t, uint64(1_224), shares)

	// B side limits.
	shares, err = ProportionalShares(10_000, 1_500, 100_000, 150_000, 122_474)
	require.NoError(t, err)
	require.Equal(t, uint64(1_224), shares)
}

func TestMulDiv(t *testing.T) {
	v, err := MulDiv(math.MaxUint64, math.MaxUint64, math.MaxUint64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	_, err = MulDiv(math.MaxUint64, 2, 1)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(1, 1, 0)
	require.Error(t, err)
}

func TestRedeemAmounts(t *testing.T) {
	a, b, err := RedeemAmounts(1_224, 101_000, 151_500, 123_698)
	require.NoError(t, err)
	require.Equal(t, uint64(999), a)
	require.Equal(t, uint64(1_499), b)

	_, _, err = RedeemAmounts(2, 10, 10, 1)
	require.ErrorIs(t, err, ErrInsufficientShares)
}

func TestOwedFloorsPerShare(t *testing.T) {
	// 100 units over 1e6 shares; a holder of all shares loses one unit to flooring.
	delta := growthDelta(100, 1_000_000)
	require.Equal(t, uint64(99), owed(1_000_000, delta, new(uint256.Int)))
}

func TestOwedSaturates(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 200)
	require.Equal(t, uint64(math.MaxUint64), owed(math.MaxUint64, huge, new(uint256.Int)))
	require.Equal(t, uint64(math.MaxUint64), addSaturated(math.MaxUint64-1, 2))
	require.Equal(t, uint64(5), addSaturated(2, 3))
}
