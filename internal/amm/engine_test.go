package amm

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca401")
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func seededPool(t *testing.T, e *Engine, fee, a, b uint64) (PoolID, PositionID) {
	t.Helper()
	id, err := e.CreatePool(fee)
	require.NoError(t, err)
	res, err := e.AddLiquidity(alice, id, a, b, 0)
	require.NoError(t, err)
	return id, res.Position
}

func swapParams(pool PoolID, dir Direction, in, minOut uint64) SwapParams {
	return SwapParams{Pool: pool, Direction: dir, AmountIn: in, MinAmountOut: minOut, DeadlineMillis: math.MaxUint64}
}

func TestCreatePool(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	for _, fee := range []uint64{1, 5, 30, 100} {
		id, err := e.CreatePool(fee)
		require.NoError(t, err)
		p, err := e.Pool(id)
		require.NoError(t, err)
		require.Equal(t, fee, p.FeeTierBps)
		require.Equal(t, Empty, p.State())
		require.Zero(t, p.ReserveA)
		require.Zero(t, p.LPSupply)
	}
	ids := e.Pools()
	require.Len(t, ids, 4)
	require.Equal(t, PoolID(1), ids[0].ID)
	require.Equal(t, PoolID(4), ids[3].ID)

	_, err := e.CreatePool(25)
	require.ErrorIs(t, err, ErrInvalidFeeTier)
	require.Equal(t, "InvalidFeeTier", Code(err))
	require.Len(t, e.Pools(), 4)
}

func TestCreatePoolCustomTiers(t *testing.T) {
	e := newEngine(t, Config{AllowedFeeTiers: []uint64{5, 30, 100}})
	_, err := e.CreatePool(1)
	require.ErrorIs(t, err, ErrInvalidFeeTier)
	_, err = e.CreatePool(5)
	require.NoError(t, err)

	_, err = New(Config{AllowedFeeTiers: []uint64{10_000}})
	require.ErrorIs(t, err, ErrInvalidFeeTier)
	_, err = New(Config{FeeLedgerShareBps: 10_001})
	require.Error(t, err)
}

func TestBootstrapDeposit(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, err := e.CreatePool(30)
	require.NoError(t, err)

	_, err = e.AddLiquidity(alice, id, 0, 10, 0)
	require.ErrorIs(t, err, ErrEmptyDeposit)
	_, err = e.AddLiquidity(alice, id, 10, 0, 0)
	require.ErrorIs(t, err, ErrEmptyDeposit)

	res, err := e.AddLiquidity(alice, id, 100_000, 150_000, 0)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, uint64(122_474), res.SharesMinted)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, Active, p.State())
	require.Equal(t, uint64(100_000), p.ReserveA)
	require.Equal(t, uint64(150_000), p.ReserveB)
	require.Equal(t, res.SharesMinted, p.LPSupply)

	pos, err := e.Position(res.Position)
	require.NoError(t, err)
	require.Equal(t, alice, pos.Owner)
	require.Equal(t, id, pos.Pool)
	require.Equal(t, res.SharesMinted, pos.ShareUnits)
}

func TestBootstrapPriceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := uint64(rng.Int63n(1<<40)) + 1
		b := uint64(rng.Int63n(1<<40)) + 1
		e := newEngine(t, DefaultConfig())
		id, _ := seededPool(t, e, 30, a, b)
		p, err := e.Pool(id)
		require.NoError(t, err)

		prod := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
		require.Equal(t, new(big.Int).Sqrt(prod).Uint64(), p.LPSupply)
		require.Equal(t, a, p.ReserveA)
		require.Equal(t, b, p.ReserveB)
	}
}

func TestAddLiquiditySlippage(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, err := e.CreatePool(30)
	require.NoError(t, err)

	before := e.Snapshot()
	_, err = e.AddLiquidity(alice, id, 100_000, 150_000, 122_475)
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, before, e.Snapshot())

	res, err := e.AddLiquidity(alice, id, 100_000, 150_000, 122_474)
	require.NoError(t, err)
	require.Equal(t, uint64(122_474), res.SharesMinted)

	before = e.Snapshot()
	_, err = e.AddLiquidity(bob, id, 1_000, 1_500, 1_225)
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, before, e.Snapshot())
}

func TestAddLiquidityIncrementsExistingPosition(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, first := seededPool(t, e, 30, 100_000, 150_000)

	res, err := e.AddLiquidity(alice, id, 1_000, 1_500, 0)
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, first, res.Position)
	require.Equal(t, uint64(1_224), res.SharesMinted)

	pos, err := e.Position(first)
	require.NoError(t, err)
	require.Equal(t, uint64(122_474+1_224), pos.ShareUnits)

	other, err := e.AddLiquidity(bob, id, 1_000, 1_500, 0)
	require.NoError(t, err)
	require.True(t, other.Created)
	require.NotEqual(t, first, other.Position)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, sumShares(e, id), p.LPSupply)
}

func TestAddLiquidityTooSmall(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 100_000, 150_000)
	before := e.Snapshot()
	_, err := e.AddLiquidity(bob, id, 1, 1, 0)
	require.ErrorIs(t, err, ErrZeroShares)
	require.Equal(t, before, e.Snapshot())
}

func TestAddLiquidityOverflow(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, math.MaxUint64, math.MaxUint64)
	before := e.Snapshot()
	_, err := e.AddLiquidity(bob, id, 1, 1, 0)
	require.ErrorIs(t, err, ErrOverflow)
	require.Equal(t, before, e.Snapshot())
}

func TestAddLiquidityUnknownPool(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	_, err := e.AddLiquidity(alice, 9, 1, 1, 0)
	require.ErrorIs(t, err, ErrPoolNotFound)
	require.True(t, IsNotFound(err))
}

func TestSwapScenario(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 100_000, 150_000)

	res, err := e.Swap(bob, swapParams(id, AtoB, 1_000, 0), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1_481), res.AmountOut)
	require.Equal(t, uint64(3), res.FeeAmount)
	require.Zero(t, res.LedgerFee)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, uint64(101_000), p.ReserveA)
	require.Equal(t, uint64(148_519), p.ReserveB)
	require.Equal(t, res.ReserveA, p.ReserveA)
	require.Equal(t, res.ReserveB, p.ReserveB)
}

func TestSwapBtoA(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 150_000, 100_000)

	res, err := e.Swap(bob, swapParams(id, BtoA, 1_000, 0), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1_481), res.AmountOut)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, uint64(148_519), p.ReserveA)
	require.Equal(t, uint64(101_000), p.ReserveB)
}

func TestSwapSlippageIsStrict(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 100_000, 150_000)

	before := e.Snapshot()
	_, err := e.Swap(bob, swapParams(id, AtoB, 1_000, 1_482), 0)
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, "SlippageExceeded", Code(err))
	require.Equal(t, before, e.Snapshot())

	res, err := e.Swap(bob, swapParams(id, AtoB, 1_000, 1_481), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1_481), res.AmountOut)
}

func TestSwapDeadline(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 100_000, 150_000)
	params := swapParams(id, AtoB, 1_000, 0)
	params.DeadlineMillis = 1_000

	_, err := e.Swap(bob, params, 1_000)
	require.NoError(t, err)

	before := e.Snapshot()
	_, err = e.Swap(bob, params, 1_001)
	require.ErrorIs(t, err, ErrDeadlineExpired)
	require.Equal(t, before, e.Snapshot())

	// Deadline is checked before the input amount.
	params.AmountIn = 0
	_, err = e.Swap(bob, params, 1_001)
	require.ErrorIs(t, err, ErrDeadlineExpired)
}

func TestSwapPreconditions(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, err := e.CreatePool(30)
	require.NoError(t, err)

	_, err = e.Swap(bob, swapParams(id, AtoB, 0, 0), 0)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.Swap(bob, swapParams(id, AtoB, 1_000, 0), 0)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = e.Swap(bob, swapParams(42, AtoB, 1_000, 0), 0)
	require.ErrorIs(t, err, ErrPoolNotFound)

	seeded, _ := seededPool(t, e, 30, 1_000_000, 1_000_000)
	_, err = e.Swap(bob, swapParams(seeded, AtoB, 1, 0), 0)
	require.ErrorIs(t, err, ErrZeroOutput)

	_, err = e.Swap(bob, swapParams(seeded, Direction(7), 1_000, 0), 0)
	require.Error(t, err)
}

func TestSwapProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 5_000_000, 8_000_000)

	prev := product(t, e, id)
	for i := 0; i < 500; i++ {
		dir := AtoB
		if rng.Intn(2) == 1 {
			dir = BtoA
		}
		p, err := e.Pool(id)
		require.NoError(t, err)
		_, reserveOut := dir.reserves(&p)

		res, err := e.Swap(bob, swapParams(id, dir, uint64(rng.Int63n(2_000_000))+1, 0), 0)
		if err != nil {
			require.ErrorIs(t, err, ErrZeroOutput)
			continue
		}
		require.Less(t, res.AmountOut, reserveOut)

		next := product(t, e, id)
		require.True(t, next.Cmp(prev) >= 0, "product decreased at swap %d", i)
		prev = next
	}
}

func TestRemoveLiquidityRoundTrip(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, _ := seededPool(t, e, 30, 100_000, 150_000)

	add, err := e.AddLiquidity(bob, id, 1_000, 1_500, 0)
	require.NoError(t, err)

	res, err := e.RemoveLiquidity(bob, add.Position, add.SharesMinted, 0, 0)
	require.NoError(t, err)
	require.True(t, res.Burned)
	require.LessOrEqual(t, res.AmountA, uint64(1_000))
	require.LessOrEqual(t, res.AmountB, uint64(1_500))
	require.LessOrEqual(t, uint64(1_000)-res.AmountA, uint64(1))
	require.LessOrEqual(t, uint64(1_500)-res.AmountB, uint64(1))

	_, err = e.Position(add.Position)
	require.ErrorIs(t, err, ErrPositionNotFound)
}

func TestRemoveLiquidityFullWithdrawEmptiesPool(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, pos := seededPool(t, e, 30, 100_000, 150_000)

	res, err := e.RemoveLiquidity(alice, pos, 122_474, 100_000, 150_000)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000), res.AmountA)
	require.Equal(t, uint64(150_000), res.AmountB)
	require.True(t, res.Burned)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, Empty, p.State())
	require.Zero(t, p.ReserveA)
	require.Zero(t, p.ReserveB)
	require.Zero(t, p.LPSupply)
	_, err = e.PositionOf(id, alice)
	require.ErrorIs(t, err, ErrPositionNotFound)

	// The empty pool can be re-seeded at a new price.
	again, err := e.AddLiquidity(carol, id, 4, 9, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(6), again.SharesMinted)
}

func TestRemoveLiquidityPartial(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, pos := seededPool(t, e, 30, 100_000, 150_000)

	res, err := e.RemoveLiquidity(alice, pos, 61_237, 0, 0)
	require.NoError(t, err)
	require.False(t, res.Burned)
	require.Equal(t, uint64(50_000), res.AmountA)
	require.Equal(t, uint64(75_000), res.AmountB)

	left, err := e.Position(pos)
	require.NoError(t, err)
	require.Equal(t, uint64(61_237), left.ShareUnits)

	p, err := e.Pool(id)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), p.ReserveA)
	require.Equal(t, uint64(75_000), p.ReserveB)
	require.Equal(t, uint64(61_237), p.LPSupply)
}

func TestRemoveLiquidityFailuresLeaveStateUnchanged(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	_, pos := seededPool(t, e, 30, 100_000, 150_000)
	before := e.Snapshot()

	_, err := e.RemoveLiquidity(alice, pos, 0, 0, 0)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.RemoveLiquidity(alice, pos, 122_475, 0, 0)
	require.ErrorIs(t, err, ErrInsufficientShares)

	_, err = e.RemoveLiquidity(alice, pos, 122_474, 100_001, 0)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	_, err = e.RemoveLiquidity(alice, pos, 122_474, 0, 150_001)
	require.ErrorIs(t, err, ErrSlippageExceeded)

	_, err = e.RemoveLiquidity(bob, pos, 1, 0, 0)
	require.ErrorIs(t, err, ErrNotPositionOwner)

	_, err = e.RemoveLiquidity(alice, 99, 1, 0, 0)
	require.ErrorIs(t, err, ErrPositionNotFound)

	require.Equal(t, before, e.Snapshot())
}

func TestDonate(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, err := e.CreatePool(30)
	require.NoError(t, err)

	_, err = e.Donate(bob, id, 10, 10)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	id2, _ := seededPool(t, e, 30, 100, 100)
	_, err = e.Donate(bob, id2, 0, 0)
	require.ErrorIs(t, err, ErrEmptyDeposit)

	res, err := e.Donate(bob, id2, 100, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(200), res.ReserveA)

	p, err := e.Pool(id2)
	require.NoError(t, err)
	require.Equal(t, uint64(100), p.LPSupply)
}

func TestTransferPosition(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	id, pos := seededPool(t, e, 30, 100_000, 150_000)
	_, err := e.AddLiquidity(bob, id, 1_000, 1_500, 0)
	require.NoError(t, err)

	_, err = e.TransferPosition(bob, pos, carol)
	require.ErrorIs(t, err, ErrNotPositionOwner)

	_, err = e.TransferPosition(alice, pos, bob)
	require.ErrorIs(t, err, ErrPositionExists)

	res, err := e.TransferPosition(alice, pos, carol)
	require.NoError(t, err)
	require.Equal(t, carol, res.To)

	moved, err := e.PositionOf(id, carol)
	require.NoError(t, err)
	require.Equal(t, pos, moved.ID)
	_, err = e.PositionOf(id, alice)
	require.ErrorIs(t, err, ErrPositionNotFound)
	require.Len(t, e.PositionsByOwner(carol), 1)
	require.Empty(t, e.PositionsByOwner(alice))

	_, err = e.RemoveLiquidity(alice, pos, 1, 0, 0)
	require.ErrorIs(t, err, ErrNotPositionOwner)
	_, err = e.RemoveLiquidity(carol, pos, 1, 0, 0)
	require.NoError(t, err)
}

func TestCode(t *testing.T) {
	require.Equal(t, "", Code(nil))
	require.Equal(t, "DeadlineExpired", Code(ErrDeadlineExpired))
	require.Equal(t, "Internal", Code(errFake{}))
}

type errFake struct{}

func (errFake) Error() string { return "fake" }

func product(t *testing.T, e *Engine, id PoolID) *big.Int {
	t.Helper()
	p, err := e.Pool(id)
	require.NoError(t, err)
	return new(big.Int).Mul(new(big.Int).SetUint64(p.ReserveA), new(big.Int).SetUint64(p.ReserveB))
}

func sumShares(e *Engine, id PoolID) uint64 {
	var total uint64
	for _, pos := range e.positions {
		if pos.Pool == id {
			total += pos.ShareUnits
		}
	}
	return total
}
