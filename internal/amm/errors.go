package amm

import "errors"

var (
	ErrInvalidFeeTier        = errors.New("invalid fee tier")
	ErrEmptyDeposit          = errors.New("empty deposit")
	ErrEmptyInput            = errors.New("empty input")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInsufficientShares    = errors.New("insufficient shares")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrDeadlineExpired       = errors.New("deadline expired")

	ErrPoolNotFound     = errors.New("pool not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrNotPositionOwner = errors.New("not position owner")
	ErrPositionExists   = errors.New("recipient already holds a position in pool")
	ErrZeroShares       = errors.New("deposit too small to mint shares")
	ErrZeroOutput       = errors.New("swap output rounds to zero")
	ErrOverflow         = errors.New("amount overflows uint64")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrInvalidFeeTier, "InvalidFeeTier"},
	{ErrEmptyDeposit, "EmptyDeposit"},
	{ErrEmptyInput, "EmptyInput"},
	{ErrInsufficientLiquidity, "InsufficientLiquidity"},
	{ErrInsufficientShares, "InsufficientShares"},
	{ErrSlippageExceeded, "SlippageExceeded"},
	{ErrDeadlineExpired, "DeadlineExpired"},
	{ErrPoolNotFound, "PoolNotFound"},
	{ErrPositionNotFound, "PositionNotFound"},
	{ErrNotPositionOwner, "NotPositionOwner"},
	{ErrPositionExists, "PositionExists"},
	{ErrZeroShares, "ZeroShares"},
	{ErrZeroOutput, "ZeroOutput"},
	{ErrOverflow, "Overflow"},
	{ErrInvalidSnapshot, "InvalidSnapshot"},
}

// Code returns the stable error code for an engine error, or "Internal"
// when err does not wrap one of the engine sentinels.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// IsNotFound reports whether err refers to a missing pool or position.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPoolNotFound) || errors.Is(err, ErrPositionNotFound)
}
