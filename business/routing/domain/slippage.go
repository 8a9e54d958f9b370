// Package domain contains the core domain types for the routing context.
package domain

import (
	"errors"
	"math/big"
)

// Domain errors shared by the slippage primitives.
var (
	ErrInvalidSlippage = errors.New("slippage percent must be between 0 and 100")
	ErrInvalidAmount   = errors.New("amount must be non-negative")
)

var bpsDenominator = big.NewInt(10000)

// SlippageBps converts a slippage percentage to basis points, flooring
// fractional bps: 0.5% -> 50.
func SlippageBps(percent float64) (int64, error) {
	if percent < 0 || percent > 100 {
		return 0, ErrInvalidSlippage
	}
	return int64(percent * 100), nil
}

// MinAmountOut applies a slippage tolerance below an expected output:
//
//	minOut = amountOut * (10000 - bps) / 10000
//
// Division floors, so minOut <= amountOut always holds.
func MinAmountOut(amountOut *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(amountOut, big.NewInt(10000-bps))
	return out.Quo(out, bpsDenominator)
}

// MaxAmountIn is the symmetric bound above an expected input.
func MaxAmountIn(amountIn *big.Int, bps int64) *big.Int {
	in := new(big.Int).Mul(amountIn, big.NewInt(10000+bps))
	return in.Quo(in, bpsDenominator)
}

// ApplySlippage validates the percentage and returns the guarded minimum
// output in one step.
func ApplySlippage(amountOut *big.Int, percent float64) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	bps, err := SlippageBps(percent)
	if err != nil {
		return nil, err
	}
	return MinAmountOut(amountOut, bps), nil
}
