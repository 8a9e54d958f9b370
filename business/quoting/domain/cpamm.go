package domain

import (
	"errors"
	"math/big"
)

// Domain errors shared by the math primitives.
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
)

// V2AmountOut computes the constant-product output with the 0.3% fee
// embedded:
//
//	amountOut = (amountIn*997*reserveOut) / (reserveIn*1000 + amountIn*997)
//
// Division floors, matching the on-chain identity.
func V2AmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee := new(big.Int).Mul(amountIn, feeNumerator)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, feeDenominator)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// V2PriceImpact measures how far the trade moves the pool's mid price, in
// percent. The mid price before is reserveOut/reserveIn; after the trade the
// reserves shift to (reserveIn+amountIn, reserveOut-amountOut):
//
//	impact = |mid' - mid| / mid * 100
//
// Token decimals cancel in the ratio, so raw reserves are used directly.
func V2PriceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Int) (float64, error) {
	if amountIn == nil || amountIn.Sign() <= 0 || amountOut == nil || amountOut.Sign() < 0 {
		return 0, ErrInvalidAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return 0, ErrInsufficientLiquidity
	}

	mid := bigRatio(reserveOut, reserveIn)

	newReserveIn := new(big.Int).Add(reserveIn, amountIn)
	newReserveOut := new(big.Int).Sub(reserveOut, amountOut)
	if newReserveOut.Sign() <= 0 {
		// The trade would drain the pool.
		return 100, nil
	}
	midAfter := bigRatio(newReserveOut, newReserveIn)

	if mid == 0 {
		return 0, ErrInsufficientLiquidity
	}

	impact := (mid - midAfter) / mid * 100
	if impact < 0 {
		impact = -impact
	}
	return impact, nil
}

// ExecutionImpact compares the realized execution price against a mid price,
// in percent. Amounts are renormalized by their token decimals so both
// prices are in output units per input unit.
func ExecutionImpact(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8, midPrice float64) (float64, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if midPrice <= 0 {
		return 0, ErrInsufficientLiquidity
	}

	execution := ToFloat(amountOut, decimalsOut) / ToFloat(amountIn, decimalsIn)
	impact := (execution - midPrice) / midPrice * 100
	if impact < 0 {
		impact = -impact
	}
	return impact, nil
}

// ToFloat renders a raw integer amount in human units. Only for display and
// impact ratios, never for amount arithmetic.
func ToFloat(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	scale := new(big.Float).SetInt(pow10(decimals))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return f
}

// bigRatio returns num/den as float64 without overflowing on 256-bit inputs.
func bigRatio(num, den *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(num), new(big.Float).SetInt(den)).Float64()
	return f
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
