package domain

import (
	"math"
	"math/big"
)

// q96 = 2^96, the fixed-point scale of sqrtPriceX96.
var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// Price0In1 converts a pool's sqrtPriceX96 into the price of token0
// expressed in token1, adjusted to human units by the token decimals:
//
//	price = (sqrtPriceX96 / 2^96)^2 * 10^(decimals0 - decimals1)
func Price0In1(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}

	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96).Float64()
	price := ratio * ratio
	return price * math.Pow(10, float64(decimals0)-float64(decimals1))
}

// Price1In0 is the inverse orientation of Price0In1.
func Price1In0(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) float64 {
	p := Price0In1(sqrtPriceX96, decimals0, decimals1)
	if p == 0 {
		return 0
	}
	return 1 / p
}

// V3PriceImpact measures the pool price move between two sqrt prices, in
// percent:
//
//	impact = |(after/before)^2 - 1| * 100
//
// The form is direction-free; it holds whichever side the swap pushes.
func V3PriceImpact(sqrtPriceBefore, sqrtPriceAfter *big.Int) (float64, error) {
	if sqrtPriceBefore == nil || sqrtPriceBefore.Sign() <= 0 {
		return 0, ErrInsufficientLiquidity
	}
	if sqrtPriceAfter == nil || sqrtPriceAfter.Sign() <= 0 {
		return 0, ErrInsufficientLiquidity
	}

	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceAfter),
		new(big.Float).SetInt(sqrtPriceBefore),
	).Float64()

	impact := math.Abs(ratio*ratio-1) * 100
	return impact, nil
}

// HeuristicSqrtPriceAfter reconstructs a post-swap sqrt price from an
// execution-vs-mid impact percentage when the quoter reports only the
// output amount:
//
//	after = before * sqrt(|1 + impact/100|)
//
// This is a documented fallback; quoters that answer with the real
// post-swap price should always be preferred.
func HeuristicSqrtPriceAfter(sqrtPriceBefore *big.Int, impactPercent float64) *big.Int {
	if sqrtPriceBefore == nil || sqrtPriceBefore.Sign() <= 0 {
		return nil
	}

	ratio := math.Sqrt(math.Abs(1 + impactPercent/100))
	after, _ := new(big.Float).Mul(
		new(big.Float).SetInt(sqrtPriceBefore),
		big.NewFloat(ratio),
	).Int(nil)
	return after
}
