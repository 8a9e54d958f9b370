package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// V2Pool holds the observed state of a constant-product pair.
type V2Pool struct {
	Address            common.Address
	Token0             common.Address
	Token1             common.Address
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
	TotalSupply        *big.Int
}

// ReservesFor orients the pair reserves for a swap from tokenIn.
// The second return is false when tokenIn is neither side of the pair.
func (p *V2Pool) ReservesFor(tokenIn common.Address) (reserveIn, reserveOut *big.Int, ok bool) {
	switch tokenIn {
	case p.Token0:
		return p.Reserve0, p.Reserve1, true
	case p.Token1:
		return p.Reserve1, p.Reserve0, true
	default:
		return nil, nil, false
	}
}

// Slot0 holds the first storage slot of a concentrated-liquidity pool.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         *big.Int
	Unlocked     bool
}

// V3Pool holds the observed state of a concentrated-liquidity pool.
type V3Pool struct {
	Address      common.Address
	Token0       common.Address
	Token1       common.Address
	Fee          uint32
	TickSpacing  int64
	SqrtPriceX96 *big.Int
	Tick         *big.Int
	Liquidity    *big.Int
}

// V3Quote holds the result of a quoter simulation. SqrtPriceX96After,
// TicksCrossed and GasEstimate are only populated when the quoter speaks
// the QuoterV2 interface; the V1 fallback yields the output amount alone.
type V3Quote struct {
	AmountOut         *big.Int
	SqrtPriceX96After *big.Int
	TicksCrossed      uint32
	GasEstimate       *big.Int
}

// HasPoolStateAfter reports whether the quote carries the post-swap price.
func (q *V3Quote) HasPoolStateAfter() bool {
	return q.SqrtPriceX96After != nil && q.SqrtPriceX96After.Sign() > 0
}
