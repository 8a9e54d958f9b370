// Package app contains application services and port definitions for the routing context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
)

// SwapEncoder packs router calldata for both protocol flavors plus the
// ERC-20 approve call routes may need first.
type SwapEncoder interface {
	SwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error)
	SwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error)
	SwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error)
	ExactInputSingle(tokenIn, tokenOut common.Address, fee uint32, recipient common.Address, deadline, amountIn, amountOutMin *big.Int) ([]byte, error)
	Approve(spender common.Address, amount *big.Int) ([]byte, error)
}

// AllowanceReader reads ERC-20 allowances granted to router contracts. The
// chain context's contract reader satisfies it structurally.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*chainDomain.Allowance, error)
}
