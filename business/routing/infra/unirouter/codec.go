// Package unirouter packs calldata for Uniswap-style router contracts. It
// covers the three V2 swap selectors, the V3 exactInputSingle call and the
// ERC-20 approve routes may need first.
package unirouter

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-aggregator/internal/apperror"
)

// V2RouterSwapABI is the swap surface of the constant-product router.
const V2RouterSwapABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactETHForTokens",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"},
			{"internalType": "address[]", "name": "path", "type": "address[]"},
			{"internalType": "address", "name": "to", "type": "address"},
			{"internalType": "uint256", "name": "deadline", "type": "uint256"}
		],
		"name": "swapExactTokensForETH",
		"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// V3SwapRouterABI is the single-hop swap surface of the V3 router.
const V3SwapRouterABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "deadline", "type": "uint256"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct ISwapRouter.ExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactInputSingle",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	}
]`

// ERC20ApproveABI is the allowance-granting surface of token contracts.
const ERC20ApproveABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// exactInputSingleParams mirrors ISwapRouter.ExactInputSingleParams.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int // uint24
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int // uint160, 0 for no limit
}

// Codec packs router and token calldata. ABIs are parsed once at
// construction, so packing never fails on malformed JSON later.
type Codec struct {
	v2Router abi.ABI
	v3Router abi.ABI
	erc20    abi.ABI
}

// NewCodec parses the router ABIs.
func NewCodec() (*Codec, error) {
	c := &Codec{}

	var err error
	for src, dst := range map[string]*abi.ABI{
		V2RouterSwapABI: &c.v2Router,
		V3SwapRouterABI: &c.v3Router,
		ERC20ApproveABI: &c.erc20,
	} {
		if *dst, err = abi.JSON(strings.NewReader(src)); err != nil {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("router ABI"),
				apperror.WithCause(err))
		}
	}

	return c, nil
}

// SwapExactTokensForTokens packs the token-to-token V2 swap.
func (c *Codec) SwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return c.pack(c.v2Router, "swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
}

// SwapExactETHForTokens packs the native-input V2 swap. The input amount
// travels as transaction value, not as an argument.
func (c *Codec) SwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return c.pack(c.v2Router, "swapExactETHForTokens", amountOutMin, path, to, deadline)
}

// SwapExactTokensForETH packs the native-output V2 swap.
func (c *Codec) SwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return c.pack(c.v2Router, "swapExactTokensForETH", amountIn, amountOutMin, path, to, deadline)
}

// ExactInputSingle packs the single-hop V3 swap with no price limit.
func (c *Codec) ExactInputSingle(tokenIn, tokenOut common.Address, fee uint32, recipient common.Address, deadline, amountIn, amountOutMin *big.Int) ([]byte, error) {
	params := exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		Recipient:         recipient,
		Deadline:          deadline,
		AmountIn:          amountIn,
		AmountOutMinimum:  amountOutMin,
		SqrtPriceLimitX96: big.NewInt(0),
	}
	return c.pack(c.v3Router, "exactInputSingle", params)
}

// Approve packs the ERC-20 approve call.
func (c *Codec) Approve(spender common.Address, amount *big.Int) ([]byte, error) {
	return c.pack(c.erc20, "approve", spender, amount)
}

func (c *Codec) pack(contract abi.ABI, method string, args ...any) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeEncodingFailed,
			apperror.WithContext(method),
			apperror.WithCause(err))
	}
	return data, nil
}
