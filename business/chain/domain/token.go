// Package domain contains the core domain types for the chain context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo holds ERC-20 metadata read from the chain.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Name     string
	Decimals uint8
	IsNative bool
}

// Allowance holds the result of an ERC-20 allowance query.
type Allowance struct {
	Token   common.Address
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

// Covers reports whether the allowance is enough for the given amount.
func (a *Allowance) Covers(amount *big.Int) bool {
	if a.Amount == nil || amount == nil {
		return false
	}
	return a.Amount.Cmp(amount) >= 0
}
