// Package asset provides a type-safe model for on-chain tokens.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (API, parsing, display).
package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeAddress is the sentinel address denoting the chain's native gas
// token (ETH, MATIC, ...). The all-E form is the convention wallets and
// routers share; comparison is byte-wise, so any input casing matches once
// parsed.
var NativeAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsNativeAddress reports whether addr is the native-token sentinel.
func IsNativeAddress(addr common.Address) bool {
	return addr == NativeAddress
}

// HexLower formats an address as lowercase 0x-prefixed hex. API responses
// always use this form; the EIP-55 mixed-case form is accepted on input
// only.
func HexLower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// AssetID uniquely identifies an asset by chain and contract address.
// Native coins carry the sentinel NativeAddress.
// This is the TRUE identity - not the symbol.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a native coin (ETH, MATIC, etc).
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{
		chainID: chainID,
		address: NativeAddress,
	}
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("token address cannot be zero - use NewNativeAssetID for native coins")
	}
	if IsNativeAddress(addr) {
		return NewNativeAssetID(chainID)
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

// ChainID returns the chain ID.
func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address (the sentinel for native coins).
func (id AssetID) Address() common.Address {
	return id.address
}

// IsNative returns true if this is a native coin (not an ERC20 token).
func (id AssetID) IsNative() bool {
	return IsNativeAddress(id.address)
}

// IsToken returns true if this is an ERC20 token.
func (id AssetID) IsToken() bool {
	return id.chainID != 0 && !id.IsNative() && id.address != (common.Address{})
}

// String returns a human-readable representation.
func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, HexLower(id.address))
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
