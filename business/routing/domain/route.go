package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Approval describes the allowance requirement for one route. Spender is
// the router receiving the swap, so two routes through different routers
// carry independent descriptors. Data holds the packed approve call when
// the approval is needed.
type Approval struct {
	Needed  bool
	Token   common.Address
	Spender common.Address
	Amount  *big.Int
	Message string
	Data    []byte
}

// NoApproval returns the descriptor for routes that need no allowance.
func NoApproval(message string) Approval {
	return Approval{Needed: false, Message: message}
}

// ApprovalNeeded returns the descriptor for routes that must be approved
// before sending.
func ApprovalNeeded(token, spender common.Address, amount *big.Int, message string) Approval {
	return Approval{
		Needed:  true,
		Token:   token,
		Spender: spender,
		Amount:  amount,
		Message: message,
	}
}

// WithCalldata attaches the packed approve call so a caller can send the
// approval without encoding it again.
func (a Approval) WithCalldata(data []byte) Approval {
	a.Data = data
	return a
}

// RouteArtifact is a ready-to-send transaction skeleton for one quote.
// From stays the zero address until the caller fills in the sender; Value
// is non-zero only when the input side is the native token.
type RouteArtifact struct {
	To           common.Address
	Data         []byte
	Value        *big.Int
	From         common.Address
	GasEstimate  uint64
	Deadline     int64
	MinAmountOut *big.Int
	Approval     Approval
}
