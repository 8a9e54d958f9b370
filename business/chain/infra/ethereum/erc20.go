package ethereum

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
)

// TokenName returns the ERC-20 name.
func (r *Reader) TokenName(ctx context.Context, token common.Address) (string, error) {
	return r.readString(ctx, "name", "erc20.name", token)
}

// TokenSymbol returns the ERC-20 symbol.
func (r *Reader) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	return r.readString(ctx, "symbol", "erc20.symbol", token)
}

// TokenDecimals returns the ERC-20 decimals.
func (r *Reader) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := r.erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "erc20.decimals", token, data)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, apperror.New(apperror.CodeUnknownToken,
			apperror.WithContext(fmt.Sprintf("no token contract at %s", token.Hex())))
	}

	values, err := r.erc20ABI.Unpack("decimals", out)
	if err != nil || len(values) < 1 {
		return 0, apperror.New(apperror.CodeUnknownToken,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s does not answer decimals()", token.Hex())))
	}
	return values[0].(uint8), nil
}

// BalanceOf returns the ERC-20 balance of an account.
func (r *Reader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := r.erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "erc20.balanceOf", token, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBig(r.erc20ABI, "balanceOf", out)
}

// Allowance returns the spending allowance the owner granted the spender.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*domain.Allowance, error) {
	data, err := r.erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "erc20.allowance", token, data)
	if err != nil {
		return nil, err
	}

	amount, err := r.unpackBig(r.erc20ABI, "allowance", out)
	if err != nil {
		return nil, err
	}

	return &domain.Allowance{
		Token:   token,
		Owner:   owner,
		Spender: spender,
		Amount:  amount,
	}, nil
}

// TokenInfo reads name, symbol and decimals for a token, serving repeat
// lookups from cache. A token that cannot answer decimals() is unknown;
// name and symbol failures degrade to empty strings.
func (r *Reader) TokenInfo(ctx context.Context, token common.Address) (*domain.TokenInfo, error) {
	key := token.Hex()
	if info, found := r.infoCache.Get(ctx, key); found {
		return info, nil
	}

	decimals, err := r.TokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}

	symbol, err := r.TokenSymbol(ctx, token)
	if err != nil {
		r.logger.Debug(ctx, "token symbol read failed", "token", key, "error", err)
		symbol = ""
	}
	name, err := r.TokenName(ctx, token)
	if err != nil {
		r.logger.Debug(ctx, "token name read failed", "token", key, "error", err)
		name = ""
	}

	info := &domain.TokenInfo{
		Address:  token,
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}
	r.infoCache.Set(ctx, key, info, 0)

	return info, nil
}

func (r *Reader) readString(ctx context.Context, method, spanName string, to common.Address) (string, error) {
	data, err := r.erc20ABI.Pack(method)
	if err != nil {
		return "", fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, spanName, to, data)
	if err != nil {
		return "", err
	}

	values, err := r.erc20ABI.Unpack(method, out)
	if err != nil || len(values) < 1 {
		// Pre-standard tokens (MKR among them) return bytes32 where the
		// ABI says string. A single null-padded word is readable as-is.
		if s, ok := decodeBytes32String(out); ok {
			return s, nil
		}
		return "", apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed %s result from %s", method, to.Hex())))
	}
	s, ok := values[0].(string)
	if !ok {
		return "", apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("non-string %s result from %s", method, to.Hex())))
	}
	return s, nil
}

func decodeBytes32String(out []byte) (string, bool) {
	if len(out) != 32 {
		return "", false
	}
	trimmed := bytes.TrimRight(out, "\x00")
	if len(trimmed) == 0 {
		return "", false
	}
	for _, b := range trimmed {
		if b < 0x20 || b > 0x7e {
			return "", false
		}
	}
	return string(trimmed), true
}
