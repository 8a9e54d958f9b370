// Package domain defines the observation model for the watch context: the
// pairs being watched and the periodic snapshots taken of them.
package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// Pair identifies a watched trading pair by token reference. Each side is a
// symbol or hex address understood by the token registry.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair parses a "BASE-QUOTE" spec such as "WETH-USDC".
func ParsePair(spec string) (Pair, error) {
	parts := strings.Split(strings.TrimSpace(spec), "-")
	if len(parts) != 2 {
		return Pair{}, fmt.Errorf("invalid pair spec %q: want BASE-QUOTE", spec)
	}

	base := strings.TrimSpace(parts[0])
	quote := strings.TrimSpace(parts[1])
	if base == "" || quote == "" {
		return Pair{}, fmt.Errorf("invalid pair spec %q: empty side", spec)
	}
	if strings.EqualFold(base, quote) {
		return Pair{}, fmt.Errorf("invalid pair spec %q: both sides are the same token", spec)
	}

	return Pair{Base: base, Quote: quote}, nil
}

// ParsePairs parses a list of pair specs, failing on the first bad one.
func ParsePairs(specs []string) ([]Pair, error) {
	pairs := make([]Pair, 0, len(specs))
	for _, spec := range specs {
		p, err := ParsePair(spec)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// String returns the pair in "BASE-QUOTE" form.
func (p Pair) String() string {
	return p.Base + "-" + p.Quote
}

// Snapshot is one observation of a watched pair: the aggregated quote for the
// configured trade size plus the chain state it was taken under. Err is set
// when the observation failed; the quote fields are nil in that case.
type Snapshot struct {
	Pair      Pair
	TokenIn   *asset.Asset
	TokenOut  *asset.Asset
	AmountIn  *big.Int
	Quote     *quotingDomain.AggregatedQuote
	Block     *chainDomain.Block
	Gas       *chainDomain.GasPrice
	Err       error
	Timestamp time.Time
}

// HasQuote reports whether the snapshot carries a usable quote.
func (s *Snapshot) HasQuote() bool {
	return s != nil && s.Err == nil && s.Quote != nil && s.Quote.Best != nil
}

// AmountOutFormatted renders the best output amount in display units, or ""
// when there is no quote.
func (s *Snapshot) AmountOutFormatted() string {
	if !s.HasQuote() || s.TokenOut == nil {
		return ""
	}
	return asset.FormatUnits(s.Quote.Best.AmountOut, s.TokenOut.Decimals())
}

// AmountInFormatted renders the requested input amount in display units, or
// "" when the tokens were never resolved.
func (s *Snapshot) AmountInFormatted() string {
	if s == nil || s.TokenIn == nil || s.AmountIn == nil {
		return ""
	}
	return asset.FormatUnits(s.AmountIn, s.TokenIn.Decimals())
}
