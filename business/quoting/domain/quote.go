package domain

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-aggregator/internal/asset"
)

// Protocol tags the venue flavor a quote came from.
type Protocol string

const (
	ProtocolV2 Protocol = "V2"
	ProtocolV3 Protocol = "V3"
)

// VenueQuote is a single venue's answer for a swap. AmountOut is in integer
// units of the output token. FeeTier is set only for V3 quotes; V2 quotes
// rank as tier 0.
type VenueQuote struct {
	VenueName   string
	Protocol    Protocol
	AmountOut   *big.Int
	PriceImpact float64
	GasEstimate uint64
	FeeTier     uint32
	PoolAddress common.Address
	Warning     Warning
	Timestamp   time.Time
}

// NewVenueQuote creates a VenueQuote and classifies its impact.
func NewVenueQuote(venueName string, protocol Protocol, amountOut *big.Int, priceImpact float64, gasEstimate uint64, feeTier uint32, pool common.Address) *VenueQuote {
	return &VenueQuote{
		VenueName:   venueName,
		Protocol:    protocol,
		AmountOut:   amountOut,
		PriceImpact: priceImpact,
		GasEstimate: gasEstimate,
		FeeTier:     feeTier,
		PoolAddress: pool,
		Warning:     ClassifyImpact(priceImpact),
		Timestamp:   time.Now(),
	}
}

// Label renders the venue with its protocol, e.g. "Uniswap V3".
func (q *VenueQuote) Label() string {
	return q.VenueName + " " + string(q.Protocol)
}

// TierLabel renders the venue with its fee tier, e.g. "Uniswap V3 0.3%".
// V2 venues have no tier and render as Label does.
func (q *VenueQuote) TierLabel() string {
	if q.Protocol == ProtocolV3 {
		return q.Label() + " " + FeeTierPercent(q.FeeTier) + "%"
	}
	return q.Label()
}

// Rank sorts quotes into the canonical total order: amountOut descending,
// then lower price impact, then lower fee tier, then venue name. The order
// is deterministic for any input permutation.
func Rank(quotes []*VenueQuote) []*VenueQuote {
	ranked := make([]*VenueQuote, len(quotes))
	copy(ranked, quotes)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if c := a.AmountOut.Cmp(b.AmountOut); c != 0 {
			return c > 0
		}
		if a.PriceImpact != b.PriceImpact {
			return a.PriceImpact < b.PriceImpact
		}
		if a.FeeTier != b.FeeTier {
			return a.FeeTier < b.FeeTier
		}
		return a.VenueName < b.VenueName
	})

	return ranked
}

// Savings quantifies the best quote's advantage over the worst.
type Savings struct {
	Percentage float64
	Amount     *big.Int
}

// ComputeSavings compares the best output against the worst surviving one.
// A single quote yields zero savings.
func ComputeSavings(ranked []*VenueQuote) Savings {
	if len(ranked) < 2 {
		return Savings{Percentage: 0, Amount: big.NewInt(0)}
	}

	best := ranked[0].AmountOut
	worst := ranked[len(ranked)-1].AmountOut

	diff := new(big.Int).Sub(best, worst)
	pct := 0.0
	if worst.Sign() > 0 {
		pct = bigRatio(diff, worst) * 100
	}

	return Savings{Percentage: pct, Amount: diff}
}

// AggregatedQuote is the full ranked answer for one swap request.
type AggregatedQuote struct {
	TokenIn        *asset.Asset
	TokenOut       *asset.Asset
	AmountIn       *big.Int
	Quotes         []*VenueQuote // ranked, best first
	Best           *VenueQuote
	Savings        Savings
	Recommendation string
	Timestamp      time.Time
}

// NewAggregatedQuote ranks the surviving quotes and derives savings and the
// recommendation. The caller guarantees at least one quote.
func NewAggregatedQuote(tokenIn, tokenOut *asset.Asset, amountIn *big.Int, quotes []*VenueQuote) *AggregatedQuote {
	ranked := Rank(quotes)
	savings := ComputeSavings(ranked)

	return &AggregatedQuote{
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		AmountIn:       amountIn,
		Quotes:         ranked,
		Best:           ranked[0],
		Savings:        savings,
		Recommendation: Recommendation(ranked[0], savings),
		Timestamp:      time.Now(),
	}
}

// Recommendation renders the human-readable routing advice for the best
// quote, e.g. "Use Uniswap V3 (0.05% fee tier) for 0.20% better price".
func Recommendation(best *VenueQuote, savings Savings) string {
	if best.Protocol == ProtocolV3 {
		return fmt.Sprintf("Use %s V3 (%s%% fee tier) for %.2f%% better price",
			best.VenueName, FeeTierPercent(best.FeeTier), savings.Percentage)
	}
	return fmt.Sprintf("Use %s V2 for %.2f%% better price",
		best.VenueName, savings.Percentage)
}
