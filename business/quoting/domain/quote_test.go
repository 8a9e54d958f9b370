package domain

import (
	"math"
	"math/big"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func quote(venue string, proto Protocol, out int64, impact float64, feeTier uint32) *VenueQuote {
	return NewVenueQuote(venue, proto, big.NewInt(out), impact, 150000,
		feeTier, common.HexToAddress("0x1111111111111111111111111111111111111111"))
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		quotes    []*VenueQuote
		wantFirst string // venue + fee tier of the expected winner
	}{
		{
			name: "highest_output_wins",
			quotes: []*VenueQuote{
				quote("Uniswap", ProtocolV2, 1_000_000_000, 0.5, 0),
				quote("Uniswap", ProtocolV3, 1_002_000_000, 0.4, 3000),
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.3, 500),
			},
			wantFirst: "Uniswap/3000",
		},
		{
			name: "tie_broken_by_lower_impact",
			quotes: []*VenueQuote{
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.9, 500),
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.2, 3000),
			},
			wantFirst: "Uniswap/3000",
		},
		{
			name: "tie_broken_by_lower_fee_tier",
			quotes: []*VenueQuote{
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.5, 3000),
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.5, 500),
			},
			wantFirst: "Uniswap/500",
		},
		{
			name: "v2_ranks_as_tier_zero",
			quotes: []*VenueQuote{
				quote("Uniswap", ProtocolV3, 1_000_000_000, 0.5, 100),
				quote("Uniswap", ProtocolV2, 1_000_000_000, 0.5, 0),
			},
			wantFirst: "Uniswap/0",
		},
		{
			name: "full_tie_broken_by_venue_name",
			quotes: []*VenueQuote{
				quote("Sushi", ProtocolV2, 1_000_000_000, 0.5, 0),
				quote("Pancake", ProtocolV2, 1_000_000_000, 0.5, 0),
			},
			wantFirst: "Pancake/0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank(tt.quotes)
			got := ranked[0].VenueName + "/" + strconv.Itoa(int(ranked[0].FeeTier))
			if got != tt.wantFirst {
				t.Errorf("Rank()[0] = %s, want %s", got, tt.wantFirst)
			}

			// Ranking is deterministic under permutation.
			reversed := make([]*VenueQuote, 0, len(tt.quotes))
			for i := len(tt.quotes) - 1; i >= 0; i-- {
				reversed = append(reversed, tt.quotes[i])
			}
			ranked2 := Rank(reversed)
			for i := range ranked {
				if ranked[i] != ranked2[i] {
					t.Errorf("rank order differs under permutation at %d", i)
				}
			}
		})
	}
}

func TestComputeSavings(t *testing.T) {
	tests := []struct {
		name       string
		outputs    []int64
		wantPct    float64
		wantAmount int64
	}{
		{
			name:       "two_tiers_twenty_bps",
			outputs:    []int64{1_002_000_000, 1_000_000_000},
			wantPct:    0.20,
			wantAmount: 2_000_000,
		},
		{
			name:       "single_quote_zero_savings",
			outputs:    []int64{1_000_000_000},
			wantPct:    0,
			wantAmount: 0,
		},
		{
			name:       "identical_quotes_zero_savings",
			outputs:    []int64{500, 500, 500},
			wantPct:    0,
			wantAmount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := make([]*VenueQuote, len(tt.outputs))
			for i, out := range tt.outputs {
				quotes[i] = quote("Uniswap", ProtocolV3, out, 0.1, 500)
			}
			ranked := Rank(quotes)
			savings := ComputeSavings(ranked)

			if math.Abs(savings.Percentage-tt.wantPct) > 1e-9 {
				t.Errorf("Percentage = %v, want %v", savings.Percentage, tt.wantPct)
			}
			if savings.Amount.Int64() != tt.wantAmount {
				t.Errorf("Amount = %v, want %v", savings.Amount, tt.wantAmount)
			}
			if savings.Percentage < 0 {
				t.Error("savings percentage must be non-negative")
			}
		})
	}
}

func TestNewAggregatedQuote(t *testing.T) {
	quotes := []*VenueQuote{
		quote("Uniswap", ProtocolV3, 1_000_000_000, 0.3, 500),
		quote("Uniswap", ProtocolV3, 1_002_000_000, 0.4, 3000),
	}

	agg := NewAggregatedQuote(nil, nil, big.NewInt(1_000_000), quotes)

	if agg.Best.AmountOut.Int64() != 1_002_000_000 {
		t.Errorf("Best.AmountOut = %v, want 1002000000", agg.Best.AmountOut)
	}

	// Best is always a member of the ranked list.
	found := false
	for _, q := range agg.Quotes {
		if q == agg.Best {
			found = true
		}
		if q.AmountOut.Cmp(agg.Best.AmountOut) > 0 {
			t.Errorf("quote %s beats best", q.AmountOut)
		}
	}
	if !found {
		t.Error("best quote not present in ranked list")
	}

	if math.Abs(agg.Savings.Percentage-0.20) > 1e-9 {
		t.Errorf("Savings.Percentage = %v, want 0.20", agg.Savings.Percentage)
	}
}

func TestRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		best    *VenueQuote
		savings Savings
		want    string
	}{
		{
			name:    "v3_five_bps_tier",
			best:    quote("Uniswap", ProtocolV3, 1_002_000_000, 0.4, 500),
			savings: Savings{Percentage: 0.20},
			want:    "Use Uniswap V3 (0.05% fee tier) for 0.20% better price",
		},
		{
			name:    "v3_thirty_bps_tier",
			best:    quote("Uniswap", ProtocolV3, 1_002_000_000, 0.4, 3000),
			savings: Savings{Percentage: 1.5},
			want:    "Use Uniswap V3 (0.3% fee tier) for 1.50% better price",
		},
		{
			name:    "v2_zero_savings",
			best:    quote("Uniswap", ProtocolV2, 1_000_000_000, 0.4, 0),
			savings: Savings{Percentage: 0},
			want:    "Use Uniswap V2 for 0.00% better price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommendation(tt.best, tt.savings); got != tt.want {
				t.Errorf("Recommendation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVenueQuoteLabels(t *testing.T) {
	v3 := quote("Uniswap", ProtocolV3, 1_002_000_000, 0.4, 3000)
	if got := v3.Label(); got != "Uniswap V3" {
		t.Errorf("Label() = %q, want %q", got, "Uniswap V3")
	}
	if got := v3.TierLabel(); got != "Uniswap V3 0.3%" {
		t.Errorf("TierLabel() = %q, want %q", got, "Uniswap V3 0.3%")
	}

	v2 := quote("Uniswap", ProtocolV2, 1_000_000_000, 0.4, 0)
	if got := v2.Label(); got != "Uniswap V2" {
		t.Errorf("Label() = %q, want %q", got, "Uniswap V2")
	}
	if got := v2.TierLabel(); got != "Uniswap V2" {
		t.Errorf("TierLabel() = %q, want %q", got, "Uniswap V2")
	}
}

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		impact    float64
		wantLevel WarningLevel
		wantBlock bool
	}{
		{0, WarningLow, false},
		{0.99, WarningLow, false},
		{1, WarningMedium, false},
		{2.99, WarningMedium, false},
		{3, WarningHigh, false},
		{4.99, WarningHigh, false},
		{5, WarningVeryHigh, false},
		{14.99, WarningVeryHigh, false},
		{15, WarningExtreme, true},
		{47.57, WarningExtreme, true},
	}

	for _, tt := range tests {
		got := ClassifyImpact(tt.impact)
		if got.Level != tt.wantLevel {
			t.Errorf("ClassifyImpact(%v).Level = %s, want %s", tt.impact, got.Level, tt.wantLevel)
		}
		if got.ShouldBlock != tt.wantBlock {
			t.Errorf("ClassifyImpact(%v).ShouldBlock = %v, want %v", tt.impact, got.ShouldBlock, tt.wantBlock)
		}
	}
}

func TestFeeTierHelpers(t *testing.T) {
	wantSpacing := map[uint32]int64{100: 1, 500: 10, 3000: 60, 10000: 200}
	for fee, want := range wantSpacing {
		if got := TickSpacing(fee); got != want {
			t.Errorf("TickSpacing(%d) = %d, want %d", fee, got, want)
		}
		if !IsCanonicalFeeTier(fee) {
			t.Errorf("IsCanonicalFeeTier(%d) = false", fee)
		}
	}
	if TickSpacing(1234) != 0 || IsCanonicalFeeTier(1234) {
		t.Error("non-canonical tier must report zero spacing")
	}

	wantPercent := map[uint32]string{100: "0.01", 500: "0.05", 3000: "0.3", 10000: "1"}
	for fee, want := range wantPercent {
		if got := FeeTierPercent(fee); got != want {
			t.Errorf("FeeTierPercent(%d) = %q, want %q", fee, got, want)
		}
	}
}
