package domain

import (
	"math"
	"math/big"
	"testing"
)

// sqrtX96 scales a float sqrt-price into X96 fixed point for test seeding.
func sqrtX96(v float64) *big.Int {
	scaled, _ := new(big.Float).Mul(
		big.NewFloat(v),
		new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96)),
	).Int(nil)
	return scaled
}

func TestPrice0In1(t *testing.T) {
	tests := []struct {
		name      string
		sqrtPrice *big.Int
		decimals0 uint8
		decimals1 uint8
		want      float64
		tolerance float64
	}{
		{
			name:      "unit_price_same_decimals",
			sqrtPrice: sqrtX96(1),
			decimals0: 18,
			decimals1: 18,
			want:      1.0,
			tolerance: 1e-9,
		},
		{
			name:      "price_four_same_decimals",
			sqrtPrice: sqrtX96(2),
			decimals0: 18,
			decimals1: 18,
			want:      4.0,
			tolerance: 1e-9,
		},
		{
			// USDC(6)/WETH(18) style pool: raw ratio 10^12 larger than human.
			name:      "decimal_adjustment",
			sqrtPrice: sqrtX96(math.Sqrt(1e12)),
			decimals0: 6,
			decimals1: 18,
			want:      1.0,
			tolerance: 1e-6,
		},
		{
			name:      "zero_price",
			sqrtPrice: big.NewInt(0),
			decimals0: 18,
			decimals1: 18,
			want:      0,
			tolerance: 0,
		},
		{
			name:      "nil_price",
			sqrtPrice: nil,
			decimals0: 18,
			decimals1: 18,
			want:      0,
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price0In1(tt.sqrtPrice, tt.decimals0, tt.decimals1)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Price0In1() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrice1In0(t *testing.T) {
	sqrt := sqrtX96(2) // price0in1 = 4
	got := Price1In0(sqrt, 18, 18)
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Price1In0() = %v, want 0.25", got)
	}

	if got := Price1In0(big.NewInt(0), 18, 18); got != 0 {
		t.Errorf("Price1In0(0) = %v, want 0", got)
	}
}

func TestV3PriceImpact(t *testing.T) {
	tests := []struct {
		name      string
		before    *big.Int
		after     *big.Int
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "no_move",
			before:    sqrtX96(1),
			after:     sqrtX96(1),
			want:      0,
			tolerance: 1e-9,
		},
		{
			// (1.01)^2 - 1 = 2.01%
			name:      "one_percent_sqrt_move_up",
			before:    sqrtX96(1),
			after:     sqrtX96(1.01),
			want:      2.01,
			tolerance: 1e-6,
		},
		{
			// (0.99)^2 - 1 = -1.99%, impact is the magnitude
			name:      "one_percent_sqrt_move_down",
			before:    sqrtX96(1),
			after:     sqrtX96(0.99),
			want:      1.99,
			tolerance: 1e-6,
		},
		{
			name:    "zero_before",
			before:  big.NewInt(0),
			after:   sqrtX96(1),
			wantErr: true,
		},
		{
			name:    "nil_after",
			before:  sqrtX96(1),
			after:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := V3PriceImpact(tt.before, tt.after)
			if tt.wantErr {
				if err == nil {
					t.Fatal("V3PriceImpact() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("V3PriceImpact() error = %v", err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("V3PriceImpact() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeuristicSqrtPriceAfter(t *testing.T) {
	before := sqrtX96(1)

	// Reconstructing from a 2.01% impact should land on ~1.01 in sqrt space.
	after := HeuristicSqrtPriceAfter(before, 2.01)
	if after == nil {
		t.Fatal("HeuristicSqrtPriceAfter() = nil")
	}

	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(after),
		new(big.Float).SetInt(before),
	).Float64()
	if math.Abs(ratio-1.01) > 1e-6 {
		t.Errorf("after/before = %v, want ~1.01", ratio)
	}

	// Round-trip: the reconstructed price reproduces the impact it came from.
	impact, err := V3PriceImpact(before, after)
	if err != nil {
		t.Fatalf("V3PriceImpact() error = %v", err)
	}
	if math.Abs(impact-2.01) > 1e-4 {
		t.Errorf("round-trip impact = %v, want ~2.01", impact)
	}

	if got := HeuristicSqrtPriceAfter(nil, 1); got != nil {
		t.Errorf("HeuristicSqrtPriceAfter(nil) = %v, want nil", got)
	}
}
