package domain

import (
	"errors"
	"math/big"
	"testing"
)

func TestSlippageBps(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    int64
		wantErr error
	}{
		{name: "zero", percent: 0, want: 0},
		{name: "default_half_percent", percent: 0.5, want: 50},
		{name: "one_percent", percent: 1, want: 100},
		{name: "five_hundredths", percent: 0.05, want: 5},
		{name: "tenth", percent: 0.1, want: 10},
		{name: "fractional_bps_floored", percent: 12.34, want: 1234},
		{name: "full_range", percent: 100, want: 10000},
		{name: "negative", percent: -0.1, wantErr: ErrInvalidSlippage},
		{name: "above_hundred", percent: 100.01, wantErr: ErrInvalidSlippage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SlippageBps(tt.percent)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SlippageBps(%v) error = %v, want %v", tt.percent, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SlippageBps(%v) error = %v", tt.percent, err)
			}
			if got != tt.want {
				t.Errorf("SlippageBps(%v) = %d, want %d", tt.percent, got, tt.want)
			}
		})
	}
}

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name      string
		amountOut *big.Int
		bps       int64
		want      *big.Int
	}{
		{name: "zero_bps_identity", amountOut: big.NewInt(1_000_000), bps: 0, want: big.NewInt(1_000_000)},
		{name: "fifty_bps", amountOut: big.NewInt(1_000_000), bps: 50, want: big.NewInt(995_000)},
		{name: "hundred_bps", amountOut: big.NewInt(1_000_000), bps: 100, want: big.NewInt(990_000)},
		{name: "large_bps", amountOut: big.NewInt(1_000_000), bps: 1234, want: big.NewInt(876_600)},
		{
			name:      "wei_scale",
			amountOut: mustBig(t, "1149150689798175283"),
			bps:       50,
			want:      mustBig(t, "1143404936349184406"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MinAmountOut(tt.amountOut, tt.bps)
			if got.Cmp(tt.want) != 0 {
				t.Errorf("MinAmountOut(%s, %d) = %s, want %s", tt.amountOut, tt.bps, got, tt.want)
			}
			if got.Cmp(tt.amountOut) > 0 {
				t.Errorf("MinAmountOut(%s, %d) = %s exceeds the input", tt.amountOut, tt.bps, got)
			}
		})
	}
}

func TestMaxAmountIn(t *testing.T) {
	got := MaxAmountIn(big.NewInt(1_000_000), 50)
	if want := big.NewInt(1_005_000); got.Cmp(want) != 0 {
		t.Errorf("MaxAmountIn = %s, want %s", got, want)
	}
}

func TestApplySlippage(t *testing.T) {
	amount := big.NewInt(500_000)

	// Zero slippage is the identity.
	got, err := ApplySlippage(amount, 0)
	if err != nil {
		t.Fatalf("ApplySlippage(amount, 0) error = %v", err)
	}
	if got.Cmp(amount) != 0 {
		t.Errorf("ApplySlippage(amount, 0) = %s, want %s", got, amount)
	}

	// Re-applying zero slippage leaves a guarded amount unchanged.
	guarded, err := ApplySlippage(amount, 0.5)
	if err != nil {
		t.Fatalf("ApplySlippage(amount, 0.5) error = %v", err)
	}
	again, err := ApplySlippage(guarded, 0)
	if err != nil {
		t.Fatalf("ApplySlippage(guarded, 0) error = %v", err)
	}
	if again.Cmp(guarded) != 0 {
		t.Errorf("ApplySlippage(guarded, 0) = %s, want %s", again, guarded)
	}

	if _, err := ApplySlippage(nil, 0.5); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ApplySlippage(nil, 0.5) error = %v, want %v", err, ErrInvalidAmount)
	}
	if _, err := ApplySlippage(amount, 101); !errors.Is(err, ErrInvalidSlippage) {
		t.Errorf("ApplySlippage(amount, 101) error = %v, want %v", err, ErrInvalidSlippage)
	}
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big.Int literal %q", s)
	}
	return v
}
