package unirouter

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	weth      = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc      = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	recipient = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender   = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
)

func newCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return c
}

// word returns the i-th 32-byte argument word after the selector.
func word(data []byte, i int) *big.Int {
	return new(big.Int).SetBytes(data[4+32*i : 36+32*i])
}

func addrWord(data []byte, i int) common.Address {
	return common.BytesToAddress(word(data, i).Bytes())
}

func TestSelectors(t *testing.T) {
	c := newCodec(t)
	path := []common.Address{weth, usdc}
	deadline := big.NewInt(1_700_000_000)

	tests := []struct {
		name     string
		pack     func() ([]byte, error)
		selector string
	}{
		{
			name: "swapExactTokensForTokens",
			pack: func() ([]byte, error) {
				return c.SwapExactTokensForTokens(big.NewInt(1), big.NewInt(2), path, recipient, deadline)
			},
			selector: "38ed1739",
		},
		{
			name: "swapExactETHForTokens",
			pack: func() ([]byte, error) {
				return c.SwapExactETHForTokens(big.NewInt(2), path, recipient, deadline)
			},
			selector: "7ff36ab5",
		},
		{
			name: "swapExactTokensForETH",
			pack: func() ([]byte, error) {
				return c.SwapExactTokensForETH(big.NewInt(1), big.NewInt(2), path, recipient, deadline)
			},
			selector: "18cbafe5",
		},
		{
			name: "exactInputSingle",
			pack: func() ([]byte, error) {
				return c.ExactInputSingle(weth, usdc, 3000, recipient, deadline, big.NewInt(1), big.NewInt(2))
			},
			selector: "414bf389",
		},
		{
			name: "approve",
			pack: func() ([]byte, error) {
				return c.Approve(spender, big.NewInt(1))
			},
			selector: "095ea7b3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.pack()
			if err != nil {
				t.Fatalf("pack error = %v", err)
			}
			want, _ := hex.DecodeString(tt.selector)
			if !bytes.Equal(data[:4], want) {
				t.Errorf("selector = %x, want %s", data[:4], tt.selector)
			}
		})
	}
}

func TestSwapExactTokensForTokensLayout(t *testing.T) {
	c := newCodec(t)
	amountIn := big.NewInt(1_000_000_000)
	minOut := big.NewInt(995_000_000)
	deadline := big.NewInt(1_700_001_800)

	data, err := c.SwapExactTokensForTokens(amountIn, minOut, []common.Address{usdc, weth}, recipient, deadline)
	if err != nil {
		t.Fatalf("SwapExactTokensForTokens() error = %v", err)
	}
	if len(data) != 4+8*32 {
		t.Fatalf("len(data) = %d, want %d", len(data), 4+8*32)
	}

	if word(data, 0).Cmp(amountIn) != 0 {
		t.Errorf("amountIn word = %s, want %s", word(data, 0), amountIn)
	}
	if word(data, 1).Cmp(minOut) != 0 {
		t.Errorf("amountOutMin word = %s, want %s", word(data, 1), minOut)
	}
	if word(data, 2).Int64() != 160 {
		t.Errorf("path offset = %s, want 160", word(data, 2))
	}
	if addrWord(data, 3) != recipient {
		t.Errorf("to word = %s, want %s", addrWord(data, 3), recipient)
	}
	if word(data, 4).Cmp(deadline) != 0 {
		t.Errorf("deadline word = %s, want %s", word(data, 4), deadline)
	}
	if word(data, 5).Int64() != 2 {
		t.Errorf("path length = %s, want 2", word(data, 5))
	}
	if addrWord(data, 6) != usdc || addrWord(data, 7) != weth {
		t.Errorf("path = [%s, %s], want [%s, %s]", addrWord(data, 6), addrWord(data, 7), usdc, weth)
	}
}

func TestSwapExactETHForTokensLayout(t *testing.T) {
	c := newCodec(t)
	minOut := big.NewInt(2_000_000_000)
	deadline := big.NewInt(1_700_001_800)

	data, err := c.SwapExactETHForTokens(minOut, []common.Address{weth, usdc}, recipient, deadline)
	if err != nil {
		t.Fatalf("SwapExactETHForTokens() error = %v", err)
	}
	if len(data) != 4+7*32 {
		t.Fatalf("len(data) = %d, want %d", len(data), 4+7*32)
	}

	if word(data, 0).Cmp(minOut) != 0 {
		t.Errorf("amountOutMin word = %s, want %s", word(data, 0), minOut)
	}
	if word(data, 1).Int64() != 128 {
		t.Errorf("path offset = %s, want 128", word(data, 1))
	}
	if addrWord(data, 5) != weth || addrWord(data, 6) != usdc {
		t.Errorf("path starts with %s, %s, want wrapped-native first", addrWord(data, 5), addrWord(data, 6))
	}
}

func TestExactInputSingleLayout(t *testing.T) {
	c := newCodec(t)
	amountIn := big.NewInt(1_000_000)
	minOut := big.NewInt(995_000)
	deadline := big.NewInt(1_700_001_800)

	data, err := c.ExactInputSingle(weth, usdc, 3000, recipient, deadline, amountIn, minOut)
	if err != nil {
		t.Fatalf("ExactInputSingle() error = %v", err)
	}
	// Static tuple: eight words inlined after the selector.
	if len(data) != 4+8*32 {
		t.Fatalf("len(data) = %d, want %d", len(data), 4+8*32)
	}

	if addrWord(data, 0) != weth {
		t.Errorf("tokenIn = %s, want %s", addrWord(data, 0), weth)
	}
	if addrWord(data, 1) != usdc {
		t.Errorf("tokenOut = %s, want %s", addrWord(data, 1), usdc)
	}
	if word(data, 2).Int64() != 3000 {
		t.Errorf("fee = %s, want 3000", word(data, 2))
	}
	if addrWord(data, 3) != recipient {
		t.Errorf("recipient = %s, want %s", addrWord(data, 3), recipient)
	}
	if word(data, 4).Cmp(deadline) != 0 {
		t.Errorf("deadline = %s, want %s", word(data, 4), deadline)
	}
	if word(data, 5).Cmp(amountIn) != 0 {
		t.Errorf("amountIn = %s, want %s", word(data, 5), amountIn)
	}
	if word(data, 6).Cmp(minOut) != 0 {
		t.Errorf("amountOutMinimum = %s, want %s", word(data, 6), minOut)
	}
	if word(data, 7).Sign() != 0 {
		t.Errorf("sqrtPriceLimitX96 = %s, want 0", word(data, 7))
	}
}

func TestApprove(t *testing.T) {
	c := newCodec(t)

	data, err := c.Approve(spender, big.NewInt(1000))
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	want := "095ea7b3" +
		"0000000000000000000000007a250d5630b4cf539739df2c5dacb4c659f2488d" +
		"00000000000000000000000000000000000000000000000000000000000003e8"
	if got := hex.EncodeToString(data); got != want {
		t.Errorf("Approve calldata = %s, want %s", got, want)
	}
}
