package domain

import (
	"math/big"
	"time"
)

// GasPrice represents gas price information.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{
		Wei:       wei,
		Timestamp: time.Now(),
	}
}

// Gwei returns the price in gwei.
func (p *GasPrice) Gwei() float64 {
	if p.Wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(p.Wei), big.NewFloat(1e9)).Float64()
	return f
}

// GasEstimate represents estimated gas costs for an operation.
type GasEstimate struct {
	GasLimit uint64
	Price    *GasPrice
}

// NewGasEstimate pairs a gas limit with the price it was estimated at.
func NewGasEstimate(gasLimit uint64, price *GasPrice) *GasEstimate {
	return &GasEstimate{
		GasLimit: gasLimit,
		Price:    price,
	}
}

// TotalWei returns the total cost in wei.
func (e *GasEstimate) TotalWei() *big.Int {
	if e.Price == nil || e.Price.Wei == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(e.Price.Wei, new(big.Int).SetUint64(e.GasLimit))
}

// TotalGwei returns the total cost in gwei.
func (e *GasEstimate) TotalGwei() float64 {
	if e.Price == nil {
		return 0
	}
	return e.Price.Gwei() * float64(e.GasLimit)
}
