// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"

	"github.com/fd1az/dex-aggregator/business/chain/domain"
)

// ChainService coordinates chain interactions shared across contexts.
type ChainService struct {
	reader     ContractReader
	subscriber BlockSubscriber
	gasOracle  GasOracle
}

// NewChainService creates a new ChainService.
func NewChainService(reader ContractReader, subscriber BlockSubscriber, gasOracle GasOracle) *ChainService {
	return &ChainService{
		reader:     reader,
		subscriber: subscriber,
		gasOracle:  gasOracle,
	}
}

// Reader exposes the typed contract read surface.
func (s *ChainService) Reader() ContractReader {
	return s.reader
}

// SubscribeBlocks starts the block subscription and returns the channel.
func (s *ChainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock retrieves the most recent block.
func (s *ChainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// GetGasPrice retrieves the current gas price.
func (s *ChainService) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gasOracle.GetGasPrice(ctx)
}

// EstimateGas estimates the gas needed for a call against a contract.
func (s *ChainService) EstimateGas(ctx context.Context, data []byte, to string) (uint64, error) {
	return s.gasOracle.EstimateGas(ctx, data, to)
}

// ConnectionState returns the current connection state.
func (s *ChainService) ConnectionState() domain.ConnectionState {
	return s.subscriber.State()
}
