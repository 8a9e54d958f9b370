// Package di contains dependency injection tokens for the quoting context.
package di

import (
	"github.com/fd1az/dex-aggregator/business/quoting/app"
	"github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv2"
	"github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv3"
	"github.com/fd1az/dex-aggregator/internal/di"
)

// Public service tokens - exposed to other modules. The venue adapters are
// public because the gateway serves pool introspection straight off them.
var (
	Aggregator = di.NewToken[*app.Aggregator]("quoting.Aggregator")
	V2Adapter  = di.NewToken[*uniswapv2.Adapter]("quoting.V2Adapter")
	V3Adapter  = di.NewToken[*uniswapv3.Adapter]("quoting.V3Adapter")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetV2Adapter(c di.ServiceRegistry) *uniswapv2.Adapter {
	return di.GetToken(c, V2Adapter)
}

func GetV3Adapter(c di.ServiceRegistry) *uniswapv3.Adapter {
	return di.GetToken(c, V3Adapter)
}
