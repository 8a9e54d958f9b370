// Package di contains dependency injection tokens for the gateway context.
package di

import (
	"github.com/fd1az/dex-aggregator/business/gateway/rest"
	"github.com/fd1az/dex-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Server = di.NewToken[*rest.Server]("gateway.Server")
)

// Helper functions for type-safe access
func GetServer(c di.ServiceRegistry) *rest.Server {
	return di.GetToken(c, Server)
}
