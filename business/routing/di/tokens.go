// Package di contains dependency injection tokens for the routing context.
package di

import (
	"github.com/fd1az/dex-aggregator/business/routing/app"
	"github.com/fd1az/dex-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RouteBuilder = di.NewToken[*app.Builder]("routing.RouteBuilder")
)

// Helper functions for type-safe access
func GetRouteBuilder(c di.ServiceRegistry) *app.Builder {
	return di.GetToken(c, RouteBuilder)
}
