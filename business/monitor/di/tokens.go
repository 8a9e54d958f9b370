// Package di contains dependency injection tokens for the monitor context.
package di

import (
	"github.com/fd1az/dex-aggregator/business/monitor/app"
	"github.com/fd1az/dex-aggregator/internal/di"
)

// Watcher is public so main can attach the reporters for the chosen run
// mode and drive the watch lifecycle.
var Watcher = di.NewToken[*app.Watcher]("monitor.Watcher")

// GetWatcher resolves the watcher from the container.
func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}
