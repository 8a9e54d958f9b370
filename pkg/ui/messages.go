// Package ui provides the Bubble Tea dashboard for the quote watch.
package ui

import (
	"time"

	monitorDomain "github.com/fd1az/dex-aggregator/business/monitor/domain"
)

// Message types for TUI updates

// QuoteMsg is sent when a watched pair has been re-quoted.
type QuoteMsg struct {
	Snapshot *monitorDomain.Snapshot
}

// BlockMsg is sent when a new block is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// GasPriceMsg is sent when the gas price is updated.
type GasPriceMsg struct {
	GweiPrice float64
}

// ConnectionStatusMsg is sent when a connection's state changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
