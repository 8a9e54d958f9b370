package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/monitor/domain"
	"github.com/fd1az/dex-aggregator/pkg/ui"
)

// TUIReporter forwards watch events to the Bubble Tea dashboard. Sending to
// a not-yet-running program is a no-op, so the reporter can start before the
// dashboard does.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter sending to the running dashboard.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: ui.Send}
}

// Start marks the configuration step done on the startup screen.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "config", Status: "done"})
	return nil
}

// Report forwards a pair observation.
func (r *TUIReporter) Report(snap *domain.Snapshot) {
	r.send(ui.QuoteMsg{Snapshot: snap})
}

// UpdateHead forwards a new chain head and, when known, the gas price.
func (r *TUIReporter) UpdateHead(block *chainDomain.Block, gas *chainDomain.GasPrice) {
	r.send(ui.BlockMsg{Number: block.Number, Timestamp: block.Timestamp})
	if gas != nil {
		r.send(ui.GasPriceMsg{GweiPrice: gas.Gwei()})
	}
}

// UpdateConnection forwards node connection state changes.
func (r *TUIReporter) UpdateConnection(state chainDomain.ConnectionState) {
	r.send(ui.ConnectionStatusMsg{
		Name:      "Ethereum",
		Connected: state == chainDomain.StateConnected,
	})
}

// Stop is a no-op: the dashboard owns its own lifecycle.
func (r *TUIReporter) Stop() error {
	return nil
}
