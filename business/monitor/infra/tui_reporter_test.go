package infra

import (
	"context"
	"math/big"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/pkg/ui"
)

func TestTUIReporterForwardsMessages(t *testing.T) {
	var msgs []tea.Msg
	r := &TUIReporter{send: func(m tea.Msg) { msgs = append(msgs, m) }}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snap := quotedSnapshot()
	r.Report(snap)

	block := &chainDomain.Block{Number: 19_000_000, Timestamp: time.Now()}
	gas := &chainDomain.GasPrice{Wei: big.NewInt(23_500_000_000), Timestamp: time.Now()}
	r.UpdateHead(block, gas)
	r.UpdateHead(block, nil)

	r.UpdateConnection(chainDomain.StateConnected)
	r.UpdateConnection(chainDomain.StateReconnecting)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// Start, Report, UpdateHead with gas (2 msgs), UpdateHead without gas,
	// and two connection updates.
	if len(msgs) != 7 {
		t.Fatalf("captured %d messages, want 7", len(msgs))
	}

	startup, ok := msgs[0].(ui.StartupMsg)
	if !ok || startup.Step != "config" || startup.Status != "done" {
		t.Errorf("msgs[0] = %#v, want config done StartupMsg", msgs[0])
	}

	quote, ok := msgs[1].(ui.QuoteMsg)
	if !ok || quote.Snapshot != snap {
		t.Errorf("msgs[1] = %#v, want QuoteMsg carrying the snapshot", msgs[1])
	}

	blockMsg, ok := msgs[2].(ui.BlockMsg)
	if !ok || blockMsg.Number != 19_000_000 {
		t.Errorf("msgs[2] = %#v, want BlockMsg for 19000000", msgs[2])
	}

	gasMsg, ok := msgs[3].(ui.GasPriceMsg)
	if !ok || gasMsg.GweiPrice != 23.5 {
		t.Errorf("msgs[3] = %#v, want GasPriceMsg of 23.5", msgs[3])
	}

	if _, ok := msgs[4].(ui.BlockMsg); !ok {
		t.Errorf("msgs[4] = %#v, want BlockMsg without a gas follow-up", msgs[4])
	}

	conn, ok := msgs[5].(ui.ConnectionStatusMsg)
	if !ok || conn.Name != "Ethereum" || !conn.Connected {
		t.Errorf("msgs[5] = %#v, want connected Ethereum status", msgs[5])
	}

	reconn, ok := msgs[6].(ui.ConnectionStatusMsg)
	if !ok || reconn.Connected {
		t.Errorf("msgs[6] = %#v, want disconnected status while reconnecting", msgs[6])
	}
}

func TestNewTUIReporterSendsToProgram(t *testing.T) {
	r := NewTUIReporter()
	if r.send == nil {
		t.Fatal("NewTUIReporter() left send unset")
	}
	// No program is running, so sending must be a safe no-op.
	r.Report(quotedSnapshot())
	r.UpdateConnection(chainDomain.StateDisconnected)
}
