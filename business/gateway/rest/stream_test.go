package rest

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
)

func TestStreamPushesHeads(t *testing.T) {
	heads := make(chan *chainDomain.Block, 1)
	chain := &fakeChain{
		heads: heads,
		gas: &chainDomain.GasPrice{
			Wei:       big.NewInt(30_000_000_000),
			Timestamp: time.Date(2025, 8, 26, 12, 0, 0, 0, time.UTC),
		},
	}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, chain)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	streamErr := make(chan error, 1)
	go func() { streamErr <- srv.StreamUpdates(ctx) }()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/aggregator/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// The head can only be delivered once the subscriber is in the hub.
	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered on the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	heads <- &chainDomain.Block{
		Number:    19_000_000,
		Hash:      common.HexToHash("0xabc123"),
		Timestamp: time.Date(2025, 8, 26, 12, 0, 0, 0, time.UTC),
		BaseFee:   big.NewInt(25_000_000_000),
	}

	_, frame, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var update streamUpdate
	if err := json.Unmarshal(frame, &update); err != nil {
		t.Fatalf("decode frame: %v\nframe: %s", err, frame)
	}
	if update.Type != "block" {
		t.Errorf("type = %q, want block", update.Type)
	}
	if update.Block == nil || update.Block.Number != 19_000_000 {
		t.Errorf("block = %+v, want number 19000000", update.Block)
	}
	if update.Block != nil && update.Block.BaseFee != "25000000000" {
		t.Errorf("baseFee = %q, want 25000000000", update.Block.BaseFee)
	}
	if update.Gas == nil || update.Gas.Gwei != 30 {
		t.Errorf("gas = %+v, want 30 gwei", update.Gas)
	}

	cancel()
	if err := <-streamErr; !errors.Is(err, context.Canceled) {
		t.Errorf("StreamUpdates() = %v, want context.Canceled", err)
	}
}

func TestStreamUpdatesSubscribeFailure(t *testing.T) {
	chain := &fakeChain{subErr: apperror.External(apperror.CodeEthereumSubscribeFailed, "newHeads", errors.New("no ws endpoint"))}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, chain)

	if err := srv.StreamUpdates(context.Background()); err == nil {
		t.Fatal("StreamUpdates() = nil, want the subscription error")
	}
}

func TestStreamUpdatesStopsOnClosedFeed(t *testing.T) {
	heads := make(chan *chainDomain.Block)
	close(heads)
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{heads: heads})

	if err := srv.StreamUpdates(context.Background()); err != nil {
		t.Fatalf("StreamUpdates() = %v, want nil when the feed closes", err)
	}
}
