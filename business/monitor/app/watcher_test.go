package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/monitor/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func scenarioAggregate() *quotingDomain.AggregatedQuote {
	weiOne := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	tier500 := quotingDomain.NewVenueQuote(
		"Uniswap", quotingDomain.ProtocolV3,
		big.NewInt(1_000_000_000), 0.15, 150_000, 500,
		common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"),
	)
	tier3000 := quotingDomain.NewVenueQuote(
		"Uniswap", quotingDomain.ProtocolV3,
		big.NewInt(1_002_000_000), 0.12, 150_000, 3000,
		common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"),
	)
	return quotingDomain.NewAggregatedQuote(asset.WETH, asset.USDC, weiOne,
		[]*quotingDomain.VenueQuote{tier500, tier3000})
}

type fakeQuoteSource struct {
	mu           sync.Mutex
	registry     *asset.Registry
	agg          *quotingDomain.AggregatedQuote
	resolveErr   error
	aggErr       error
	resolveCalls int
}

func (f *fakeQuoteSource) ResolveToken(ctx context.Context, ref string) (*asset.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	a, ok := f.registry.GetBySymbolAndChain(ref, asset.ChainIDEthereum)
	if !ok {
		return nil, fmt.Errorf("unknown token %q", ref)
	}
	return a, nil
}

func (f *fakeQuoteSource) Aggregate(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) (*quotingDomain.AggregatedQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aggErr != nil {
		return nil, f.aggErr
	}
	return f.agg, nil
}

func (f *fakeQuoteSource) setResolveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveErr = err
}

func (f *fakeQuoteSource) resolves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveCalls
}

type fakeChainSource struct {
	heads  chan *chainDomain.Block
	subErr error
	gas    *chainDomain.GasPrice
	gasErr error
	state  chainDomain.ConnectionState
}

func (f *fakeChainSource) SubscribeBlocks(ctx context.Context) (<-chan *chainDomain.Block, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.heads, nil
}

func (f *fakeChainSource) GetGasPrice(ctx context.Context) (*chainDomain.GasPrice, error) {
	return f.gas, f.gasErr
}

func (f *fakeChainSource) ConnectionState() chainDomain.ConnectionState {
	return f.state
}

type captureReporter struct {
	mu        sync.Mutex
	startErr  error
	started   bool
	stopped   bool
	snapshots []*domain.Snapshot
	blocks    []*chainDomain.Block
	states    []chainDomain.ConnectionState
}

func (r *captureReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *captureReporter) Report(snap *domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snap)
}

func (r *captureReporter) UpdateHead(block *chainDomain.Block, gas *chainDomain.GasPrice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = append(r.blocks, block)
}

func (r *captureReporter) UpdateConnection(state chainDomain.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *captureReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *captureReporter) snapshotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *captureReporter) snapshotAt(i int) *domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[i]
}

func (r *captureReporter) lastSnapshot() *domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *captureReporter) blockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

func (r *captureReporter) stateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() Config {
	return Config{
		Pairs:     []string{"WETH-USDC"},
		TradeSize: "1",
		Interval:  5 * time.Millisecond,
	}
}

func TestNewWatcherValidation(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{state: chainDomain.StateConnected}

	tests := []struct {
		name   string
		quotes QuoteSource
		chain  ChainSource
		config Config
	}{
		{name: "nil quote source", chain: chain, config: testConfig()},
		{name: "nil chain source", quotes: quotes, config: testConfig()},
		{name: "no pairs", quotes: quotes, chain: chain, config: Config{}},
		{name: "bad pair spec", quotes: quotes, chain: chain, config: Config{Pairs: []string{"broken"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWatcher(tt.quotes, tt.chain, tt.config, testLogger()); err == nil {
				t.Error("NewWatcher() should fail")
			}
		})
	}
}

func TestWatcherReportsQuotes(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if !reporter.started {
		t.Error("reporter was not started")
	}

	waitFor(t, "two snapshots", func() bool { return reporter.snapshotCount() >= 2 })

	snap := reporter.snapshotAt(0)
	if snap.Pair.String() != "WETH-USDC" {
		t.Errorf("snapshot pair = %q, want %q", snap.Pair.String(), "WETH-USDC")
	}
	if !snap.HasQuote() {
		t.Fatalf("snapshot has no quote: err = %v", snap.Err)
	}
	if snap.TokenIn.Symbol() != "WETH" || snap.TokenOut.Symbol() != "USDC" {
		t.Errorf("snapshot tokens = %s/%s, want WETH/USDC", snap.TokenIn.Symbol(), snap.TokenOut.Symbol())
	}

	weiOne := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	if snap.AmountIn.Cmp(weiOne) != 0 {
		t.Errorf("snapshot amountIn = %s, want %s", snap.AmountIn, weiOne)
	}
	if got := snap.Quote.Best.FeeTier; got != 3000 {
		t.Errorf("best fee tier = %d, want 3000", got)
	}

	if reporter.stateCount() == 0 {
		t.Error("connection state was never reported")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !reporter.stopped {
		t.Error("reporter was not stopped")
	}
	// Second stop is a no-op.
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcherMemoizesResolution(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitFor(t, "three snapshots", func() bool { return reporter.snapshotCount() >= 3 })

	// One pair, two tokens: resolution runs once regardless of scan count.
	if got := quotes.resolves(); got != 2 {
		t.Errorf("ResolveToken calls = %d, want 2", got)
	}
}

func TestWatcherReportsFailures(t *testing.T) {
	quotes := &fakeQuoteSource{
		registry: asset.DefaultRegistry(),
		agg:      scenarioAggregate(),
		aggErr:   errors.New("all venues failed"),
	}
	chain := &fakeChainSource{state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitFor(t, "a snapshot", func() bool { return reporter.snapshotCount() >= 1 })

	snap := reporter.snapshotAt(0)
	if snap.HasQuote() {
		t.Error("snapshot should not carry a quote")
	}
	if snap.Err == nil {
		t.Error("snapshot.Err = nil, want the aggregation error")
	}
	// Tokens resolved fine, so they are still on the snapshot.
	if snap.TokenIn == nil || snap.TokenOut == nil {
		t.Error("resolved tokens missing from failed snapshot")
	}
}

func TestWatcherRetriesResolution(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	quotes.resolveErr = errors.New("token list not loaded")
	chain := &fakeChainSource{state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitFor(t, "a failed snapshot", func() bool {
		snap := reporter.lastSnapshot()
		return snap != nil && snap.Err != nil
	})

	quotes.setResolveErr(nil)

	waitFor(t, "a quoted snapshot", func() bool {
		snap := reporter.lastSnapshot()
		return snap != nil && snap.HasQuote()
	})
}

func TestWatcherBadTradeSize(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	cfg := testConfig()
	cfg.TradeSize = "not-a-number"

	w, err := NewWatcher(quotes, chain, cfg, testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	waitFor(t, "a snapshot", func() bool { return reporter.snapshotCount() >= 1 })

	if snap := reporter.snapshotAt(0); snap.Err == nil {
		t.Error("snapshot.Err = nil, want trade size parse error")
	}
}

func TestWatcherAnnotatesHeads(t *testing.T) {
	heads := make(chan *chainDomain.Block, 1)
	chain := &fakeChainSource{
		heads: heads,
		gas:   &chainDomain.GasPrice{Wei: big.NewInt(23_500_000_000), Timestamp: time.Now()},
		state: chainDomain.StateConnected,
	}
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	heads <- &chainDomain.Block{Number: 19_000_000, Timestamp: time.Now()}

	waitFor(t, "head delivery", func() bool { return reporter.blockCount() >= 1 })
	waitFor(t, "an annotated snapshot", func() bool {
		snap := reporter.lastSnapshot()
		return snap != nil && snap.Block != nil
	})

	snap := reporter.lastSnapshot()
	if snap.Block.Number != 19_000_000 {
		t.Errorf("snapshot block = %d, want 19000000", snap.Block.Number)
	}
	if snap.Gas == nil {
		t.Error("snapshot gas = nil, want the fetched gas price")
	}
}

func TestWatcherHeadWithGasFailure(t *testing.T) {
	heads := make(chan *chainDomain.Block, 1)
	chain := &fakeChainSource{
		heads:  heads,
		gasErr: errors.New("rpc down"),
		state:  chainDomain.StateConnected,
	}
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	heads <- &chainDomain.Block{Number: 19_000_001, Timestamp: time.Now()}

	// The head is still delivered even though the gas lookup failed.
	waitFor(t, "head delivery", func() bool { return reporter.blockCount() >= 1 })
}

func TestWatcherSurvivesSubscribeFailure(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{subErr: errors.New("ws unavailable"), state: chainDomain.StateConnected}
	reporter := &captureReporter{}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(reporter)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() with failed subscription error = %v", err)
	}
	defer w.Stop()

	waitFor(t, "snapshots without heads", func() bool { return reporter.snapshotCount() >= 2 })
}

func TestWatcherReporterStartFailure(t *testing.T) {
	quotes := &fakeQuoteSource{registry: asset.DefaultRegistry(), agg: scenarioAggregate()}
	chain := &fakeChainSource{state: chainDomain.StateConnected}

	good := &captureReporter{}
	bad := &captureReporter{startErr: errors.New("no tty")}

	w, err := NewWatcher(quotes, chain, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.AddReporter(good)
	w.AddReporter(bad)

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when a reporter does")
	}
	if !good.stopped {
		t.Error("previously started reporter was not stopped")
	}
}
