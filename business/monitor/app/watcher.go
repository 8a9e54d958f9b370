package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/monitor/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

// Config holds the watch settings.
type Config struct {
	// Pairs are "BASE-QUOTE" specs resolved through the token registry.
	Pairs []string

	// TradeSize is the input amount in display units of the base token.
	TradeSize string

	// Interval is how often each pair is re-quoted.
	Interval time.Duration
}

// Watcher periodically re-quotes the configured pairs through the aggregator
// and fans the observations out to its reporters. It is a client of the
// quoting engine: the engine itself never refreshes anything.
type Watcher struct {
	quotes    QuoteSource
	chain     ChainSource
	reporters []Reporter
	pairs     []domain.Pair
	tradeSize string
	interval  time.Duration
	log       logger.LoggerInterface

	// resolved caches token resolution per pair so the registry is only
	// consulted until the first success.
	resolved map[string]*resolvedPair

	// lastBlock, lastGas and lastState are owned by the run goroutine.
	lastBlock *chainDomain.Block
	lastGas   *chainDomain.GasPrice
	lastState chainDomain.ConnectionState

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type resolvedPair struct {
	tokenIn  *asset.Asset
	tokenOut *asset.Asset
	amountIn *big.Int
}

// NewWatcher creates a Watcher. Pair specs are parsed eagerly so a bad watch
// configuration fails at startup, not on the first tick.
func NewWatcher(quotes QuoteSource, chain ChainSource, config Config, log logger.LoggerInterface) (*Watcher, error) {
	if quotes == nil {
		return nil, errors.New("monitor: quote source is required")
	}
	if chain == nil {
		return nil, errors.New("monitor: chain source is required")
	}

	pairs, err := domain.ParsePairs(config.Pairs)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, errors.New("monitor: at least one watch pair is required")
	}

	tradeSize := config.TradeSize
	if tradeSize == "" {
		tradeSize = "1"
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Watcher{
		quotes:    quotes,
		chain:     chain,
		pairs:     pairs,
		tradeSize: tradeSize,
		interval:  interval,
		log:       log,
		resolved:  make(map[string]*resolvedPair),
	}, nil
}

// AddReporter registers a reporter. Must be called before Start.
func (w *Watcher) AddReporter(r Reporter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reporters = append(w.reporters, r)
}

// Pairs returns the parsed watch pairs.
func (w *Watcher) Pairs() []domain.Pair {
	return w.pairs
}

// Start begins the watch loop. A failed head subscription is not fatal: the
// interval tick drives quoting, heads only annotate it.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("monitor: watcher already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	heads, err := w.chain.SubscribeBlocks(runCtx)
	if err != nil {
		w.log.Warn(ctx, "head subscription unavailable, watching on interval only", "error", err)
		heads = nil
	}

	for i, r := range w.reporters {
		if err := r.Start(runCtx); err != nil {
			cancel()
			for _, started := range w.reporters[:i] {
				_ = started.Stop()
			}
			return fmt.Errorf("monitor: starting reporter: %w", err)
		}
	}

	w.started = true
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx, heads)

	w.log.Info(ctx, "watch started",
		"pairs", len(w.pairs),
		"trade_size", w.tradeSize,
		"interval", w.interval.String(),
	)
	return nil
}

func (w *Watcher) run(ctx context.Context, heads <-chan *chainDomain.Block) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Scan once up front so displays fill before the first tick.
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return
		case block, ok := <-heads:
			if !ok {
				heads = nil
				continue
			}
			if block != nil {
				w.onNewHead(ctx, block)
			}
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) onNewHead(ctx context.Context, block *chainDomain.Block) {
	w.lastBlock = block

	gasCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	gas, err := w.chain.GetGasPrice(gasCtx)
	cancel()
	if err != nil {
		w.log.Debug(ctx, "gas price unavailable", "error", err)
	} else {
		w.lastGas = gas
	}

	for _, r := range w.reporters {
		r.UpdateHead(block, w.lastGas)
	}
}

func (w *Watcher) scan(ctx context.Context) {
	w.notifyConnection()

	for _, pair := range w.pairs {
		snap := w.observe(ctx, pair)
		for _, r := range w.reporters {
			r.Report(snap)
		}
		if snap.Err != nil {
			w.log.Warn(ctx, "pair observation failed", "pair", pair.String(), "error", snap.Err)
		}
	}
}

func (w *Watcher) notifyConnection() {
	state := w.chain.ConnectionState()
	if state == w.lastState {
		return
	}
	w.lastState = state
	for _, r := range w.reporters {
		r.UpdateConnection(state)
	}
}

// observe takes one snapshot of a pair. Failures land in Snapshot.Err so the
// reporters decide how to surface them.
func (w *Watcher) observe(ctx context.Context, pair domain.Pair) *domain.Snapshot {
	snap := &domain.Snapshot{
		Pair:      pair,
		Block:     w.lastBlock,
		Gas:       w.lastGas,
		Timestamp: time.Now(),
	}

	obsCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	res, err := w.resolvePair(obsCtx, pair)
	if err != nil {
		snap.Err = err
		return snap
	}
	snap.TokenIn = res.tokenIn
	snap.TokenOut = res.tokenOut
	snap.AmountIn = res.amountIn

	agg, err := w.quotes.Aggregate(obsCtx, res.tokenIn, res.tokenOut, res.amountIn)
	if err != nil {
		snap.Err = err
		return snap
	}
	snap.Quote = agg
	return snap
}

// resolvePair resolves and caches a pair's tokens and trade amount. Errors
// are not cached, so a pair that fails to resolve is retried on the next
// scan.
func (w *Watcher) resolvePair(ctx context.Context, pair domain.Pair) (*resolvedPair, error) {
	if res, ok := w.resolved[pair.String()]; ok {
		return res, nil
	}

	tokenIn, err := w.quotes.ResolveToken(ctx, pair.Base)
	if err != nil {
		return nil, err
	}
	tokenOut, err := w.quotes.ResolveToken(ctx, pair.Quote)
	if err != nil {
		return nil, err
	}
	amountIn, err := asset.ParseUnits(w.tradeSize, tokenIn.Decimals())
	if err != nil {
		return nil, fmt.Errorf("monitor: trade size %q: %w", w.tradeSize, err)
	}

	res := &resolvedPair{tokenIn: tokenIn, tokenOut: tokenOut, amountIn: amountIn}
	w.resolved[pair.String()] = res
	return res, nil
}

// Stop ends the watch loop and shuts the reporters down.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done

	var firstErr error
	for _, r := range w.reporters {
		if err := r.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
