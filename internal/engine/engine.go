// Package engine implements the multi-symbol matching engine: submission
// under a per-agent latency model, a latency-ordered event queue, thread
// safe drain/dispatch, and trade/statistics accounting.
package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hftcore/internal/book"
	"hftcore/internal/common"
	"hftcore/internal/events"
	"hftcore/internal/latency"
	"hftcore/internal/metrics"
)

var (
	// ErrUnknownSymbol is returned by Submit for a symbol outside the
	// engine's configured symbol set.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrDuplicateOrderID is never expected to surface: order ids are
	// engine-assigned and sourced from uuid.New(), which is globally
	// unique within a process lifetime.
	ErrDuplicateOrderID = errors.New("duplicate order id")
)

// Config holds the parameters recognized at engine construction.
type Config struct {
	Symbols         []string
	Seed            int64
	SimulationSpeed float64           // 1.0 = real time; <=0 defaults to 1.0
	Logger          *zerolog.Logger   // optional; nil defaults to a no-op logger
	Metrics         *metrics.Recorder // optional; nil disables metrics recording
}

// Engine is the multi-symbol orchestrator. All mutating operations acquire
// mu for their full critical section, which makes matching strictly
// serializable.
type Engine struct {
	mu sync.Mutex

	symbols []string
	books   map[string]*book.Book

	latencyProfiles map[string]latency.Profile
	rng             *rand.Rand

	queue *events.Queue

	simSpeed  float64
	startedAt time.Time

	tradeCallbacks      []func(common.Trade)
	marketDataCallbacks []func(common.MarketData)

	logger  zerolog.Logger
	metrics *metrics.Recorder

	stats statsCounters

	driver *driver
}

// New constructs an Engine over the given (deduplicated) symbol set. Books
// are created once, here, and never recreated — reset() only clears them.
func New(cfg Config) *Engine {
	simSpeed := cfg.SimulationSpeed
	if simSpeed <= 0 {
		simSpeed = 1.0
	}

	symbols := dedupe(cfg.Symbols)
	books := make(map[string]*book.Book, len(symbols))
	for _, sym := range symbols {
		books[sym] = book.New(sym)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	e := &Engine{
		symbols:         symbols,
		books:           books,
		latencyProfiles: make(map[string]latency.Profile),
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		queue:           events.NewQueue(),
		simSpeed:        simSpeed,
		startedAt:       time.Now(),
		logger:          logger,
		metrics:         cfg.Metrics,
		stats:           newStatsCounters(),
	}
	return e
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// RegisterAgent records or replaces agentID's latency profile. Idempotent.
func (e *Engine) RegisterAgent(agentID string, profile latency.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latencyProfiles[agentID] = profile
}

// AddTradeCallback registers fn to be invoked, in production order, for
// every trade produced by a drain.
func (e *Engine) AddTradeCallback(fn func(common.Trade)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tradeCallbacks = append(e.tradeCallbacks, fn)
}

// AddMarketDataCallback registers fn to be invoked once per affected symbol
// per drain, after all of that drain's trades are accounted for.
func (e *Engine) AddMarketDataCallback(fn func(common.MarketData)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marketDataCallbacks = append(e.marketDataCallbacks, fn)
}

// Submit samples the submitter's latency profile, stamps the order's
// effective timestamp, and schedules it for a future drain. It does not
// match. Returns the assigned order id.
func (e *Engine) Submit(order *common.Order) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.books[order.Symbol]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, order.Symbol)
	}

	profile, ok := e.latencyProfiles[order.AgentID]
	if !ok {
		profile = latency.Default
	}
	order.SetLatency(profile.Sample(e.rng))

	e.queue.Push(&events.Event{EffectiveAt: order.EffectiveAt, Order: order})
	e.reportPendingEvents()

	return order.OrderID, nil
}

// Cancel iterates the engine's books attempting to cancel orderID, applying
// the first success. A latency sample is drawn to model the cancel RTT but
// the cancel itself takes effect synchronously — the sample is advisory
// only and not otherwise recorded.
func (e *Engine) Cancel(agentID, orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if profile, ok := e.latencyProfiles[agentID]; ok {
		_ = profile.Sample(e.rng)
	} else {
		_ = latency.Default.Sample(e.rng)
	}

	for _, sym := range e.symbols {
		if e.books[sym].Cancel(orderID) {
			e.stats.ordersCancelled++
			if e.metrics != nil {
				e.metrics.RecordCancellation()
			}
			return true
		}
	}
	return false
}

// MarketData returns symbol's current top-of-book snapshot, or false if
// symbol is unknown.
func (e *Engine) MarketData(symbol string) (common.MarketData, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[symbol]
	if !ok {
		return common.MarketData{}, false
	}
	return b.MarketDataSnapshot(), true
}

// AllMarketData returns a snapshot for every configured symbol.
func (e *Engine) AllMarketData() map[string]common.MarketData {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]common.MarketData, len(e.symbols))
	for _, sym := range e.symbols {
		out[sym] = e.books[sym].MarketDataSnapshot()
	}
	return out
}

// Depth passes through to the owning book's Depth, or (nil, nil) if symbol
// is unknown.
func (e *Engine) Depth(symbol string, levels int) (bids, asks []common.PriceLevel) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[symbol]
	if !ok {
		return nil, nil
	}
	return b.Depth(levels)
}

func (e *Engine) reportPendingEvents() {
	if e.metrics != nil {
		e.metrics.SetPendingEvents(e.queue.Len())
	}
}
