package engine

import (
	"time"

	"hftcore/internal/common"
	"hftcore/internal/events"
)

// noiseAgentID is the reserved agent tag for synthetic noise orders.
const noiseAgentID = "__noise__"

// noiseLatency is the latency synthetic noise orders are scheduled with:
// effectively immediate, bypassing the registered per-agent profile.
const noiseLatency = time.Microsecond

// InjectNoise synthesizes a small MARKET order of random side under the
// reserved noise agent tag and submits it with minimal latency. No-op if
// symbol is unknown or its book does not currently have a two-sided top of
// book.
func (e *Engine) InjectNoise(symbol string, intensity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[symbol]
	if !ok {
		return
	}
	if _, bidOk := b.BestBid(); !bidOk {
		return
	}
	if _, askOk := b.BestAsk(); !askOk {
		return
	}

	side := common.Buy
	if e.rng.Float64() < 0.5 {
		side = common.Sell
	}

	qty := uint64(intensity * 10)
	if qty == 0 {
		qty = 1
	}

	order, err := common.NewMarketOrder(noiseAgentID, symbol, side, qty)
	if err != nil {
		return
	}
	order.SetLatency(noiseLatency)
	e.queue.Push(&events.Event{EffectiveAt: order.EffectiveAt, Order: order})
	e.reportPendingEvents()
}
