package engine

import (
	"time"

	"hftcore/internal/common"
)

// Drain pops every event whose effective timestamp has arrived, routes each
// to its symbol's book, and updates statistics. Trade callbacks fire in
// production order; market-data callbacks fire once per affected symbol
// after all trades are accounted for.
//
// The engine mutex is released before callbacks are invoked: the trade and
// market-data snapshots are copied out first so callbacks never run while
// holding the lock, which would otherwise risk deadlocking against a
// callback that calls back into the engine.
func (e *Engine) Drain() []common.Trade {
	e.mu.Lock()

	now := time.Now()
	var produced []common.Trade
	affected := make(map[string]bool)

	for {
		ev, ok := e.queue.Peek()
		if !ok || ev.EffectiveAt.After(now) {
			break
		}
		e.queue.Pop()

		order := ev.Order
		if order.MaxLatency > 0 && time.Since(order.CreatedAt) > order.MaxLatency {
			e.stats.latencyViolations++
			if e.metrics != nil {
				e.metrics.RecordLatencyViolation()
			}
			e.logger.Warn().
				Str("order_id", order.OrderID).
				Str("agent_id", order.AgentID).
				Msg("latency budget exceeded; order dropped")
			continue
		}

		b := e.books[order.Symbol]
		trades := b.Add(order)
		e.stats.ordersProcessed++
		if e.metrics != nil {
			e.metrics.RecordOrderProcessed()
		}

		for _, t := range trades {
			e.stats.totalTrades++
			e.stats.totalVolume += t.Quantity
			e.stats.addPosition(t.BuyerAgentID, t.Symbol, int64(t.Quantity))
			e.stats.addPosition(t.SellerAgentID, t.Symbol, -int64(t.Quantity))
			e.stats.addSignedVolume(t.BuyerAgentID, t.Symbol, -float64(t.Quantity)*t.Price)
			e.stats.addSignedVolume(t.SellerAgentID, t.Symbol, float64(t.Quantity)*t.Price)
			if e.metrics != nil {
				e.metrics.RecordTrade(t.Quantity)
			}
			produced = append(produced, t)
			affected[t.Symbol] = true
		}
	}
	e.reportPendingEvents()

	tradeCbs := append([]func(common.Trade){}, e.tradeCallbacks...)
	mdCbs := append([]func(common.MarketData){}, e.marketDataCallbacks...)
	var snapshots []common.MarketData
	for _, sym := range e.symbols {
		if affected[sym] {
			snapshots = append(snapshots, e.books[sym].MarketDataSnapshot())
		}
	}

	e.mu.Unlock()

	for _, t := range produced {
		for _, cb := range tradeCbs {
			cb(t)
		}
	}
	for _, md := range snapshots {
		for _, cb := range mdCbs {
			cb(md)
		}
	}

	return produced
}
