package engine

import "time"

// statsCounters holds the engine's raw accumulators. Per-agent maps use an
// explicit two-level lookup with insertion-on-write.
type statsCounters struct {
	totalTrades       uint64
	totalVolume       uint64
	ordersProcessed   uint64
	ordersCancelled   uint64
	latencyViolations uint64

	// netPosition[agentID][symbol] is the agent's signed net position:
	// buys add, sells subtract.
	netPosition map[string]map[string]int64

	// signedVolumeProxy[agentID][symbol] tracks cash-flow-like exposure:
	// buyer -= qty*price, seller += qty*price.
	signedVolumeProxy map[string]map[string]float64
}

func newStatsCounters() statsCounters {
	return statsCounters{
		netPosition:       make(map[string]map[string]int64),
		signedVolumeProxy: make(map[string]map[string]float64),
	}
}

func (s *statsCounters) addPosition(agentID, symbol string, delta int64) {
	bySymbol, ok := s.netPosition[agentID]
	if !ok {
		bySymbol = make(map[string]int64)
		s.netPosition[agentID] = bySymbol
	}
	bySymbol[symbol] += delta
}

func (s *statsCounters) addSignedVolume(agentID, symbol string, delta float64) {
	bySymbol, ok := s.signedVolumeProxy[agentID]
	if !ok {
		bySymbol = make(map[string]float64)
		s.signedVolumeProxy[agentID] = bySymbol
	}
	bySymbol[symbol] += delta
}

// Statistics is a deep, consistent copy of the engine's accumulated
// counters and per-agent maps.
type Statistics struct {
	TotalTrades        uint64
	TotalVolume        uint64
	OrdersProcessed    uint64
	OrdersCancelled    uint64
	LatencyViolations  uint64
	PendingEvents      int
	AvgTradesPerSecond float64
	NetPosition        map[string]map[string]int64
	SignedVolumeProxy  map[string]map[string]float64
}

// Statistics returns a deep copy of the engine's counters.
func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := time.Since(e.startedAt).Seconds()
	if elapsed < 1 {
		elapsed = 1
	}

	return Statistics{
		TotalTrades:        e.stats.totalTrades,
		TotalVolume:        e.stats.totalVolume,
		OrdersProcessed:    e.stats.ordersProcessed,
		OrdersCancelled:    e.stats.ordersCancelled,
		LatencyViolations:  e.stats.latencyViolations,
		PendingEvents:      e.queue.Len(),
		AvgTradesPerSecond: float64(e.stats.totalTrades) / elapsed,
		NetPosition:        deepCopyInt64Map(e.stats.netPosition),
		SignedVolumeProxy:  deepCopyFloat64Map(e.stats.signedVolumeProxy),
	}
}

func deepCopyInt64Map(m map[string]map[string]int64) map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(m))
	for agent, bySymbol := range m {
		inner := make(map[string]int64, len(bySymbol))
		for sym, v := range bySymbol {
			inner[sym] = v
		}
		out[agent] = inner
	}
	return out
}

func deepCopyFloat64Map(m map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for agent, bySymbol := range m {
		inner := make(map[string]float64, len(bySymbol))
		for sym, v := range bySymbol {
			inner[sym] = v
		}
		out[agent] = inner
	}
	return out
}

// Reset clears the event queue, every book's heaps/index/log, last-trade
// fields, and statistics, while preserving the configured symbol set,
// registered latency profiles, and callbacks.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue.Reset()
	for _, sym := range e.symbols {
		e.books[sym].Reset()
	}
	e.stats = newStatsCounters()
	e.startedAt = time.Now()
	e.reportPendingEvents()
}
