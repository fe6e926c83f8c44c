package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftcore/internal/common"
	"hftcore/internal/engine"
	"hftcore/internal/latency"
)

func newTestEngine(symbols ...string) *engine.Engine {
	return engine.New(engine.Config{Symbols: symbols, Seed: 42})
}

// negligibleLatency keeps submit-then-drain tests deterministic: without
// it, orders wait on latency.Default's ~1ms sample before their effective
// timestamp arrives, racing against wall-clock time in the test itself.
var negligibleLatency = latency.Profile{Base: time.Microsecond}

func submitLimit(t *testing.T, e *engine.Engine, agent, symbol string, side common.Side, qty uint64, price float64) string {
	t.Helper()
	e.RegisterAgent(agent, negligibleLatency)
	o, err := common.NewLimitOrder(agent, symbol, side, qty, price)
	require.NoError(t, err)
	id, err := e.Submit(o)
	require.NoError(t, err)
	return id
}

func submitMarket(t *testing.T, e *engine.Engine, agent, symbol string, side common.Side, qty uint64) string {
	t.Helper()
	e.RegisterAgent(agent, negligibleLatency)
	o, err := common.NewMarketOrder(agent, symbol, side, qty)
	require.NoError(t, err)
	id, err := e.Submit(o)
	require.NoError(t, err)
	return id
}

// crossing match at equal limit price.
func TestScenario_CrossingMatch(t *testing.T) {
	e := newTestEngine("X")

	submitLimit(t, e, "A1", "X", common.Sell, 100, 150.00)
	submitLimit(t, e, "A2", "X", common.Buy, 100, 150.00)

	trades := e.Drain()
	require.Len(t, trades, 1)
	assert.EqualValues(t, 100, trades[0].Quantity)
	assert.Equal(t, 150.00, trades[0].Price)
	assert.Equal(t, "A2", trades[0].BuyerAgentID)
	assert.Equal(t, "A1", trades[0].SellerAgentID)

	stats := e.Statistics()
	assert.EqualValues(t, 1, stats.TotalTrades)
	assert.EqualValues(t, 100, stats.TotalVolume)
	assert.EqualValues(t, 2, stats.OrdersProcessed)
}

// partial fill leaves a resting remainder.
func TestScenario_PartialFill(t *testing.T) {
	e := newTestEngine("X")

	submitLimit(t, e, "A1", "X", common.Sell, 200, 150.00)
	submitLimit(t, e, "A2", "X", common.Buy, 50, 150.00)
	e.Drain()

	md, ok := e.MarketData("X")
	require.True(t, ok)
	require.NotNil(t, md.BestAsk)
	assert.Equal(t, 150.00, *md.BestAsk)
	assert.EqualValues(t, 150, md.AskSize)
}

// price priority: the better-priced resting order fills first.
func TestScenario_PricePriority(t *testing.T) {
	e := newTestEngine("X")

	submitLimit(t, e, "S1", "X", common.Sell, 100, 151.00)
	submitLimit(t, e, "S2", "X", common.Sell, 100, 150.00)
	submitLimit(t, e, "B", "X", common.Buy, 100, 152.00)

	trades := e.Drain()
	require.Len(t, trades, 1)
	assert.Equal(t, 150.00, trades[0].Price)
	assert.Equal(t, "S2", trades[0].SellerAgentID)
}

// market order against an empty book never rests.
func TestScenario_MarketAgainstEmptyBook(t *testing.T) {
	e := newTestEngine("X")

	submitMarket(t, e, "A", "X", common.Buy, 50)
	trades := e.Drain()

	assert.Empty(t, trades)
	stats := e.Statistics()
	assert.EqualValues(t, 1, stats.OrdersProcessed)
	assert.EqualValues(t, 0, stats.TotalTrades)
}

// latency ordering: a later submission with lower latency arrives first.
func TestScenario_LatencyOrdering(t *testing.T) {
	e := newTestEngine("X")
	e.RegisterAgent("SLOW", latency.Profile{Base: 5 * time.Millisecond})
	e.RegisterAgent("FAST", latency.Profile{Base: 100 * time.Microsecond})

	sellOrder, err := common.NewLimitOrder("SLOW", "X", common.Sell, 100, 150.00)
	require.NoError(t, err)
	_, err = e.Submit(sellOrder)
	require.NoError(t, err)

	buyOrder, err := common.NewLimitOrder("FAST", "X", common.Buy, 100, 150.00)
	require.NoError(t, err)
	_, err = e.Submit(buyOrder)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	trades := e.Drain()

	require.Len(t, trades, 1)
	assert.True(t, !trades[0].Timestamp.Before(sellOrder.EffectiveAt))
}

// depth aggregation via the engine pass-through.
func TestScenario_DepthAggregation(t *testing.T) {
	e := newTestEngine("X")
	submitLimit(t, e, "b1", "X", common.Buy, 100, 149)
	submitLimit(t, e, "b2", "X", common.Buy, 200, 148)
	submitLimit(t, e, "s1", "X", common.Sell, 150, 151)
	submitLimit(t, e, "s2", "X", common.Sell, 100, 152)
	e.Drain()

	bids, asks := e.Depth("X", 3)
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	assert.Equal(t, common.PriceLevel{Price: 149, Quantity: 100}, bids[0])
	assert.Equal(t, common.PriceLevel{Price: 151, Quantity: 150}, asks[0])
}

func TestUnknownSymbol_Rejected(t *testing.T) {
	e := newTestEngine("X")
	o, err := common.NewLimitOrder("a", "Y", common.Buy, 10, 10)
	require.NoError(t, err)

	_, err = e.Submit(o)
	assert.ErrorIs(t, err, engine.ErrUnknownSymbol)
}

func TestCancel_MarksOrderCancelledAndHidesIt(t *testing.T) {
	e := newTestEngine("X")
	id := submitLimit(t, e, "a", "X", common.Buy, 10, 100)
	e.Drain()

	ok := e.Cancel("a", id)
	require.True(t, ok)

	md, _ := e.MarketData("X")
	assert.Nil(t, md.BestBid)

	assert.False(t, e.Cancel("a", "unknown-id"))
}

func TestDrain_IdempotentOnEmptyQueue(t *testing.T) {
	e := newTestEngine("X")
	assert.Empty(t, e.Drain())
	assert.Empty(t, e.Drain())
}

func TestReset_ZeroesStatisticsAndClearsBooks(t *testing.T) {
	e := newTestEngine("X")
	submitLimit(t, e, "A1", "X", common.Sell, 100, 150.00)
	submitLimit(t, e, "A2", "X", common.Buy, 100, 150.00)
	e.Drain()

	e.Reset()

	stats := e.Statistics()
	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.TotalVolume)
	assert.Zero(t, stats.OrdersProcessed)

	md, ok := e.MarketData("X")
	require.True(t, ok)
	assert.Nil(t, md.BestBid)
	assert.Nil(t, md.BestAsk)
}

// Invariant 1: per-agent net position matches the sum of that agent's
// trade-side quantities.
func TestInvariant_NetPositionMatchesTrades(t *testing.T) {
	e := newTestEngine("X")
	submitLimit(t, e, "seller", "X", common.Sell, 100, 150.00)
	submitLimit(t, e, "buyer", "X", common.Buy, 100, 150.00)
	e.Drain()

	stats := e.Statistics()
	assert.EqualValues(t, 100, stats.NetPosition["buyer"]["X"])
	assert.EqualValues(t, -100, stats.NetPosition["seller"]["X"])
}

func TestTradeCallbacks_FireInProductionOrder(t *testing.T) {
	e := newTestEngine("X")
	var seen []common.Trade
	e.AddTradeCallback(func(tr common.Trade) { seen = append(seen, tr) })

	submitLimit(t, e, "s1", "X", common.Sell, 50, 100)
	submitLimit(t, e, "s2", "X", common.Sell, 50, 100)
	submitLimit(t, e, "b", "X", common.Buy, 100, 100)
	e.Drain()

	require.Len(t, seen, 2)
	assert.Equal(t, "s1", seen[0].SellerAgentID)
	assert.Equal(t, "s2", seen[1].SellerAgentID)
}

func TestMarketDataCallbacks_FireOncePerAffectedSymbol(t *testing.T) {
	e := newTestEngine("X", "Y")
	var calls int
	e.AddMarketDataCallback(func(common.MarketData) { calls++ })

	submitLimit(t, e, "s", "X", common.Sell, 50, 100)
	submitLimit(t, e, "b", "X", common.Buy, 50, 100)
	e.Drain()

	assert.Equal(t, 1, calls)
}

func TestLatencyBudget_ExceededOrderDropped(t *testing.T) {
	e := newTestEngine("X")
	e.RegisterAgent("a", negligibleLatency)
	o, err := common.NewLimitOrder("a", "X", common.Buy, 10, 100)
	require.NoError(t, err)
	o.MaxLatency = time.Nanosecond
	_, err = e.Submit(o)
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	trades := e.Drain()

	assert.Empty(t, trades)
	stats := e.Statistics()
	assert.EqualValues(t, 1, stats.LatencyViolations)
	assert.EqualValues(t, 0, stats.OrdersProcessed)
}

func TestInjectNoise_NoopWithoutTwoSidedBook(t *testing.T) {
	e := newTestEngine("X")
	e.InjectNoise("X", 1.0)
	assert.Equal(t, 0, len(e.Drain()))
}

func TestInjectNoise_SubmitsWhenTwoSided(t *testing.T) {
	e := newTestEngine("X")
	submitLimit(t, e, "s", "X", common.Sell, 100, 101)
	submitLimit(t, e, "b", "X", common.Buy, 100, 99)
	e.Drain()

	e.InjectNoise("X", 1.0)
	stats := e.Statistics()
	assert.EqualValues(t, 1, stats.PendingEvents)
}
