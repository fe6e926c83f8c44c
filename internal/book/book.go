// Package book implements the per-symbol, price-time priority limit order
// book: matching of incoming LIMIT and MARKET orders against resting
// liquidity, cancellation, and top-of-book/depth snapshots.
package book

import (
	"container/heap"
	"sort"
	"time"

	"hftcore/internal/common"
)

// Book is one symbol's order book. It is not itself safe for concurrent
// use: callers are expected to serialize access with an external lock.
type Book struct {
	symbol string

	bids orderHeap
	asks orderHeap

	index  map[string]*common.Order
	trades []common.Trade

	lastTradePrice *float64
	lastTradeQty   uint64

	seq uint64 // monotone insertion sequence for book-heap tie-breaks
}

// New creates an empty book for symbol.
func New(symbol string) *Book {
	b := &Book{
		symbol: symbol,
		index:  make(map[string]*common.Order),
	}
	heap.Init(&b.bids)
	heap.Init(&b.asks)
	return b
}

func (b *Book) Symbol() string { return b.symbol }

// Trades returns the book's full trade log, oldest first.
func (b *Book) Trades() []common.Trade { return b.trades }

// Add routes order to the market- or limit-order matching path and records
// any resulting trades. Returns the trades produced, in execution order.
func (b *Book) Add(order *common.Order) []common.Trade {
	var trades []common.Trade
	if order.Type == common.Market {
		trades = b.matchMarket(order)
	} else {
		trades = b.matchLimit(order)
	}

	b.trades = append(b.trades, trades...)
	if len(trades) > 0 {
		last := trades[len(trades)-1]
		price := last.Price
		b.lastTradePrice = &price
		b.lastTradeQty = last.Quantity
	}
	return trades
}

// matchLimit sweeps the opposite side while it crosses the incoming order's
// price, lazily evicting stale (CANCELLED or FILLED) tops, then rests any
// remainder.
func (b *Book) matchLimit(order *common.Order) []common.Trade {
	opposite := b.oppositeSide(order.Side)

	var trades []common.Trade
	for order.Remaining() > 0 && opposite.Len() > 0 {
		top := (*opposite)[0]
		if !live(top) {
			heap.Pop(opposite)
			continue
		}
		if crosses := b.crosses(order, top); !crosses {
			break
		}

		trades = append(trades, b.execute(order, top, top.LimitPrice))

		if top.Remaining() == 0 {
			heap.Pop(opposite)
			delete(b.index, top.OrderID)
		}
	}

	if order.Remaining() > 0 {
		b.rest(order)
	}
	return trades
}

// matchMarket implements the MARKET matching loop: identical sweep with no
// price filter. If liquidity is exhausted before the order is fully filled,
// the residual is discarded — it never rests and is never rejected.
func (b *Book) matchMarket(order *common.Order) []common.Trade {
	opposite := b.oppositeSide(order.Side)

	var trades []common.Trade
	for order.Remaining() > 0 && opposite.Len() > 0 {
		top := (*opposite)[0]
		if !live(top) {
			heap.Pop(opposite)
			continue
		}

		trades = append(trades, b.execute(order, top, top.LimitPrice))

		if top.Remaining() == 0 {
			heap.Pop(opposite)
			delete(b.index, top.OrderID)
		}
	}
	return trades
}

// crosses reports whether incoming (not yet resting) crosses the resting
// top of the opposite side: a buy crosses if its limit >= the resting ask;
// a sell crosses if its limit <= the resting bid.
func (b *Book) crosses(incoming, restingTop *common.Order) bool {
	if incoming.IsBuy() {
		return restingTop.LimitPrice <= incoming.LimitPrice
	}
	return restingTop.LimitPrice >= incoming.LimitPrice
}

// execute fills incoming and resting by min(remaining) at the resting
// order's price (price improvement accrues to the aggressor) and returns
// the produced trade.
func (b *Book) execute(incoming, resting *common.Order, price float64) common.Trade {
	qty := min(incoming.Remaining(), resting.Remaining())

	var trade common.Trade
	if incoming.IsBuy() {
		trade = common.NewTrade(b.symbol, qty, price, incoming, resting)
	} else {
		trade = common.NewTrade(b.symbol, qty, price, resting, incoming)
	}

	incoming.ApplyFill(qty)
	resting.ApplyFill(qty)
	return trade
}

// rest inserts order into its own side's heap and the id index, assigning
// the monotone sequence number used for price-time tie-breaks.
func (b *Book) rest(order *common.Order) {
	b.seq++
	order.AssignBookSequence(b.seq)

	side := b.ownSide(order.Side)
	heap.Push(side, order)
	b.index[order.OrderID] = order
}

func (b *Book) oppositeSide(side common.Side) *orderHeap {
	if side == common.Buy {
		return &b.asks
	}
	return &b.bids
}

func (b *Book) ownSide(side common.Side) *orderHeap {
	if side == common.Buy {
		return &b.bids
	}
	return &b.asks
}

// Cancel marks order as CANCELLED and removes it from the active index.
// Idempotent: returns false if the id is not (or no longer) resting. The
// order is left in the heap until lazily evicted.
func (b *Book) Cancel(orderID string) bool {
	order, ok := b.index[orderID]
	if !ok {
		return false
	}
	order.Status = common.Cancelled
	delete(b.index, orderID)
	return true
}

// live reports whether a heap entry is still resting: PENDING or
// PARTIAL_FILL. CANCELLED and FILLED entries are stale.
func live(o *common.Order) bool {
	return o.Status == common.Pending || o.Status == common.PartialFill
}

// evict pops stale (CANCELLED or FILLED) entries off the top of h until a
// live top is found or the heap is empty.
func evict(h *orderHeap) {
	for h.Len() > 0 && !live((*h)[0]) {
		heap.Pop(h)
	}
}

// BestBid returns the highest resting buy price, if any.
func (b *Book) BestBid() (float64, bool) {
	evict(&b.bids)
	if b.bids.Len() == 0 {
		return 0, false
	}
	return b.bids[0].LimitPrice, true
}

// BestAsk returns the lowest resting sell price, if any.
func (b *Book) BestAsk() (float64, bool) {
	evict(&b.asks)
	if b.asks.Len() == 0 {
		return 0, false
	}
	return b.asks[0].LimitPrice, true
}

// MarketDataSnapshot returns the current top-of-book snapshot.
func (b *Book) MarketDataSnapshot() common.MarketData {
	bid, bidOk := b.BestBid()
	ask, askOk := b.BestAsk()

	md := common.MarketData{
		Symbol:         b.symbol,
		LastTradePrice: b.lastTradePrice,
		LastTradeQty:   b.lastTradeQty,
		Timestamp:      time.Now(),
	}
	if bidOk {
		md.BestBid = &bid
		md.BidSize = aggregateAt(b.bids, bid)
	}
	if askOk {
		md.BestAsk = &ask
		md.AskSize = aggregateAt(b.asks, ask)
	}
	return md
}

func aggregateAt(h orderHeap, price float64) uint64 {
	var total uint64
	for _, o := range h {
		if live(o) && o.LimitPrice == price {
			total += o.Remaining()
		}
	}
	return total
}

// Depth returns price-aggregated bid/ask levels, bids descending and asks
// ascending, each truncated to levels.
func (b *Book) Depth(levels int) (bids, asks []common.PriceLevel) {
	return aggregateLevels(b.bids, levels, true), aggregateLevels(b.asks, levels, false)
}

func aggregateLevels(h orderHeap, levels int, descending bool) []common.PriceLevel {
	agg := make(map[float64]uint64)
	for _, o := range h {
		if live(o) {
			agg[o.LimitPrice] += o.Remaining()
		}
	}

	out := make([]common.PriceLevel, 0, len(agg))
	for price, qty := range agg {
		out = append(out, common.PriceLevel{Price: price, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	if levels >= 0 && len(out) > levels {
		out = out[:levels]
	}
	return out
}

// Reset empties the book's heaps, index, and trade log, preserving the
// symbol.
func (b *Book) Reset() {
	b.bids = nil
	b.asks = nil
	heap.Init(&b.bids)
	heap.Init(&b.asks)
	b.index = make(map[string]*common.Order)
	b.trades = nil
	b.lastTradePrice = nil
	b.lastTradeQty = 0
	b.seq = 0
}
