package common

import "time"

// MarketData is a point-in-time snapshot of a symbol's top of book.
type MarketData struct {
	Symbol         string
	BestBid        *float64
	BestAsk        *float64
	BidSize        uint64
	AskSize        uint64
	LastTradePrice *float64
	LastTradeQty   uint64
	Timestamp      time.Time
}

// Spread returns best_ask - best_bid and whether both sides are defined.
func (m MarketData) Spread() (float64, bool) {
	if m.BestBid == nil || m.BestAsk == nil {
		return 0, false
	}
	return *m.BestAsk - *m.BestBid, true
}

// PriceLevel is a price-aggregated depth entry.
type PriceLevel struct {
	Price    float64
	Quantity uint64
}
