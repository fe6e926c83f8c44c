package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trade records a single execution between two opposite-sided orders on the
// same symbol. Trades are owned by the producing book's trade log and
// duplicated into callback notifications.
type Trade struct {
	TradeID       string
	Symbol        string
	Quantity      uint64
	Price         float64
	Timestamp     time.Time
	BuyOrderID    string
	SellOrderID   string
	BuyerAgentID  string
	SellerAgentID string
}

// NewTrade builds a Trade. Timestamp is the max of the two participants'
// effective timestamps.
func NewTrade(symbol string, quantity uint64, price float64, buy, sell *Order) Trade {
	ts := buy.EffectiveAt
	if sell.EffectiveAt.After(ts) {
		ts = sell.EffectiveAt
	}
	return Trade{
		TradeID:       uuid.New().String(),
		Symbol:        symbol,
		Quantity:      quantity,
		Price:         price,
		Timestamp:     ts,
		BuyOrderID:    buy.OrderID,
		SellOrderID:   sell.OrderID,
		BuyerAgentID:  buy.AgentID,
		SellerAgentID: sell.AgentID,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade(%s, %s qty=%d price=%.4f buyer=%s seller=%s)",
		shortID(t.TradeID), t.Symbol, t.Quantity, t.Price, t.BuyerAgentID, t.SellerAgentID,
	)
}
