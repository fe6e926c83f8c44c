// Package common holds the value types shared by the book, engine, and
// gateway: orders, trades, market-data snapshots, and their enums.
package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrValidation is returned by the New*Order constructors when an order
// fails basic construction checks (zero quantity, non-positive limit price).
var ErrValidation = errors.New("order validation failed")

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Limit {
		return "LIMIT"
	}
	return "MARKET"
}

type OrderStatus int

const (
	Pending OrderStatus = iota
	PartialFill
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case PartialFill:
		return "PARTIAL_FILL"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Order is the unit of work submitted by an agent. Once constructed it is
// owned exclusively by the engine until it reaches a terminal status; while
// resting, a *Order is shared between the book's heap and its id index, so
// all mutation (fills, cancellation) happens in place through that pointer.
type Order struct {
	OrderID      string
	AgentID      string
	Symbol       string
	Side         Side
	Type         OrderType
	Quantity     uint64 // original requested quantity
	FilledQty    uint64
	LimitPrice   float64 // zero/unused for MARKET
	Status       OrderStatus
	CreatedAt    time.Time
	LatencyDelay time.Duration
	EffectiveAt  time.Time
	MaxLatency   time.Duration // zero means no budget (never violated)
	bookSeq      uint64        // assigned when the order first enters a book heap; tie-break
}

// AssignBookSequence stamps the monotone insertion sequence used to break
// price ties in the book heap. Called exactly once, the first time the
// order is pushed onto a side heap.
func (o *Order) AssignBookSequence(seq uint64) { o.bookSeq = seq }

// NewLimitOrder validates and constructs a day-limit order.
func NewLimitOrder(agentID, symbol string, side Side, quantity uint64, limitPrice float64) (*Order, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if limitPrice <= 0 {
		return nil, fmt.Errorf("%w: limit orders require a positive price", ErrValidation)
	}
	return newOrder(agentID, symbol, side, Limit, quantity, limitPrice), nil
}

// NewMarketOrder validates and constructs an immediate-or-discard market
// order.
func NewMarketOrder(agentID, symbol string, side Side, quantity uint64) (*Order, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	return newOrder(agentID, symbol, side, Market, quantity, 0), nil
}

func newOrder(agentID, symbol string, side Side, typ OrderType, quantity uint64, limitPrice float64) *Order {
	now := time.Now()
	return &Order{
		OrderID:     uuid.New().String(),
		AgentID:     agentID,
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		Quantity:    quantity,
		LimitPrice:  limitPrice,
		Status:      Pending,
		CreatedAt:   now,
		EffectiveAt: now,
	}
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() uint64 { return o.Quantity - o.FilledQty }

func (o *Order) IsBuy() bool  { return o.Side == Buy }
func (o *Order) IsSell() bool { return o.Side == Sell }

// SetLatency stamps the sampled network delay and recomputes EffectiveAt.
// Called exactly once by the engine at submission time.
func (o *Order) SetLatency(delay time.Duration) {
	o.LatencyDelay = delay
	o.EffectiveAt = o.CreatedAt.Add(delay)
}

// ApplyFill advances FilledQty and recomputes Status. A CANCELLED order's
// status is never overwritten.
func (o *Order) ApplyFill(qty uint64) {
	o.FilledQty += qty
	if o.Status == Cancelled {
		return
	}
	switch {
	case o.FilledQty == o.Quantity:
		o.Status = Filled
	case o.FilledQty > 0:
		o.Status = PartialFill
	}
}

// Less implements the composite (±price, sequence) strict weak ordering used
// by the book heaps: at equal price the earlier-inserted order wins, with
// the sequence number (not wall-clock time) breaking ties deterministically.
func (o *Order) Less(other *Order) bool {
	if o.Side == Buy {
		if o.LimitPrice != other.LimitPrice {
			return o.LimitPrice > other.LimitPrice
		}
	} else {
		if o.LimitPrice != other.LimitPrice {
			return o.LimitPrice < other.LimitPrice
		}
	}
	return o.bookSeq < other.bookSeq
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"Order(%s, agent=%s, %s %s %s qty=%d/%d price=%.4f status=%s)",
		shortID(o.OrderID), o.AgentID, o.Symbol, o.Side, o.Type,
		o.FilledQty, o.Quantity, o.LimitPrice, o.Status,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
