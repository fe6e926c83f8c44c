// Package gateway implements an optional binary TCP front end: a wire
// protocol for submitting orders, cancelling them, and receiving
// acknowledgment/trade/error reports, separate from driving the engine
// in-process.
package gateway

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"hftcore/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("gateway: invalid message type")
	ErrMessageTooShort    = errors.New("gateway: message too short")
)

// MessageType identifies the kind of client-to-server message.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

// ReportType identifies the kind of server-to-client message.
type ReportType uint8

const (
	ExecutionReport ReportType = iota
	ErrorReport
	AckReport
)

// baseHeaderLen is the 2-byte message type prefix common to every
// client-to-server message.
const baseHeaderLen = 2

// Message is implemented by every parsed client-to-server message.
type Message interface {
	GetType() MessageType
}

type baseMessage struct {
	TypeOf MessageType
}

func (m baseMessage) GetType() MessageType { return m.TypeOf }

// ParseMessage decodes a single client-to-server message from buf.
func ParseMessage(buf []byte) (Message, error) {
	if len(buf) < baseHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	body := buf[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case Heartbeat:
		return baseMessage{TypeOf: Heartbeat}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage requests that an order be submitted to the engine.
//
// Wire layout (after the 2-byte type prefix):
//
//	[0]      side        (1 byte)
//	[1]      order type  (1 byte)
//	[2]      symbol len  (1 byte)
//	[3:3+n]  symbol      (n bytes)
//	 +0:8    quantity    (8 bytes, big-endian uint64)
//	 +8:16   limit price (8 bytes, big-endian float64 bits)
//	 +16     agent id len (1 byte)
//	 +17:17+m agent id   (m bytes)
//	 +0:8    max latency nanos (8 bytes, big-endian uint64; 0 = no budget)
type NewOrderMessage struct {
	baseMessage
	Side       common.Side
	Type       common.OrderType
	Symbol     string
	Quantity   uint64
	LimitPrice float64
	AgentID    string
	MaxLatency uint64
}

const newOrderFixedLen = 1 + 1 + 1 // side, type, symbolLen

func parseNewOrder(buf []byte) (NewOrderMessage, error) {
	m := NewOrderMessage{baseMessage: baseMessage{TypeOf: NewOrder}}
	if len(buf) < newOrderFixedLen {
		return m, ErrMessageTooShort
	}

	m.Side = common.Side(buf[0])
	m.Type = common.OrderType(buf[1])
	symbolLen := int(buf[2])
	offset := newOrderFixedLen

	if len(buf) < offset+symbolLen+8+8+1 {
		return m, ErrMessageTooShort
	}
	m.Symbol = string(buf[offset : offset+symbolLen])
	offset += symbolLen

	m.Quantity = binary.BigEndian.Uint64(buf[offset : offset+8])
	offset += 8
	m.LimitPrice = math.Float64frombits(binary.BigEndian.Uint64(buf[offset : offset+8]))
	offset += 8

	agentLen := int(buf[offset])
	offset++
	if len(buf) < offset+agentLen+8 {
		return m, ErrMessageTooShort
	}
	m.AgentID = string(buf[offset : offset+agentLen])
	offset += agentLen

	m.MaxLatency = binary.BigEndian.Uint64(buf[offset : offset+8])
	return m, nil
}

// Order converts the wire message into a common.Order, validating fields.
func (m NewOrderMessage) Order() (*common.Order, error) {
	var order *common.Order
	var err error
	switch m.Type {
	case common.Market:
		order, err = common.NewMarketOrder(m.AgentID, m.Symbol, m.Side, m.Quantity)
	default:
		order, err = common.NewLimitOrder(m.AgentID, m.Symbol, m.Side, m.Quantity, m.LimitPrice)
	}
	if err != nil {
		return nil, err
	}
	if m.MaxLatency > 0 {
		order.MaxLatency = durationFromNanos(m.MaxLatency)
	}
	return order, nil
}

// CancelOrderMessage requests that a resting order be cancelled.
//
// Wire layout (after the 2-byte type prefix):
//
//	[0]      agent id len (1 byte)
//	[1:1+m]  agent id     (m bytes)
//	 +0      order id len (1 byte)
//	 +1:1+k  order id     (k bytes)
type CancelOrderMessage struct {
	baseMessage
	AgentID string
	OrderID string
}

func parseCancelOrder(buf []byte) (CancelOrderMessage, error) {
	m := CancelOrderMessage{baseMessage: baseMessage{TypeOf: CancelOrder}}
	if len(buf) < 1 {
		return m, ErrMessageTooShort
	}

	agentLen := int(buf[0])
	offset := 1
	if len(buf) < offset+agentLen+1 {
		return m, ErrMessageTooShort
	}
	m.AgentID = string(buf[offset : offset+agentLen])
	offset += agentLen

	orderLen := int(buf[offset])
	offset++
	if len(buf) < offset+orderLen {
		return m, ErrMessageTooShort
	}
	m.OrderID = string(buf[offset : offset+orderLen])
	return m, nil
}

// EncodeNewOrder serializes a NewOrderMessage for the client side.
func EncodeNewOrder(side common.Side, orderType common.OrderType, symbol string, qty uint64, price float64, agentID string, maxLatencyNanos uint64) []byte {
	symbolBytes := []byte(symbol)
	agentBytes := []byte(agentID)

	total := baseHeaderLen + newOrderFixedLen + len(symbolBytes) + 8 + 8 + 1 + len(agentBytes) + 8
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	buf[2] = byte(side)
	buf[3] = byte(orderType)
	buf[4] = byte(len(symbolBytes))
	offset := 5
	copy(buf[offset:], symbolBytes)
	offset += len(symbolBytes)

	binary.BigEndian.PutUint64(buf[offset:offset+8], qty)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:offset+8], math.Float64bits(price))
	offset += 8

	buf[offset] = byte(len(agentBytes))
	offset++
	copy(buf[offset:], agentBytes)
	offset += len(agentBytes)

	binary.BigEndian.PutUint64(buf[offset:offset+8], maxLatencyNanos)
	return buf
}

// EncodeCancelOrder serializes a CancelOrderMessage for the client side.
func EncodeCancelOrder(agentID, orderID string) []byte {
	agentBytes := []byte(agentID)
	orderBytes := []byte(orderID)

	total := baseHeaderLen + 1 + len(agentBytes) + 1 + len(orderBytes)
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	buf[2] = byte(len(agentBytes))
	offset := 3
	copy(buf[offset:], agentBytes)
	offset += len(agentBytes)

	buf[offset] = byte(len(orderBytes))
	offset++
	copy(buf[offset:], orderBytes)
	return buf
}

// Report is a server-to-client message: an order acknowledgment, a trade
// execution, or an error.
//
// Wire layout:
//
//	[0]       report type      (1 byte)
//	[1]       side             (1 byte, meaningless for AckReport/ErrorReport)
//	[2:10]    quantity         (8 bytes, big-endian uint64)
//	[10:18]   price            (8 bytes, big-endian float64 bits)
//	[18]      symbol len       (1 byte)
//	[19]      counterparty len (1 byte)
//	[20:22]   error str len    (2 bytes, big-endian uint16)
//	[22]      order id len     (1 byte)
//	[23:...]  symbol, counterparty, error, order id (variable)
type Report struct {
	Type         ReportType
	Side         common.Side
	Quantity     uint64
	Price        float64
	Symbol       string
	Counterparty string
	Err          string
	OrderID      string
}

const reportFixedLen = 1 + 1 + 8 + 8 + 1 + 1 + 2 + 1

// Serialize encodes the report for the wire.
func (r Report) Serialize() []byte {
	total := reportFixedLen + len(r.Symbol) + len(r.Counterparty) + len(r.Err) + len(r.OrderID)
	buf := make([]byte, total)

	buf[0] = byte(r.Type)
	buf[1] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[2:10], r.Quantity)
	binary.BigEndian.PutUint64(buf[10:18], math.Float64bits(r.Price))
	buf[18] = byte(len(r.Symbol))
	buf[19] = byte(len(r.Counterparty))
	binary.BigEndian.PutUint16(buf[20:22], uint16(len(r.Err)))
	buf[22] = byte(len(r.OrderID))

	offset := reportFixedLen
	copy(buf[offset:], r.Symbol)
	offset += len(r.Symbol)
	copy(buf[offset:], r.Counterparty)
	offset += len(r.Counterparty)
	copy(buf[offset:], r.Err)
	offset += len(r.Err)
	copy(buf[offset:], r.OrderID)

	return buf
}

// DecodeReport parses a Report previously produced by Serialize from its
// fixed-length header and its variable trailer (VariableTrailerLen(header)
// bytes).
func DecodeReport(header []byte, trailer []byte) (Report, error) {
	if len(header) < reportFixedLen {
		return Report{}, ErrMessageTooShort
	}
	symbolLen := int(header[18])
	counterpartyLen := int(header[19])
	errLen := int(binary.BigEndian.Uint16(header[20:22]))
	orderIDLen := int(header[22])

	if len(trailer) < symbolLen+counterpartyLen+errLen+orderIDLen {
		return Report{}, ErrMessageTooShort
	}

	r := Report{
		Type:     ReportType(header[0]),
		Side:     common.Side(header[1]),
		Quantity: binary.BigEndian.Uint64(header[2:10]),
		Price:    math.Float64frombits(binary.BigEndian.Uint64(header[10:18])),
	}
	offset := 0
	r.Symbol = string(trailer[offset : offset+symbolLen])
	offset += symbolLen
	r.Counterparty = string(trailer[offset : offset+counterpartyLen])
	offset += counterpartyLen
	r.Err = string(trailer[offset : offset+errLen])
	offset += errLen
	r.OrderID = string(trailer[offset : offset+orderIDLen])
	return r, nil
}

// VariableTrailerLen returns how many additional bytes to read after header
// to complete a Report.
func VariableTrailerLen(header []byte) int {
	symbolLen := int(header[18])
	counterpartyLen := int(header[19])
	errLen := int(binary.BigEndian.Uint16(header[20:22]))
	orderIDLen := int(header[22])
	return symbolLen + counterpartyLen + errLen + orderIDLen
}

func tradeReports(trade common.Trade) (buyerReport, sellerReport []byte) {
	buyer := Report{
		Type:         ExecutionReport,
		Side:         common.Buy,
		Quantity:     trade.Quantity,
		Price:        trade.Price,
		Symbol:       trade.Symbol,
		Counterparty: trade.SellerAgentID,
	}
	seller := Report{
		Type:         ExecutionReport,
		Side:         common.Sell,
		Quantity:     trade.Quantity,
		Price:        trade.Price,
		Symbol:       trade.Symbol,
		Counterparty: trade.BuyerAgentID,
	}
	return buyer.Serialize(), seller.Serialize()
}

func errorReport(err error) []byte {
	r := Report{Type: ErrorReport, Err: err.Error()}
	return r.Serialize()
}

// ackReport confirms to the submitting client which order id the engine
// assigned, so a later CancelOrderMessage can reference it.
func ackReport(orderID string) []byte {
	r := Report{Type: AckReport, OrderID: orderID}
	return r.Serialize()
}

func durationFromNanos(n uint64) time.Duration { return time.Duration(n) }
