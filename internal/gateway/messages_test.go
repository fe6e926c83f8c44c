package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftcore/internal/common"
	"hftcore/internal/gateway"
)

func TestNewOrderMessage_RoundTrip(t *testing.T) {
	wire := gateway.EncodeNewOrder(common.Buy, common.Limit, "AAPL", 100, 150.25, "agent-1", 5_000_000)

	msg, err := gateway.ParseMessage(wire)
	require.NoError(t, err)

	nom, ok := msg.(gateway.NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, common.Buy, nom.Side)
	assert.Equal(t, common.Limit, nom.Type)
	assert.Equal(t, "AAPL", nom.Symbol)
	assert.EqualValues(t, 100, nom.Quantity)
	assert.Equal(t, 150.25, nom.LimitPrice)
	assert.Equal(t, "agent-1", nom.AgentID)
	assert.EqualValues(t, 5_000_000, nom.MaxLatency)

	order, err := nom.Order()
	require.NoError(t, err)
	assert.Equal(t, "agent-1", order.AgentID)
	assert.Equal(t, "AAPL", order.Symbol)
	assert.EqualValues(t, 100, order.Quantity)
}

func TestCancelOrderMessage_RoundTrip(t *testing.T) {
	wire := gateway.EncodeCancelOrder("agent-7", "order-123")

	msg, err := gateway.ParseMessage(wire)
	require.NoError(t, err)

	com, ok := msg.(gateway.CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "agent-7", com.AgentID)
	assert.Equal(t, "order-123", com.OrderID)
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := gateway.ParseMessage([]byte{0})
	assert.ErrorIs(t, err, gateway.ErrMessageTooShort)
}

func TestParseMessage_UnknownType(t *testing.T) {
	_, err := gateway.ParseMessage([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, gateway.ErrInvalidMessageType)
}

func TestReport_SerializeAndDecode(t *testing.T) {
	r := gateway.Report{
		Type:         gateway.ExecutionReport,
		Side:         common.Buy,
		Quantity:     42,
		Price:        99.5,
		Symbol:       "MSFT",
		Counterparty: "agent-2",
	}
	wire := r.Serialize()

	headerLen := len(wire) - len(r.Symbol) - len(r.Counterparty) - len(r.Err)
	header := wire[:headerLen]
	trailerLen := gateway.VariableTrailerLen(header)
	trailer := wire[headerLen : headerLen+trailerLen]

	decoded, err := gateway.DecodeReport(header, trailer)
	require.NoError(t, err)
	assert.Equal(t, r.Type, decoded.Type)
	assert.Equal(t, r.Side, decoded.Side)
	assert.Equal(t, r.Quantity, decoded.Quantity)
	assert.Equal(t, r.Price, decoded.Price)
	assert.Equal(t, r.Symbol, decoded.Symbol)
	assert.Equal(t, r.Counterparty, decoded.Counterparty)
}
