package common_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftcore/internal/common"
)

func TestNewLimitOrder_RequiresPositivePrice(t *testing.T) {
	_, err := common.NewLimitOrder("a", "X", common.Buy, 10, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestNewLimitOrder_RequiresPositiveQuantity(t *testing.T) {
	_, err := common.NewLimitOrder("a", "X", common.Buy, 0, 100)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestNewMarketOrder_RequiresPositiveQuantity(t *testing.T) {
	_, err := common.NewMarketOrder("a", "X", common.Buy, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestOrder_RemainingAndFill(t *testing.T) {
	o, err := common.NewLimitOrder("a", "X", common.Buy, 100, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 100, o.Remaining())

	o.ApplyFill(40)
	assert.Equal(t, common.PartialFill, o.Status)
	assert.EqualValues(t, 60, o.Remaining())

	o.ApplyFill(60)
	assert.Equal(t, common.Filled, o.Status)
	assert.EqualValues(t, 0, o.Remaining())
}

func TestOrder_CancelledStatusNeverOverwritten(t *testing.T) {
	o, err := common.NewLimitOrder("a", "X", common.Buy, 100, 50)
	require.NoError(t, err)
	o.Status = common.Cancelled

	o.ApplyFill(10)
	assert.Equal(t, common.Cancelled, o.Status)
}

func TestOrder_UniqueIDs(t *testing.T) {
	o1, _ := common.NewLimitOrder("a", "X", common.Buy, 1, 1)
	o2, _ := common.NewLimitOrder("a", "X", common.Buy, 1, 1)
	assert.NotEqual(t, o1.OrderID, o2.OrderID)
}
