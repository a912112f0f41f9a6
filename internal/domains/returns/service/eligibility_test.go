package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
)

// =====================================================
// PURE ITEM EVALUATOR
// =====================================================

func TestEvaluateItem_WithinWindow(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     true,
		ReturnWindowDays: 7,
		Quantity:         2,
	}

	now := time.Now()
	deliveredAt := now.Add(-3 * 24 * time.Hour)

	verdict := EvaluateItem(order, item, deliveredAt, now)

	require.True(t, verdict.Eligible)
	assert.Equal(t, 2, verdict.MaxReturnableQuantity)
	assert.Equal(t, 4, verdict.RemainingDays)
}

func TestEvaluateItem_WindowExpired(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     true,
		ReturnWindowDays: 7,
		Quantity:         1,
	}

	now := time.Now()
	deliveredAt := now.Add(-10 * 24 * time.Hour)

	verdict := EvaluateItem(order, item, deliveredAt, now)

	require.False(t, verdict.Eligible)
	assert.Contains(t, verdict.Reason, "7-day")
}

func TestEvaluateItem_WindowBoundary(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     true,
		ReturnWindowDays: 7,
		Quantity:         1,
	}

	now := time.Now()

	// Exactly 7 full days in: still within the window.
	verdict := EvaluateItem(order, item, now.Add(-7*24*time.Hour), now)
	assert.True(t, verdict.Eligible)
	assert.Equal(t, 0, verdict.RemainingDays)

	// Day 8: expired.
	verdict = EvaluateItem(order, item, now.Add(-8*24*time.Hour), now)
	assert.False(t, verdict.Eligible)
}

func TestEvaluateItem_NotReturnable(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     false,
		ReturnWindowDays: 7,
		Quantity:         1,
	}

	verdict := EvaluateItem(order, item, time.Now(), time.Now())

	require.False(t, verdict.Eligible)
	assert.Contains(t, verdict.Reason, "not returnable")
}

func TestEvaluateItem_FullyReturned(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     true,
		ReturnWindowDays: 7,
		Quantity:         2,
		QuantityReturned: 2,
	}

	verdict := EvaluateItem(order, item, time.Now(), time.Now())

	require.False(t, verdict.Eligible)
	assert.Contains(t, verdict.Reason, "already been returned")
}

func TestEvaluateItem_DefaultWindowWhenUnset(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable: true,
		Quantity:     1,
	}

	now := time.Now()

	// Five days in: inside the 7-day default window.
	verdict := EvaluateItem(order, item, now.Add(-5*24*time.Hour), now)
	assert.True(t, verdict.Eligible)
	assert.Equal(t, 2, verdict.RemainingDays)
}

func TestEvaluateItem_Idempotent(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	item := &ordermodel.OrderItem{
		IsReturnable:     true,
		ReturnWindowDays: 7,
		Quantity:         3,
		QuantityReturned: 1,
	}

	now := time.Now()
	deliveredAt := now.Add(-2 * 24 * time.Hour)

	first := EvaluateItem(order, item, deliveredAt, now)
	second := EvaluateItem(order, item, deliveredAt, now)
	assert.Equal(t, first, second)
}

// =====================================================
// ORDER-LEVEL ELIGIBILITY
// =====================================================

func TestCheckEligibility_EligibleOrder(t *testing.T) {
	fx := newFixture()
	order, item := fx.addDeliveredOrder(3, 2, "100")

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	assert.True(t, result.Eligible)
	assert.Nil(t, result.Reason)
	require.Len(t, result.EligibleItems, 1)
	assert.Equal(t, item.ID, result.EligibleItems[0].ItemID)
	assert.Equal(t, 2, result.EligibleItems[0].MaxReturnableQuantity)
	assert.Equal(t, 4, result.EligibleItems[0].RemainingDays)
	assert.Empty(t, result.IneligibleItems)
}

func TestCheckEligibility_OrderNotFound(t *testing.T) {
	fx := newFixture()

	_, err := fx.service.CheckEligibility(context.Background(), uuid.New(), fx.userID)
	assert.ErrorIs(t, err, ordermodel.ErrOrderNotFound)
}

func TestCheckEligibility_OwnershipEnforced(t *testing.T) {
	fx := newFixture()
	order, _ := fx.addDeliveredOrder(3, 2, "100")

	_, err := fx.service.CheckEligibility(context.Background(), order.ID, uuid.New())

	var retErr *model.ReturnError
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, model.ErrCodeUnauthorized, retErr.Code)
}

func TestCheckEligibility_NotDelivered(t *testing.T) {
	fx := newFixture()
	order, _ := fx.addDeliveredOrder(3, 2, "100")
	order.Status = ordermodel.OrderStatusShipping

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	assert.False(t, result.Eligible)
	require.NotNil(t, result.Reason)
	assert.Contains(t, *result.Reason, "after delivery")
	assert.Empty(t, result.EligibleItems)
	assert.Len(t, result.IneligibleItems, 1)
}

func TestCheckEligibility_BlockedByActiveRequest(t *testing.T) {
	fx := newFixture()
	order, item := fx.addDeliveredOrder(3, 2, "100")

	// An existing pending request for this order blocks a new one.
	existing := &model.ReturnRequest{
		ID:           uuid.New(),
		ReturnNumber: "RET-1748779200000-001",
		OrderID:      order.ID,
		UserID:       fx.userID,
		Status:       model.StatusPending,
		Items:        []model.ReturnItem{{ItemID: item.ID, Quantity: 1}},
	}
	fx.returnRepo.requests[existing.ID] = existing

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	assert.False(t, result.Eligible)
	require.Len(t, result.BlockingRequests, 1)
	assert.Equal(t, existing.ReturnNumber, result.BlockingRequests[0].ReturnNumber)
	assert.Equal(t, model.StatusPending, result.BlockingRequests[0].Status)
}

func TestCheckEligibility_TerminalRequestDoesNotBlock(t *testing.T) {
	fx := newFixture()
	order, item := fx.addDeliveredOrder(3, 2, "100")

	existing := &model.ReturnRequest{
		ID:           uuid.New(),
		ReturnNumber: "RET-1748779200000-002",
		OrderID:      order.ID,
		UserID:       fx.userID,
		Status:       model.StatusRejected,
		Items:        []model.ReturnItem{{ItemID: item.ID, Quantity: 1}},
	}
	fx.returnRepo.requests[existing.ID] = existing

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	assert.True(t, result.Eligible)
	assert.Empty(t, result.BlockingRequests)
}

func TestCheckEligibility_AllItemsReturned(t *testing.T) {
	fx := newFixture()
	order, _ := fx.addDeliveredOrder(3, 2, "100")

	items := fx.orderRepo.items[order.ID]
	items[0].QuantityReturned = items[0].Quantity

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	assert.False(t, result.Eligible)
	require.NotNil(t, result.Reason)
	assert.Contains(t, *result.Reason, "already been returned")
}

func TestCheckEligibility_MissingDeliveredAtFallsBackToNow(t *testing.T) {
	fx := newFixture()
	order, _ := fx.addDeliveredOrder(3, 2, "100")
	order.DeliveredAt = nil

	result, err := fx.service.CheckEligibility(context.Background(), order.ID, fx.userID)
	require.NoError(t, err)

	// Treated as freshly delivered: the full window is available.
	assert.True(t, result.Eligible)
	require.Len(t, result.EligibleItems, 1)
	assert.Equal(t, ordermodel.DefaultReturnWindowDays, result.EligibleItems[0].RemainingDays)
}
