package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
	"bbm-backend/pkg/logger"
)

// =====================================================
// ELIGIBILITY EVALUATION
// =====================================================

// activeStatuses block a new submission for the same order.
var activeStatuses = map[string]bool{
	model.StatusPending:    true,
	model.StatusApproved:   true,
	model.StatusProcessing: true,
}

// EvaluateItem is the per-item eligibility verdict. Pure: same inputs,
// same verdict, nothing persisted.
func EvaluateItem(order *ordermodel.Order, item *ordermodel.OrderItem, deliveredAt, now time.Time) model.ItemEligibility {
	if !item.IsReturnable {
		return model.ItemEligibility{
			Eligible: false,
			Reason:   "This item is not returnable",
		}
	}

	window := item.ReturnWindowDays
	if window <= 0 {
		window = ordermodel.DefaultReturnWindowDays
	}

	daysSince := int(now.Sub(deliveredAt).Hours() / 24)
	if daysSince > window {
		return model.ItemEligibility{
			Eligible: false,
			Reason:   fmt.Sprintf("The %d-day return window for this item has expired", window),
		}
	}

	remaining := item.RemainingReturnable()
	if remaining <= 0 {
		return model.ItemEligibility{
			Eligible: false,
			Reason:   "All units of this item have already been returned",
		}
	}

	return model.ItemEligibility{
		Eligible:              true,
		MaxReturnableQuantity: remaining,
		RemainingDays:         window - daysSince,
	}
}

// CheckEligibility evaluates the order-level and per-item return rules.
func (s *returnService) CheckEligibility(ctx context.Context, orderID, userID uuid.UUID) (*model.EligibilityResult, error) {
	order, items, err := s.loadOwnedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	return s.evaluateOrder(ctx, order, items)
}

// loadOwnedOrder fetches the order and its items and enforces ownership.
func (s *returnService) loadOwnedOrder(ctx context.Context, orderID, userID uuid.UUID) (*ordermodel.Order, []ordermodel.OrderItem, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	if order.UserID != userID {
		return nil, nil, model.NewReturnError(model.ErrCodeUnauthorized,
			"You do not have access to this order", model.ErrUnauthorized)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

func (s *returnService) evaluateOrder(ctx context.Context, order *ordermodel.Order, items []ordermodel.OrderItem) (*model.EligibilityResult, error) {
	result := &model.EligibilityResult{
		EligibleItems:   []model.EligibleItem{},
		IneligibleItems: []model.IneligibleItem{},
	}

	if !order.IsDelivered() {
		reason := "Orders can only be returned after delivery"
		result.Reason = &reason
		for _, item := range items {
			result.IneligibleItems = append(result.IneligibleItems, model.IneligibleItem{
				ItemID:      item.ID,
				ProductName: item.ProductName,
				Reason:      reason,
			})
		}
		return result, nil
	}

	// An active request for the same order blocks a new one.
	existing, err := s.returnRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	for _, req := range existing {
		if activeStatuses[req.Status] {
			result.BlockingRequests = append(result.BlockingRequests, model.BlockingRequest{
				ReturnNumber: req.ReturnNumber,
				Status:       req.Status,
			})
		}
	}
	if len(result.BlockingRequests) > 0 {
		reason := "A return request is already in progress for this order"
		result.Reason = &reason
		return result, nil
	}

	deliveredAt := s.resolveDeliveredAt(order)
	now := time.Now()

	totalOrdered := 0
	totalReturned := 0
	for i := range items {
		item := &items[i]
		totalOrdered += item.Quantity
		totalReturned += item.QuantityReturned

		verdict := EvaluateItem(order, item, deliveredAt, now)
		if verdict.Eligible {
			result.EligibleItems = append(result.EligibleItems, model.EligibleItem{
				ItemID:                item.ID,
				ProductName:           item.ProductName,
				MaxReturnableQuantity: verdict.MaxReturnableQuantity,
				RemainingDays:         verdict.RemainingDays,
			})
		} else {
			result.IneligibleItems = append(result.IneligibleItems, model.IneligibleItem{
				ItemID:      item.ID,
				ProductName: item.ProductName,
				Reason:      verdict.Reason,
			})
		}
	}

	if len(result.EligibleItems) == 0 {
		reason := "No items in this order are eligible for return"
		if totalOrdered > 0 && totalReturned >= totalOrdered {
			reason = "All items from this order have already been returned"
		}
		result.Reason = &reason
		return result, nil
	}

	result.Eligible = true
	return result, nil
}

// resolveDeliveredAt falls back to "now" for delivered orders missing a
// delivery timestamp, which grants those orders a fresh window. Logged
// so data gaps stay visible.
func (s *returnService) resolveDeliveredAt(order *ordermodel.Order) time.Time {
	if order.DeliveredAt != nil {
		return *order.DeliveredAt
	}
	logger.Warn("order is delivered but has no delivery timestamp", map[string]interface{}{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	})
	return time.Now()
}
