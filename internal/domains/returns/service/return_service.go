package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	ordermodel "bbm-backend/internal/domains/order/model"
	orderrepo "bbm-backend/internal/domains/order/repository"
	"bbm-backend/internal/domains/returns/model"
	"bbm-backend/internal/domains/returns/repository"
	"bbm-backend/pkg/cache"
	"bbm-backend/pkg/logger"
)

const (
	trackingCacheKeyPrefix = "returns:track:"
	trackingCacheTTL       = 60 * time.Second

	refundMethodsCacheKey = "returns:refund_methods"
	refundMethodsCacheTTL = time.Hour
)

// =====================================================
// RETURN SERVICE IMPLEMENTATION
// =====================================================
type returnService struct {
	orderRepo  orderrepo.OrderRepository
	returnRepo repository.ReturnRepository
	calculator *RefundCalculator
	cache      cache.Cache
}

// NewReturnService creates a new return service
func NewReturnService(
	orderRepo orderrepo.OrderRepository,
	returnRepo repository.ReturnRepository,
	calculator *RefundCalculator,
	cacheClient cache.Cache,
) ReturnService {
	return &returnService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		calculator: calculator,
		cache:      cacheClient,
	}
}

// =====================================================
// PREVIEW REFUND
// =====================================================

func (s *returnService) PreviewRefund(ctx context.Context, userID uuid.UUID, req model.PreviewRefundRequest) (*model.PreviewRefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewReturnError(model.ErrCodeValidation, "Invalid refund preview request", err)
	}

	order, items, err := s.loadOwnedOrder(ctx, req.OrderID, userID)
	if err != nil {
		return nil, err
	}

	computation := s.calculator.ComputeRefund(order, items, req.Items)

	resp := &model.PreviewRefundResponse{
		TotalRefund: computation.TotalRefund,
		Breakdown:   computation.Breakdown,
	}
	if req.RefundMethod == model.RefundMethodBBMBucks {
		resp.Incentive = s.calculator.ComputeIncentive(computation.TotalRefund)
	}

	return resp, nil
}

// =====================================================
// SUBMIT RETURN
// =====================================================

func (s *returnService) SubmitReturn(ctx context.Context, userID uuid.UUID, req model.SubmitReturnRequest) (*model.SubmitReturnResponse, error) {
	// Step 1: Validate request shape.
	if err := req.Validate(); err != nil {
		return nil, model.NewReturnError(model.ErrCodeValidation, "Invalid return request", err)
	}

	// Step 2: Load the order and enforce ownership.
	order, items, err := s.loadOwnedOrder(ctx, req.OrderID, userID)
	if err != nil {
		return nil, err
	}

	// Step 3: Evaluate eligibility. The quantity invariant is checked
	// again under row locks inside the submit transaction; this pass
	// exists to give the customer a precise reason up front.
	eligibility, err := s.evaluateOrder(ctx, order, items)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		msg := "Order is not eligible for return"
		if eligibility.Reason != nil {
			msg = *eligibility.Reason
		}
		return nil, model.NewReturnError(model.ErrCodeNotEligible, msg, model.ErrNotEligible)
	}

	// Step 4: Resolve each requested line against the eligible items.
	snapshot, err := s.buildItemSnapshot(order, items, eligibility, req.Items)
	if err != nil {
		return nil, err
	}

	// Step 5: Compute the refund. BBM Bucks refunds store the bonus in
	// the final amount; the breakdown keeps the pre-bonus components.
	computation := s.calculator.ComputeRefund(order, items, req.Items)
	refundAmount := computation.TotalRefund
	if req.RefundMethod == model.RefundMethodBBMBucks {
		refundAmount = s.calculator.ComputeIncentive(computation.TotalRefund).TotalAmount
	}

	// Step 6: Assemble and persist the request. The repository applies
	// the document insert and the order bookkeeping in one transaction.
	ret := &model.ReturnRequest{
		ID:                      uuid.New(),
		ReturnNumber:            model.GenerateReturnNumber(time.Now()),
		OrderID:                 order.ID,
		UserID:                  userID,
		Items:                   snapshot,
		Reason:                  req.Reason,
		CustomReason:            req.CustomReason,
		RefundMethod:            req.RefundMethod,
		RefundAmount:            refundAmount,
		RefundBreakdown:         computation.Breakdown,
		Status:                  model.StatusPending,
		EstimatedProcessingDays: model.EstimatedProcessingDays,
		CustomerNotes:           req.CustomerNotes,
		Images:                  req.Images,
	}

	if err := s.returnRepo.SubmitReturn(ctx, ret, order.Version); err != nil {
		if errors.Is(err, model.ErrQuantityExceeded) || errors.Is(err, model.ErrValidation) {
			return nil, model.NewReturnError(model.ErrCodeQuantityExceeded,
				"Requested quantity is no longer available for return", err)
		}
		logger.Error("failed to submit return request", err)
		return nil, err
	}

	logger.Info("return request submitted", map[string]interface{}{
		"return_number": ret.ReturnNumber,
		"order_id":      order.ID.String(),
		"user_id":       userID.String(),
		"refund_amount": ret.RefundAmount.String(),
	})

	return &model.SubmitReturnResponse{
		ReturnRequestID:         ret.ID,
		ReturnNumber:            ret.ReturnNumber,
		Status:                  ret.Status,
		RefundAmount:            ret.RefundAmount,
		RefundBreakdown:         ret.RefundBreakdown,
		EstimatedProcessingDays: ret.EstimatedProcessingDays,
		SubmittedAt:             ret.SubmittedAt,
	}, nil
}

// buildItemSnapshot turns the requested lines into immutable snapshot
// entries, rejecting lines that reference ineligible items or exceed
// the returnable quantity.
func (s *returnService) buildItemSnapshot(
	order *ordermodel.Order,
	items []ordermodel.OrderItem,
	eligibility *model.EligibilityResult,
	lines []model.ReturnLine,
) ([]model.ReturnItem, error) {
	itemsByID := make(map[uuid.UUID]*ordermodel.OrderItem, len(items))
	for i := range items {
		itemsByID[items[i].ID] = &items[i]
	}
	eligibleByID := make(map[uuid.UUID]model.EligibleItem, len(eligibility.EligibleItems))
	for _, e := range eligibility.EligibleItems {
		eligibleByID[e.ItemID] = e
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	snapshot := make([]model.ReturnItem, 0, len(lines))
	for _, line := range lines {
		item, ok := itemsByID[line.ItemID]
		if !ok {
			return nil, model.NewReturnError(model.ErrCodeValidation,
				"Selected item does not belong to this order", model.ErrValidation)
		}
		if seen[line.ItemID] {
			return nil, model.NewReturnError(model.ErrCodeValidation,
				fmt.Sprintf("Item %q is selected more than once", item.ProductName), model.ErrValidation)
		}
		seen[line.ItemID] = true

		eligible, ok := eligibleByID[line.ItemID]
		if !ok {
			return nil, model.NewReturnError(model.ErrCodeNotEligible,
				fmt.Sprintf("Item %q is not eligible for return", item.ProductName), model.ErrNotEligible)
		}
		if line.Quantity > eligible.MaxReturnableQuantity {
			return nil, model.NewReturnError(model.ErrCodeQuantityExceeded,
				fmt.Sprintf("Only %d unit(s) of %q can still be returned",
					eligible.MaxReturnableQuantity, item.ProductName), model.ErrQuantityExceeded)
		}

		snapshot = append(snapshot, model.ReturnItem{
			ItemID:      item.ID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Color:       item.Color,
			Price:       item.Price,
			Quantity:    line.Quantity,
			MaxQuantity: eligible.MaxReturnableQuantity,
			Reason:      line.Reason,
		})
	}

	return snapshot, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *returnService) GetReturnRequest(ctx context.Context, id, userID uuid.UUID) (*model.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ret.IsOwnedBy(userID) {
		return nil, model.NewReturnError(model.ErrCodeUnauthorized,
			"You do not have access to this return request", model.ErrUnauthorized)
	}
	return ret, nil
}

func (s *returnService) ListUserReturns(ctx context.Context, userID uuid.UUID) ([]*model.ReturnRequest, error) {
	return s.returnRepo.ListByUser(ctx, userID)
}

func (s *returnService) ListOrderReturns(ctx context.Context, orderID, userID uuid.UUID) (*model.OrderReturnsResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.NewReturnError(model.ErrCodeUnauthorized,
			"You do not have access to this order", model.ErrUnauthorized)
	}

	requests, err := s.returnRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	records, err := s.orderRepo.GetItemReturnRecords(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &model.OrderReturnsResponse{
		Requests:    requests,
		ItemRecords: records,
	}, nil
}

// TrackByNumber serves the public tracking page. Cached briefly since
// the page is polled; a missing request is (nil, nil) so callers cannot
// distinguish absent from unauthorized.
func (s *returnService) TrackByNumber(ctx context.Context, returnNumber string) (*model.ReturnRequest, error) {
	cacheKey := trackingCacheKeyPrefix + returnNumber

	var cached model.ReturnRequest
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	ret, err := s.returnRepo.GetByNumber(ctx, returnNumber)
	if err != nil {
		if errors.Is(err, model.ErrReturnRequestNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, ret, trackingCacheTTL); err != nil {
		logger.Error("failed to cache return tracking entry", err)
	}

	return ret, nil
}

func (s *returnService) RefundMethods(ctx context.Context) ([]model.RefundMethodInfo, error) {
	var cached []model.RefundMethodInfo
	if found, err := s.cache.Get(ctx, refundMethodsCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	if err := s.cache.Set(ctx, refundMethodsCacheKey, model.RefundMethods, refundMethodsCacheTTL); err != nil {
		logger.Error("failed to cache refund methods", err)
	}

	return model.RefundMethods, nil
}

// =====================================================
// CANCEL (USER)
// =====================================================

func (s *returnService) CancelReturn(ctx context.Context, id, userID uuid.UUID) (*model.ReturnRequest, error) {
	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ret.IsOwnedBy(userID) {
		return nil, model.NewReturnError(model.ErrCodeUnauthorized,
			"You do not have access to this return request", model.ErrUnauthorized)
	}
	if !ret.CanBeCancelled() {
		return nil, model.NewReturnError(model.ErrCodeInvalidTransition,
			fmt.Sprintf("A %s return request can no longer be cancelled", ret.Status),
			model.ErrInvalidTransition)
	}

	if err := s.returnRepo.Cancel(ctx, id, model.CancelledByUser); err != nil {
		return nil, err
	}

	s.invalidateTracking(ctx, ret.ReturnNumber)

	logger.Info("return request cancelled", map[string]interface{}{
		"return_number": ret.ReturnNumber,
		"cancelled_by":  model.CancelledByUser,
	})

	return s.returnRepo.GetByID(ctx, id)
}

// =====================================================
// ADMIN OPERATIONS
// =====================================================

func (s *returnService) UpdateStatus(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req model.UpdateStatusRequest) (*model.ReturnRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewReturnError(model.ErrCodeInvalidStatus, "Invalid status update request", err)
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.returnRepo.UpdateStatus(ctx, id, req.Status, &adminID, req.AdminNotes); err != nil {
		return nil, err
	}

	s.invalidateTracking(ctx, ret.ReturnNumber)

	logger.Info("return request status updated", map[string]interface{}{
		"return_number": ret.ReturnNumber,
		"from_status":   ret.Status,
		"to_status":     req.Status,
		"admin_id":      adminID.String(),
	})

	return s.returnRepo.GetByID(ctx, id)
}

func (s *returnService) ListAllReturns(ctx context.Context, status string, page, limit int) ([]*model.ReturnRequest, int, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, 0, model.NewReturnError(model.ErrCodeInvalidStatus,
			fmt.Sprintf("Unknown return status '%s'", status), model.ErrInvalidStatus)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.returnRepo.ListAll(ctx, status, page, limit)
}

func (s *returnService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]model.ReturnStatusHistory, error) {
	if _, err := s.returnRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.returnRepo.GetStatusHistory(ctx, id)
}

func (s *returnService) invalidateTracking(ctx context.Context, returnNumber string) {
	if err := s.cache.Delete(ctx, trackingCacheKeyPrefix+returnNumber); err != nil {
		logger.Error("failed to invalidate return tracking cache", err)
	}
}
