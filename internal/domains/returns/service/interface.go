package service

import (
	"context"

	"github.com/google/uuid"

	"bbm-backend/internal/domains/returns/model"
)

// ReturnService defines the business logic around order returns.
type ReturnService interface {
	// CheckEligibility evaluates whether an order can be returned and
	// which items qualify. Read only, safe to call repeatedly.
	CheckEligibility(ctx context.Context, orderID, userID uuid.UUID) (*model.EligibilityResult, error)

	// PreviewRefund computes the refund for a tentative item selection
	// without creating anything.
	PreviewRefund(ctx context.Context, userID uuid.UUID, req model.PreviewRefundRequest) (*model.PreviewRefundResponse, error)

	// SubmitReturn validates the selection, computes the refund and
	// creates the return request atomically with the order bookkeeping.
	SubmitReturn(ctx context.Context, userID uuid.UUID, req model.SubmitReturnRequest) (*model.SubmitReturnResponse, error)

	GetReturnRequest(ctx context.Context, id, userID uuid.UUID) (*model.ReturnRequest, error)
	ListUserReturns(ctx context.Context, userID uuid.UUID) ([]*model.ReturnRequest, error)

	// ListOrderReturns lists an order's return requests together with
	// the per-item audit trail.
	ListOrderReturns(ctx context.Context, orderID, userID uuid.UUID) (*model.OrderReturnsResponse, error)

	// TrackByNumber is the public tracking lookup. A missing request
	// yields (nil, nil), not an error.
	TrackByNumber(ctx context.Context, returnNumber string) (*model.ReturnRequest, error)

	// RefundMethods returns the refund-method catalog.
	RefundMethods(ctx context.Context) ([]model.RefundMethodInfo, error)

	// CancelReturn cancels a pending request on behalf of its owner.
	CancelReturn(ctx context.Context, id, userID uuid.UUID) (*model.ReturnRequest, error)

	// UpdateStatus applies an administrative lifecycle transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, adminID uuid.UUID, req model.UpdateStatusRequest) (*model.ReturnRequest, error)

	ListAllReturns(ctx context.Context, status string, page, limit int) ([]*model.ReturnRequest, int, error)
	GetStatusHistory(ctx context.Context, id uuid.UUID) ([]model.ReturnStatusHistory, error)
}
