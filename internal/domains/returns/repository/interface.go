package repository

import (
	"context"

	"github.com/google/uuid"

	"bbm-backend/internal/domains/returns/model"
)

// ReturnRepository owns the return_requests storage plus the narrowly
// scoped return-bookkeeping writes on order rows. SubmitReturn, Cancel
// and UpdateStatus are transactional: the request document and the order
// mutation commit together or not at all.
type ReturnRepository interface {
	// SubmitReturn creates the request and applies the order bookkeeping
	// atomically. The returnable-quantity invariant is re-validated under
	// row locks inside the same transaction; a stale eligibility check is
	// never trusted as authorization for the write. orderVersion is the
	// version the caller read; a concurrent order modification fails the
	// submit with ErrVersionMismatch.
	SubmitReturn(ctx context.Context, ret *model.ReturnRequest, orderVersion int) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error)
	GetByNumber(ctx context.Context, returnNumber string) (*model.ReturnRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ReturnRequest, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.ReturnRequest, error)
	ListAll(ctx context.Context, status string, page, limit int) ([]*model.ReturnRequest, int, error)

	// Cancel moves a pending request to cancelled and gives the reserved
	// quantities back to the order items.
	Cancel(ctx context.Context, id uuid.UUID, cancelledBy string) error

	// UpdateStatus applies an administrative transition. The transition
	// graph is enforced against the current status under a row lock.
	UpdateStatus(ctx context.Context, id uuid.UUID, toStatus string, adminID *uuid.UUID, notes *string) error

	GetStatusHistory(ctx context.Context, returnRequestID uuid.UUID) ([]model.ReturnStatusHistory, error)
}
