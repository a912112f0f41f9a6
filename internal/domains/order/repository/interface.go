package repository

import (
	"context"

	"github.com/google/uuid"

	"bbm-backend/internal/domains/order/model"
)

// OrderRepository is the read surface the returns core consumes from
// order management. All mutation of order records happens inside the
// return repository's atomic submit/cancel transactions, scoped to the
// return bookkeeping fields only.
type OrderRepository interface {
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	GetItemReturnRecords(ctx context.Context, orderID uuid.UUID) ([]model.ItemReturnRecord, error)
}
