package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bbm-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

// =====================================================
// GET ORDER
// =====================================================

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT
			id, order_number, user_id, status, delivered_at,
			coupon_code, coupon_discount, bbm_bucks_discount,
			tax_rate, total, has_return_requests,
			created_at, updated_at, version
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.DeliveredAt,
		&order.CouponCode,
		&order.CouponDiscount,
		&order.BBMBucksDiscount,
		&order.TaxRate,
		&order.Total,
		&order.HasReturnRequests,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by id: %w", err)
	}

	return &order, nil
}

// =====================================================
// ORDER ITEMS
// =====================================================

func (r *postgresOrderRepository) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT
			id, order_id, product_name, size, color,
			price, quantity, tax_rate, is_returnable,
			return_window_days, quantity_returned, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductName,
			&item.Size,
			&item.Color,
			&item.Price,
			&item.Quantity,
			&item.TaxRate,
			&item.IsReturnable,
			&item.ReturnWindowDays,
			&item.QuantityReturned,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order items: %w", rows.Err())
	}

	return items, nil
}

// =====================================================
// ITEM RETURN AUDIT TRAIL
// =====================================================

func (r *postgresOrderRepository) GetItemReturnRecords(ctx context.Context, orderID uuid.UUID) ([]model.ItemReturnRecord, error) {
	query := `
		SELECT
			oir.id, oir.order_item_id, oir.return_number,
			oir.quantity, oir.status, oir.submitted_at
		FROM order_item_returns oir
		INNER JOIN order_items oi ON oir.order_item_id = oi.id
		WHERE oi.order_id = $1
		ORDER BY oir.submitted_at DESC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item return records: %w", err)
	}
	defer rows.Close()

	var records []model.ItemReturnRecord
	for rows.Next() {
		var record model.ItemReturnRecord
		err := rows.Scan(
			&record.ID,
			&record.OrderItemID,
			&record.ReturnNumber,
			&record.Quantity,
			&record.Status,
			&record.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item return record: %w", err)
		}
		records = append(records, record)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating item return records: %w", rows.Err())
	}

	return records, nil
}
