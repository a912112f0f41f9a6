package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
	"bbm-backend/pkg/database"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresReturnRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresReturnRepository(pool *pgxpool.Pool) ReturnRepository {
	return &postgresReturnRepository{
		pool: pool,
	}
}

const returnColumns = `
	id, return_number, order_id, user_id, items,
	reason, custom_reason, refund_method, refund_amount, refund_breakdown,
	status, estimated_processing_days, customer_notes, admin_notes, images,
	submitted_at, updated_at, approved_at, refunded_at,
	cancelled_at, cancelled_by, processed_by, processed_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReturnRequest(row rowScanner) (*model.ReturnRequest, error) {
	ret := &model.ReturnRequest{}
	var itemsJSON, breakdownJSON, imagesJSON []byte

	err := row.Scan(
		&ret.ID,
		&ret.ReturnNumber,
		&ret.OrderID,
		&ret.UserID,
		&itemsJSON,
		&ret.Reason,
		&ret.CustomReason,
		&ret.RefundMethod,
		&ret.RefundAmount,
		&breakdownJSON,
		&ret.Status,
		&ret.EstimatedProcessingDays,
		&ret.CustomerNotes,
		&ret.AdminNotes,
		&imagesJSON,
		&ret.SubmittedAt,
		&ret.UpdatedAt,
		&ret.ApprovedAt,
		&ret.RefundedAt,
		&ret.CancelledAt,
		&ret.CancelledBy,
		&ret.ProcessedBy,
		&ret.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &ret.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal return items: %w", err)
		}
	}
	if breakdownJSON != nil {
		if err := json.Unmarshal(breakdownJSON, &ret.RefundBreakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal refund breakdown: %w", err)
		}
	}
	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &ret.Images); err != nil {
			return nil, fmt.Errorf("failed to unmarshal images: %w", err)
		}
	}

	return ret, nil
}

// =====================================================
// SUBMIT (ATOMIC DUAL WRITE)
// =====================================================

// SubmitReturn creates the return request and mutates the order's return
// bookkeeping in one transaction. The quantity invariant is re-checked
// under FOR UPDATE locks: two racing submissions can never jointly push
// quantity_returned past the ordered quantity.
func (r *postgresReturnRepository) SubmitReturn(ctx context.Context, ret *model.ReturnRequest, orderVersion int) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// Step 1: Lock affected order items and re-validate quantities.
		for _, item := range ret.Items {
			var quantity, quantityReturned int
			err := tx.QueryRow(ctx, `
				SELECT quantity, quantity_returned
				FROM order_items
				WHERE id = $1 AND order_id = $2
				FOR UPDATE
			`, item.ItemID, ret.OrderID).Scan(&quantity, &quantityReturned)

			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%w: order item %s does not belong to order", model.ErrValidation, item.ItemID)
				}
				return fmt.Errorf("failed to lock order item: %w", err)
			}

			if item.Quantity > quantity-quantityReturned {
				return fmt.Errorf("%w: item %q has %d unit(s) left to return",
					model.ErrQuantityExceeded, item.ProductName, quantity-quantityReturned)
			}
		}

		// Step 2: Insert the return request document.
		itemsJSON, err := json.Marshal(ret.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal return items: %w", err)
		}
		breakdownJSON, err := json.Marshal(ret.RefundBreakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal refund breakdown: %w", err)
		}
		imagesJSON, err := json.Marshal(ret.Images)
		if err != nil {
			return fmt.Errorf("failed to marshal images: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO return_requests (
				id, return_number, order_id, user_id, items,
				reason, custom_reason, refund_method, refund_amount, refund_breakdown,
				status, estimated_processing_days, customer_notes, images
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9, $10,
				$11, $12, $13, $14
			)
			RETURNING submitted_at, updated_at
		`,
			ret.ID,
			ret.ReturnNumber,
			ret.OrderID,
			ret.UserID,
			itemsJSON,
			ret.Reason,
			ret.CustomReason,
			ret.RefundMethod,
			ret.RefundAmount,
			breakdownJSON,
			ret.Status,
			ret.EstimatedProcessingDays,
			ret.CustomerNotes,
			imagesJSON,
		).Scan(&ret.SubmittedAt, &ret.UpdatedAt)

		if err != nil {
			return fmt.Errorf("failed to create return request: %w", err)
		}

		// Step 3: Apply the item-level bookkeeping.
		for _, item := range ret.Items {
			_, err := tx.Exec(ctx, `
				UPDATE order_items
				SET quantity_returned = quantity_returned + $1
				WHERE id = $2
			`, item.Quantity, item.ItemID)
			if err != nil {
				return fmt.Errorf("failed to update item returned quantity: %w", err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO order_item_returns (
					id, order_item_id, return_number, quantity, status, submitted_at
				) VALUES ($1, $2, $3, $4, $5, $6)
			`, uuid.New(), item.ItemID, ret.ReturnNumber, item.Quantity, ret.Status, ret.SubmittedAt)
			if err != nil {
				return fmt.Errorf("failed to create item return record: %w", err)
			}
		}

		// Step 4: Flag the order. Only the bookkeeping fields are touched,
		// never the rest of the order document. The version predicate
		// rejects submissions built from a stale read of the order.
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET has_return_requests = TRUE,
				version = version + 1,
				updated_at = NOW()
			WHERE id = $1 AND version = $2
		`, ret.OrderID, orderVersion)
		if err != nil {
			return fmt.Errorf("failed to flag order return requests: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: order changed while the return was being submitted",
				ordermodel.ErrVersionMismatch)
		}

		// Step 5: Record the initial history entry.
		_, err = tx.Exec(ctx, `
			INSERT INTO return_status_history (
				id, return_request_id, from_status, to_status, changed_by
			) VALUES ($1, $2, NULL, $3, $4)
		`, uuid.New(), ret.ID, ret.Status, ret.UserID)
		if err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
}

// =====================================================
// GET RETURN REQUEST
// =====================================================

func (r *postgresReturnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE id = $1`

	ret, err := scanReturnRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReturnRequestNotFound
		}
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	return ret, nil
}

func (r *postgresReturnRepository) GetByNumber(ctx context.Context, returnNumber string) (*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE return_number = $1`

	ret, err := scanReturnRequest(r.pool.QueryRow(ctx, query, returnNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReturnRequestNotFound
		}
		return nil, fmt.Errorf("failed to get return request by number: %w", err)
	}

	return ret, nil
}

// =====================================================
// LIST RETURN REQUESTS
// =====================================================

func (r *postgresReturnRepository) listBy(ctx context.Context, query string, args ...any) ([]*model.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list return requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.ReturnRequest
	for rows.Next() {
		ret, err := scanReturnRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		requests = append(requests, ret)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating return requests: %w", rows.Err())
	}

	return requests, nil
}

func (r *postgresReturnRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + `
		FROM return_requests
		WHERE user_id = $1
		ORDER BY submitted_at DESC`

	return r.listBy(ctx, query, userID)
}

func (r *postgresReturnRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + `
		FROM return_requests
		WHERE order_id = $1
		ORDER BY submitted_at DESC`

	return r.listBy(ctx, query, orderID)
}

func (r *postgresReturnRepository) ListAll(ctx context.Context, status string, page, limit int) ([]*model.ReturnRequest, int, error) {
	countQuery := `SELECT COUNT(*) FROM return_requests WHERE 1=1`
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE 1=1`

	args := []any{}
	countArgs := []any{}

	if status != "" {
		query += ` AND status = $1`
		countQuery += ` AND status = $1`
		args = append(args, status)
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count return requests: %w", err)
	}

	offset := (page - 1) * limit
	query += fmt.Sprintf(` ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	requests, err := r.listBy(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// =====================================================
// CANCEL (USER)
// =====================================================

// Cancel moves a pending request to cancelled and reverses the item
// bookkeeping so the units become returnable again. Status is re-checked
// under the row lock; a request that raced out of pending is rejected.
func (r *postgresReturnRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledBy string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		ret, err := r.lockReturnRequest(ctx, tx, id)
		if err != nil {
			return err
		}

		if ret.Status != model.StatusPending {
			return fmt.Errorf("%w: return request is %s, only pending requests can be cancelled",
				model.ErrInvalidTransition, ret.Status)
		}

		_, err = tx.Exec(ctx, `
			UPDATE return_requests
			SET status = $2,
				cancelled_at = NOW(),
				cancelled_by = $3,
				updated_at = NOW()
			WHERE id = $1
		`, id, model.StatusCancelled, cancelledBy)
		if err != nil {
			return fmt.Errorf("failed to cancel return request: %w", err)
		}

		if err := r.reverseBookkeeping(ctx, tx, ret); err != nil {
			return err
		}

		if err := r.syncItemRecords(ctx, tx, ret.ReturnNumber, model.StatusCancelled); err != nil {
			return err
		}

		return r.appendHistory(ctx, tx, id, ret.Status, model.StatusCancelled, nil, nil)
	})
}

// =====================================================
// ADMIN STATUS TRANSITIONS
// =====================================================

func (r *postgresReturnRepository) UpdateStatus(ctx context.Context, id uuid.UUID, toStatus string, adminID *uuid.UUID, notes *string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		ret, err := r.lockReturnRequest(ctx, tx, id)
		if err != nil {
			return err
		}

		if !model.CanTransition(ret.Status, toStatus) {
			return fmt.Errorf("%w: cannot move from %s to %s",
				model.ErrInvalidTransition, ret.Status, toStatus)
		}

		cancelledBy := model.CancelledByAdmin

		_, err = tx.Exec(ctx, `
			UPDATE return_requests
			SET status = $2,
				admin_notes = COALESCE($3, admin_notes),
				processed_by = $4,
				processed_at = NOW(),
				approved_at = CASE WHEN $2 = 'approved' THEN NOW() ELSE approved_at END,
				refunded_at = CASE WHEN $2 = 'refunded' THEN NOW() ELSE refunded_at END,
				cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
				cancelled_by = CASE WHEN $2 = 'cancelled' THEN $5 ELSE cancelled_by END,
				updated_at = NOW()
			WHERE id = $1
		`, id, toStatus, notes, adminID, cancelledBy)
		if err != nil {
			return fmt.Errorf("failed to update return status: %w", err)
		}

		if model.ReversesBookkeeping(toStatus) {
			if err := r.reverseBookkeeping(ctx, tx, ret); err != nil {
				return err
			}
		}

		if err := r.syncItemRecords(ctx, tx, ret.ReturnNumber, toStatus); err != nil {
			return err
		}

		return r.appendHistory(ctx, tx, id, ret.Status, toStatus, adminID, notes)
	})
}

// =====================================================
// STATUS HISTORY
// =====================================================

func (r *postgresReturnRepository) GetStatusHistory(ctx context.Context, returnRequestID uuid.UUID) ([]model.ReturnStatusHistory, error) {
	query := `
		SELECT id, return_request_id, from_status, to_status, changed_by, notes, changed_at
		FROM return_status_history
		WHERE return_request_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, returnRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	var histories []model.ReturnStatusHistory
	for rows.Next() {
		var h model.ReturnStatusHistory
		err := rows.Scan(
			&h.ID,
			&h.ReturnRequestID,
			&h.FromStatus,
			&h.ToStatus,
			&h.ChangedBy,
			&h.Notes,
			&h.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		histories = append(histories, h)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating status history: %w", rows.Err())
	}

	return histories, nil
}

// =====================================================
// TRANSACTION HELPERS
// =====================================================

func (r *postgresReturnRepository) lockReturnRequest(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.ReturnRequest, error) {
	query := `SELECT ` + returnColumns + ` FROM return_requests WHERE id = $1 FOR UPDATE`

	ret, err := scanReturnRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReturnRequestNotFound
		}
		return nil, fmt.Errorf("failed to lock return request: %w", err)
	}

	return ret, nil
}

// reverseBookkeeping gives the reserved quantities back to the order
// items. GREATEST guards legacy rows that predate the bookkeeping.
func (r *postgresReturnRepository) reverseBookkeeping(ctx context.Context, tx pgx.Tx, ret *model.ReturnRequest) error {
	for _, item := range ret.Items {
		_, err := tx.Exec(ctx, `
			UPDATE order_items
			SET quantity_returned = GREATEST(quantity_returned - $1, 0)
			WHERE id = $2
		`, item.Quantity, item.ItemID)
		if err != nil {
			return fmt.Errorf("failed to reverse item returned quantity: %w", err)
		}
	}

	return nil
}

func (r *postgresReturnRepository) syncItemRecords(ctx context.Context, tx pgx.Tx, returnNumber, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE order_item_returns
		SET status = $2
		WHERE return_number = $1
	`, returnNumber, status)
	if err != nil {
		return fmt.Errorf("failed to sync item return records: %w", err)
	}
	return nil
}

func (r *postgresReturnRepository) appendHistory(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string, changedBy *uuid.UUID, notes *string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO return_status_history (
			id, return_request_id, from_status, to_status, changed_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), id, from, to, changedBy, notes)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}
