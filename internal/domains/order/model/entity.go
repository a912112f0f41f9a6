package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// =====================================================
// BUSINESS CONSTANTS
// =====================================================
const (
	// DefaultReturnWindowDays applies when an item carries no override.
	DefaultReturnWindowDays = 7
)

// DefaultTaxRate applies when neither the item nor the order carries a rate.
var DefaultTaxRate = decimal.NewFromFloat(0.18)

// =====================================================
// ENTITY: Order
// =====================================================
// Order is owned by the order-management subsystem. The returns core reads
// the full record and writes only the item-level return bookkeeping fields
// plus HasReturnRequests.
type Order struct {
	ID                uuid.UUID        `json:"id"`
	OrderNumber       string           `json:"order_number"`
	UserID            uuid.UUID        `json:"user_id"`
	Status            string           `json:"status"`
	DeliveredAt       *time.Time       `json:"delivered_at,omitempty"`
	CouponCode        *string          `json:"coupon_code,omitempty"`
	CouponDiscount    decimal.Decimal  `json:"coupon_discount"`
	BBMBucksDiscount  decimal.Decimal  `json:"bbm_bucks_discount"`
	TaxRate           *decimal.Decimal `json:"tax_rate,omitempty"`
	Total             decimal.Decimal  `json:"total"`
	HasReturnRequests bool             `json:"has_return_requests"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// IsDelivered checks if the order has reached delivered status
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// EffectiveTaxRate resolves the order-level tax rate with the platform
// default as fallback.
func (o *Order) EffectiveTaxRate() decimal.Decimal {
	if o.TaxRate != nil {
		return *o.TaxRate
	}
	return DefaultTaxRate
}

// =====================================================
// ENTITY: OrderItem
// =====================================================
type OrderItem struct {
	ID               uuid.UUID        `json:"id"`
	OrderID          uuid.UUID        `json:"order_id"`
	ProductName      string           `json:"product_name"`
	Size             *string          `json:"size,omitempty"`
	Color            *string          `json:"color,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	Quantity         int              `json:"quantity"`
	TaxRate          *decimal.Decimal `json:"tax_rate,omitempty"`
	IsReturnable     bool             `json:"is_returnable"`
	ReturnWindowDays int              `json:"return_window_days"`
	QuantityReturned int              `json:"quantity_returned"`
	CreatedAt        time.Time        `json:"created_at"`
}

// EffectiveTaxRate resolves item override, then order rate, then default.
func (oi *OrderItem) EffectiveTaxRate(order *Order) decimal.Decimal {
	if oi.TaxRate != nil {
		return *oi.TaxRate
	}
	return order.EffectiveTaxRate()
}

// RemainingReturnable is the quantity still eligible for a new return line.
func (oi *OrderItem) RemainingReturnable() int {
	return oi.Quantity - oi.QuantityReturned
}

// GrossAmount is the tax-inclusive value of qty units of this item.
func (oi *OrderItem) GrossAmount(order *Order, qty int) decimal.Decimal {
	rate := oi.EffectiveTaxRate(order)
	return oi.Price.
		Mul(decimal.NewFromInt(int64(qty))).
		Mul(decimal.NewFromInt(1).Add(rate))
}

// =====================================================
// ENTITY: ItemReturnRecord
// =====================================================
// ItemReturnRecord is the per-item audit trail of return submissions,
// mirrored on every lifecycle transition of the owning return request.
type ItemReturnRecord struct {
	ID           uuid.UUID `json:"id"`
	OrderItemID  uuid.UUID `json:"order_item_id"`
	ReturnNumber string    `json:"return_number"`
	Quantity     int       `json:"quantity"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
