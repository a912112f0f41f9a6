package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// RETURN STATUS CONSTANTS
// =====================================================
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusRefunded   = "refunded"
	StatusCancelled  = "cancelled"
	StatusRejected   = "rejected"
)

// =====================================================
// RETURN REASON CONSTANTS
// =====================================================
const (
	ReasonDefective      = "defective"
	ReasonDamaged        = "damaged"
	ReasonWrongItem      = "wrong_item"
	ReasonNotAsDescribed = "not_as_described"
	ReasonSizeIssue      = "size_issue"
	ReasonChangedMind    = "changed_mind"
	ReasonOther          = "other"
)

var ValidReasons = []string{
	ReasonDefective,
	ReasonDamaged,
	ReasonWrongItem,
	ReasonNotAsDescribed,
	ReasonSizeIssue,
	ReasonChangedMind,
	ReasonOther,
}

// =====================================================
// REFUND METHOD CONSTANTS
// =====================================================
const (
	RefundMethodOriginalPayment = "original_payment"
	RefundMethodBBMBucks        = "bbm_bucks"
	RefundMethodBankTransfer    = "bank_transfer"
)

// RefundMethodInfo is a catalog entry. Descriptions are data, not logic.
type RefundMethodInfo struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ProcessingDays int    `json:"processing_days"`
}

// RefundMethods is the static refund-method catalog.
var RefundMethods = []RefundMethodInfo{
	{
		Code:           RefundMethodOriginalPayment,
		Name:           "Original Payment Method",
		Description:    "Refund to the card or wallet used at checkout",
		ProcessingDays: 5,
	},
	{
		Code:           RefundMethodBBMBucks,
		Name:           "BBM Bucks",
		Description:    "Instant store credit with a 1% bonus",
		ProcessingDays: 1,
	},
	{
		Code:           RefundMethodBankTransfer,
		Name:           "Bank Transfer",
		Description:    "Direct transfer to your bank account",
		ProcessingDays: 7,
	},
}

// ValidRefundMethod reports whether code is in the catalog.
func ValidRefundMethod(code string) bool {
	for _, m := range RefundMethods {
		if m.Code == code {
			return true
		}
	}
	return false
}

// =====================================================
// BUSINESS CONSTANTS
// =====================================================
const (
	// EstimatedProcessingDays communicated to the customer at submission.
	EstimatedProcessingDays = 5

	// CancelledByUser marks user-initiated cancellations.
	CancelledByUser = "user"
	// CancelledByAdmin marks administrative cancellations.
	CancelledByAdmin = "admin"
)

// BBMBucksBonusRate is the flat incentive applied when the customer picks
// BBM Bucks as the refund method. Retention incentive, not an accounting
// correction.
var BBMBucksBonusRate = decimal.NewFromFloat(0.01)

// =====================================================
// ENTITY: ReturnRequest
// =====================================================
type ReturnRequest struct {
	ID           uuid.UUID `json:"id"`
	ReturnNumber string    `json:"return_number"`
	OrderID      uuid.UUID `json:"order_id"`
	UserID       uuid.UUID `json:"user_id"`

	// Items is a snapshot taken at submission. Later edits to the order
	// never retroactively change a submitted claim.
	Items []ReturnItem `json:"items"`

	Reason       string  `json:"reason"`
	CustomReason *string `json:"custom_reason,omitempty"`

	RefundMethod    string          `json:"refund_method"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundBreakdown RefundBreakdown `json:"refund_breakdown"`

	Status                  string `json:"status"`
	EstimatedProcessingDays int    `json:"estimated_processing_days"`

	CustomerNotes *string  `json:"customer_notes,omitempty"`
	AdminNotes    *string  `json:"admin_notes,omitempty"`
	Images        []string `json:"images,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy *string    `json:"cancelled_by,omitempty"`
	ProcessedBy *uuid.UUID `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// IsOwnedBy checks request ownership for user-facing mutations.
func (r *ReturnRequest) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

// CanBeCancelled checks if the request is still user-cancellable.
// Business rule: only pending requests can be cancelled.
func (r *ReturnRequest) CanBeCancelled() bool {
	return r.Status == StatusPending
}

// TotalQuantity sums the snapshot quantities.
func (r *ReturnRequest) TotalQuantity() int {
	total := 0
	for _, item := range r.Items {
		total += item.Quantity
	}
	return total
}

// =====================================================
// ENTITY: ReturnItem (snapshot)
// =====================================================
type ReturnItem struct {
	ItemID      uuid.UUID       `json:"item_id"`
	ProductName string          `json:"product_name"`
	Size        *string         `json:"size,omitempty"`
	Color       *string         `json:"color,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"max_quantity"`
	Reason      string          `json:"reason,omitempty"`
}

// =====================================================
// REFUND BREAKDOWN
// =====================================================
type RefundBreakdown struct {
	ItemsSubtotal    decimal.Decimal `json:"items_subtotal"`
	CouponDiscount   decimal.Decimal `json:"coupon_discount"`
	BBMBucksDiscount decimal.Decimal `json:"bbm_bucks_discount"`
}

// RefundComputation is the calculator output: total plus its breakdown.
type RefundComputation struct {
	TotalRefund decimal.Decimal `json:"total_refund"`
	Breakdown   RefundBreakdown `json:"breakdown"`
}

// BBMBucksIncentive is the flat-bonus payout for the BBM Bucks refund
// method. Kept separate from the tax/discount breakdown.
type BBMBucksIncentive struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	BonusAmount decimal.Decimal `json:"bonus_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// =====================================================
// ENTITY: ReturnStatusHistory
// =====================================================
type ReturnStatusHistory struct {
	ID              uuid.UUID  `json:"id"`
	ReturnRequestID uuid.UUID  `json:"return_request_id"`
	FromStatus      *string    `json:"from_status,omitempty"`
	ToStatus        string     `json:"to_status"`
	ChangedBy       *uuid.UUID `json:"changed_by,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	ChangedAt       time.Time  `json:"changed_at"`
}

// =====================================================
// RETURN NUMBER GENERATION
// =====================================================

// GenerateReturnNumber produces RET-<millis>-<3-digit random>. Unique
// within practical probability; collisions are not handled.
func GenerateReturnNumber(now time.Time) string {
	return fmt.Sprintf("RET-%d-%03d", now.UnixMilli(), rand.Intn(1000))
}
