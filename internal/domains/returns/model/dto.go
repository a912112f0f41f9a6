package model

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "bbm-backend/internal/domains/order/model"
)

// =====================================================
// SUBMIT RETURN REQUEST/RESPONSE
// =====================================================

// ReturnLine is one (item, quantity) selection in a submission.
type ReturnLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
	Reason   string    `json:"reason,omitempty"`
}

func (l ReturnLine) Validate() error {
	if l.ItemID == uuid.Nil {
		return fmt.Errorf("item_id is required")
	}
	if l.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	return nil
}

type SubmitReturnRequest struct {
	OrderID       uuid.UUID    `json:"order_id"`
	Items         []ReturnLine `json:"items"`
	Reason        string       `json:"reason"`
	CustomReason  *string      `json:"custom_reason,omitempty"`
	RefundMethod  string       `json:"refund_method"`
	CustomerNotes *string      `json:"customer_notes,omitempty"`
	Images        []string     `json:"images,omitempty"`
}

func (r SubmitReturnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.By(requiredUUID)),
		validation.Field(&r.Items,
			validation.Required.Error("select at least one item to return"),
			validation.By(validReturnLines),
		),
		validation.Field(&r.Reason,
			validation.Required.Error("a return reason is required"),
			validation.In(reasonValues()...).Error("unknown return reason"),
		),
		validation.Field(&r.CustomReason,
			validation.Required.When(r.Reason == ReasonOther).
				Error("please describe your reason for the return"),
		),
		validation.Field(&r.RefundMethod,
			validation.Required.Error("a refund method is required"),
			validation.By(validRefundMethod),
		),
	)
}

func requiredUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return fmt.Errorf("is required")
	}
	return nil
}

func validReturnLines(value interface{}) error {
	lines, _ := value.([]ReturnLine)
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("item %d: %v", i+1, err)
		}
	}
	return nil
}

func validRefundMethod(value interface{}) error {
	code, _ := value.(string)
	if code != "" && !ValidRefundMethod(code) {
		return fmt.Errorf("unknown refund method '%s'", code)
	}
	return nil
}

func reasonValues() []interface{} {
	values := make([]interface{}, len(ValidReasons))
	for i, r := range ValidReasons {
		values[i] = r
	}
	return values
}

type SubmitReturnResponse struct {
	ReturnRequestID         uuid.UUID       `json:"return_request_id"`
	ReturnNumber            string          `json:"return_number"`
	Status                  string          `json:"status"`
	RefundAmount            decimal.Decimal `json:"refund_amount"`
	RefundBreakdown         RefundBreakdown `json:"refund_breakdown"`
	EstimatedProcessingDays int             `json:"estimated_processing_days"`
	SubmittedAt             time.Time       `json:"submitted_at"`
}

// =====================================================
// REFUND PREVIEW REQUEST/RESPONSE
// =====================================================

type PreviewRefundRequest struct {
	OrderID      uuid.UUID    `json:"order_id"`
	Items        []ReturnLine `json:"items"`
	RefundMethod string       `json:"refund_method,omitempty"`
}

func (r PreviewRefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.By(requiredUUID)),
		validation.Field(&r.Items,
			validation.Required.Error("select at least one item to return"),
			validation.By(validReturnLines),
		),
		validation.Field(&r.RefundMethod, validation.By(validRefundMethod)),
	)
}

type PreviewRefundResponse struct {
	TotalRefund decimal.Decimal    `json:"total_refund"`
	Breakdown   RefundBreakdown    `json:"breakdown"`
	Incentive   *BBMBucksIncentive `json:"bbm_bucks_incentive,omitempty"`
}

// =====================================================
// ORDER RETURNS RESPONSE
// =====================================================

// OrderReturnsResponse pairs an order's return requests with the
// per-item audit trail, so a client can see which units of each item
// are tied up in which request.
type OrderReturnsResponse struct {
	Requests    []*ReturnRequest              `json:"requests"`
	ItemRecords []ordermodel.ItemReturnRecord `json:"item_records"`
}

// =====================================================
// ADMIN: UPDATE STATUS REQUEST
// =====================================================

type UpdateStatusRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required.Error("a target status is required"),
			validation.By(func(value interface{}) error {
				s, _ := value.(string)
				if s != "" && !ValidStatus(s) {
					return fmt.Errorf("unknown status '%s'", s)
				}
				return nil
			}),
		),
	)
}
