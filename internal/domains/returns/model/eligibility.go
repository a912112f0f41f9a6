package model

import (
	"github.com/google/uuid"
)

// =====================================================
// ELIGIBILITY RESULT TYPES
// =====================================================

// EligibilityResult is the order-level verdict. Pure read: callers may
// cache or display it but nothing is persisted.
type EligibilityResult struct {
	Eligible        bool              `json:"eligible"`
	Reason          *string           `json:"reason,omitempty"`
	EligibleItems   []EligibleItem    `json:"eligible_items"`
	IneligibleItems []IneligibleItem  `json:"ineligible_items"`
	// BlockingRequests surfaces the active requests that prevent a new
	// submission so the UI can link to them.
	BlockingRequests []BlockingRequest `json:"blocking_requests,omitempty"`
}

// EligibleItem carries the bounds the quantity selector needs.
type EligibleItem struct {
	ItemID                uuid.UUID `json:"item_id"`
	ProductName           string    `json:"product_name"`
	MaxReturnableQuantity int       `json:"max_returnable_quantity"`
	RemainingDays         int       `json:"remaining_days"`
}

// IneligibleItem always carries a display-ready reason.
type IneligibleItem struct {
	ItemID      uuid.UUID `json:"item_id"`
	ProductName string    `json:"product_name"`
	Reason      string    `json:"reason"`
}

// BlockingRequest identifies an active return that blocks a new one.
type BlockingRequest struct {
	ReturnNumber string `json:"return_number"`
	Status       string `json:"status"`
}

// ItemEligibility is the per-item verdict of the pure evaluator.
type ItemEligibility struct {
	Eligible              bool
	Reason                string
	MaxReturnableQuantity int
	RemainingDays         int
}
