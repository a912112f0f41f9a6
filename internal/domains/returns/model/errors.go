package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeReturnNotFound      = "RET001"
	ErrCodeNotEligible         = "RET002"
	ErrCodeValidation          = "RET003"
	ErrCodeUnauthorized        = "RET004"
	ErrCodeInvalidTransition   = "RET005"
	ErrCodeQuantityExceeded    = "RET006"
	ErrCodeInvalidStatus       = "RET007"
	ErrCodeInvalidRefundMethod = "RET008"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrReturnRequestNotFound = errors.New("return request not found")
	ErrNotEligible           = errors.New("order is not eligible for return")
	ErrValidation            = errors.New("invalid return submission")
	ErrUnauthorized          = errors.New("unauthorized access")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrQuantityExceeded      = errors.New("requested quantity exceeds returnable quantity")
	ErrInvalidStatus         = errors.New("invalid return status")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
// ReturnError carries a stable code plus a message suitable for direct
// display to the customer. Every rejection surfaces a human-readable
// reason, never a bare internal code.
type ReturnError struct {
	Code    string
	Message string
	Err     error
}

func (e *ReturnError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ReturnError) Unwrap() error {
	return e.Err
}

// NewReturnError creates a new ReturnError
func NewReturnError(code, message string, err error) *ReturnError {
	return &ReturnError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
