package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound   = "ORD001"
	ErrCodeVersionMismatch = "ORD002"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrVersionMismatch = errors.New("version mismatch - concurrent modification detected")
)
