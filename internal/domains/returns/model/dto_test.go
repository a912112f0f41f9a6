package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmitRequest() SubmitReturnRequest {
	return SubmitReturnRequest{
		OrderID: uuid.New(),
		Items: []ReturnLine{
			{ItemID: uuid.New(), Quantity: 1},
		},
		Reason:       ReasonDefective,
		RefundMethod: RefundMethodOriginalPayment,
	}
}

func TestSubmitReturnRequestValidate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		assert.NoError(t, validSubmitRequest().Validate())
	})

	t.Run("missing order id", func(t *testing.T) {
		req := validSubmitRequest()
		req.OrderID = uuid.Nil
		assert.Error(t, req.Validate())
	})

	t.Run("empty items", func(t *testing.T) {
		req := validSubmitRequest()
		req.Items = nil
		assert.Error(t, req.Validate())
	})

	t.Run("zero quantity line", func(t *testing.T) {
		req := validSubmitRequest()
		req.Items = []ReturnLine{{ItemID: uuid.New(), Quantity: 0}}
		assert.Error(t, req.Validate())
	})

	t.Run("unknown reason", func(t *testing.T) {
		req := validSubmitRequest()
		req.Reason = "just_because"
		assert.Error(t, req.Validate())
	})

	t.Run("reason other requires custom reason", func(t *testing.T) {
		req := validSubmitRequest()
		req.Reason = ReasonOther
		require.Error(t, req.Validate())

		explanation := "arrived two months late"
		req.CustomReason = &explanation
		assert.NoError(t, req.Validate())
	})

	t.Run("unknown refund method", func(t *testing.T) {
		req := validSubmitRequest()
		req.RefundMethod = "cash_by_mail"
		assert.Error(t, req.Validate())
	})
}

func TestPreviewRefundRequestValidate(t *testing.T) {
	req := PreviewRefundRequest{
		OrderID: uuid.New(),
		Items:   []ReturnLine{{ItemID: uuid.New(), Quantity: 2}},
	}
	assert.NoError(t, req.Validate())

	req.Items = nil
	assert.Error(t, req.Validate())
}

func TestUpdateStatusRequestValidate(t *testing.T) {
	assert.NoError(t, UpdateStatusRequest{Status: StatusApproved}.Validate())
	assert.Error(t, UpdateStatusRequest{}.Validate())
	assert.Error(t, UpdateStatusRequest{Status: "archived"}.Validate())
}

func TestReturnRequestHelpers(t *testing.T) {
	owner := uuid.New()
	ret := &ReturnRequest{
		UserID: owner,
		Status: StatusPending,
		Items: []ReturnItem{
			{Quantity: 2},
			{Quantity: 1},
		},
	}

	assert.True(t, ret.IsOwnedBy(owner))
	assert.False(t, ret.IsOwnedBy(uuid.New()))
	assert.True(t, ret.CanBeCancelled())
	assert.Equal(t, 3, ret.TotalQuantity())

	ret.Status = StatusApproved
	assert.False(t, ret.CanBeCancelled())
}

func TestValidRefundMethod(t *testing.T) {
	assert.True(t, ValidRefundMethod(RefundMethodOriginalPayment))
	assert.True(t, ValidRefundMethod(RefundMethodBBMBucks))
	assert.True(t, ValidRefundMethod(RefundMethodBankTransfer))
	assert.False(t, ValidRefundMethod("store_voucher"))
}
