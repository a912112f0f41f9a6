package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeRefund_TaxInclusive(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{ID: uuid.New()}
	item := ordermodel.OrderItem{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Price:    dec("100"),
		Quantity: 1,
	}

	result := calc.ComputeRefund(order, []ordermodel.OrderItem{item}, []model.ReturnLine{
		{ItemID: item.ID, Quantity: 1},
	})

	// Default 18% tax rate applies when neither item nor order set one.
	assert.True(t, dec("118").Equal(result.TotalRefund), "got %s", result.TotalRefund)
	assert.True(t, dec("118").Equal(result.Breakdown.ItemsSubtotal))
	assert.True(t, result.Breakdown.CouponDiscount.IsZero())
	assert.True(t, result.Breakdown.BBMBucksDiscount.IsZero())
}

func TestComputeRefund_ItemRateOverridesOrderRate(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{ID: uuid.New(), TaxRate: decPtr("0.10")}
	items := []ordermodel.OrderItem{
		{ID: uuid.New(), Price: dec("100"), Quantity: 1, TaxRate: decPtr("0.05")},
		{ID: uuid.New(), Price: dec("100"), Quantity: 1},
	}

	result := calc.ComputeRefund(order, items, []model.ReturnLine{
		{ItemID: items[0].ID, Quantity: 1},
	})

	assert.True(t, dec("105").Equal(result.TotalRefund), "got %s", result.TotalRefund)
}

func TestComputeRefund_ProratesCouponByReturnedShare(t *testing.T) {
	calc := NewRefundCalculator()

	// Tax rate pinned to zero so the proration arithmetic is exact.
	order := &ordermodel.Order{
		ID:             uuid.New(),
		TaxRate:        decPtr("0"),
		CouponDiscount: dec("50"),
	}
	items := []ordermodel.OrderItem{
		{ID: uuid.New(), Price: dec("250"), Quantity: 1, TaxRate: decPtr("0")},
		{ID: uuid.New(), Price: dec("250"), Quantity: 1, TaxRate: decPtr("0")},
	}

	// Returning half the order value gives back half the coupon.
	result := calc.ComputeRefund(order, items, []model.ReturnLine{
		{ItemID: items[0].ID, Quantity: 1},
	})

	assert.True(t, dec("25").Equal(result.Breakdown.CouponDiscount), "got %s", result.Breakdown.CouponDiscount)
	assert.True(t, dec("225").Equal(result.TotalRefund), "got %s", result.TotalRefund)
}

func TestComputeRefund_ProratesBothDiscounts(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{
		ID:               uuid.New(),
		TaxRate:          decPtr("0"),
		CouponDiscount:   dec("40"),
		BBMBucksDiscount: dec("20"),
	}
	items := []ordermodel.OrderItem{
		{ID: uuid.New(), Price: dec("100"), Quantity: 4, TaxRate: decPtr("0")},
	}

	// One of four units: a quarter of each discount comes off.
	result := calc.ComputeRefund(order, items, []model.ReturnLine{
		{ItemID: items[0].ID, Quantity: 1},
	})

	assert.True(t, dec("10").Equal(result.Breakdown.CouponDiscount))
	assert.True(t, dec("5").Equal(result.Breakdown.BBMBucksDiscount))
	assert.True(t, dec("85").Equal(result.TotalRefund), "got %s", result.TotalRefund)
}

func TestComputeRefund_NeverNegative(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{
		ID:             uuid.New(),
		TaxRate:        decPtr("0"),
		CouponDiscount: dec("500"),
	}
	items := []ordermodel.OrderItem{
		{ID: uuid.New(), Price: dec("100"), Quantity: 1, TaxRate: decPtr("0")},
	}

	result := calc.ComputeRefund(order, items, []model.ReturnLine{
		{ItemID: items[0].ID, Quantity: 1},
	})

	assert.True(t, result.TotalRefund.IsZero(), "refund must be floored at zero, got %s", result.TotalRefund)
}

func TestComputeRefund_IgnoresUnknownItems(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{ID: uuid.New(), TaxRate: decPtr("0")}
	items := []ordermodel.OrderItem{
		{ID: uuid.New(), Price: dec("100"), Quantity: 1, TaxRate: decPtr("0")},
	}

	result := calc.ComputeRefund(order, items, []model.ReturnLine{
		{ItemID: items[0].ID, Quantity: 1},
		{ItemID: uuid.New(), Quantity: 5},
	})

	assert.True(t, dec("100").Equal(result.TotalRefund), "got %s", result.TotalRefund)
}

func TestComputeRefund_EmptyOrder(t *testing.T) {
	calc := NewRefundCalculator()

	order := &ordermodel.Order{ID: uuid.New(), CouponDiscount: dec("10")}

	result := calc.ComputeRefund(order, nil, []model.ReturnLine{
		{ItemID: uuid.New(), Quantity: 1},
	})

	assert.True(t, result.TotalRefund.IsZero())
	assert.True(t, result.Breakdown.CouponDiscount.IsZero())
}

func TestComputeIncentive(t *testing.T) {
	calc := NewRefundCalculator()

	incentive := calc.ComputeIncentive(dec("200"))
	require.NotNil(t, incentive)

	assert.True(t, dec("200").Equal(incentive.BaseAmount))
	assert.True(t, dec("2").Equal(incentive.BonusAmount), "got %s", incentive.BonusAmount)
	assert.True(t, dec("202").Equal(incentive.TotalAmount))
}

func TestComputeIncentive_RoundsToWholeUnits(t *testing.T) {
	calc := NewRefundCalculator()

	// 1% of 149.99 is 1.4999, rounded to 1.
	incentive := calc.ComputeIncentive(dec("149.99"))
	assert.True(t, dec("1").Equal(incentive.BonusAmount), "got %s", incentive.BonusAmount)

	// 1% of 250 is 2.5, rounded half away from zero to 3.
	incentive = calc.ComputeIncentive(dec("250"))
	assert.True(t, dec("3").Equal(incentive.BonusAmount), "got %s", incentive.BonusAmount)
}
