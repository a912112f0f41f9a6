package service

import (
	"github.com/shopspring/decimal"

	ordermodel "bbm-backend/internal/domains/order/model"
	"bbm-backend/internal/domains/returns/model"
)

// =====================================================
// REFUND CALCULATOR
// =====================================================

// RefundCalculator computes refund amounts for a selection of order
// items. Pure arithmetic over the order snapshot, no storage access.
type RefundCalculator struct{}

func NewRefundCalculator() *RefundCalculator {
	return &RefundCalculator{}
}

// ComputeRefund prices the selected lines tax-inclusive and prorates
// the order-level discounts by the returned share of the order value.
// Lines referencing unknown items contribute nothing. The result is
// floored at zero so heavy discounts can never produce a negative
// refund.
func (calc *RefundCalculator) ComputeRefund(
	order *ordermodel.Order,
	items []ordermodel.OrderItem,
	lines []model.ReturnLine,
) model.RefundComputation {
	itemsByID := make(map[string]*ordermodel.OrderItem, len(items))
	for i := range items {
		itemsByID[items[i].ID.String()] = &items[i]
	}

	// Original order value, tax inclusive, over ALL ordered units. This
	// is the proration denominator.
	originalSubtotal := decimal.Zero
	for i := range items {
		originalSubtotal = originalSubtotal.Add(items[i].GrossAmount(order, items[i].Quantity))
	}

	// Value of the returned units, tax inclusive.
	returnSubtotal := decimal.Zero
	for _, line := range lines {
		item, ok := itemsByID[line.ItemID.String()]
		if !ok {
			continue
		}
		returnSubtotal = returnSubtotal.Add(item.GrossAmount(order, line.Quantity))
	}

	// Each discount is prorated by the returned share of the order
	// value, so a partial return gives back a partial discount.
	couponShare := prorate(order.CouponDiscount, returnSubtotal, originalSubtotal)
	bbmBucksShare := prorate(order.BBMBucksDiscount, returnSubtotal, originalSubtotal)

	total := returnSubtotal.Sub(couponShare).Sub(bbmBucksShare)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return model.RefundComputation{
		TotalRefund: total.Round(2),
		Breakdown: model.RefundBreakdown{
			ItemsSubtotal:    returnSubtotal.Round(2),
			CouponDiscount:   couponShare,
			BBMBucksDiscount: bbmBucksShare,
		},
	}
}

// ComputeIncentive applies the BBM Bucks bonus to a refund base. The
// bonus is rounded to whole currency units.
func (calc *RefundCalculator) ComputeIncentive(base decimal.Decimal) *model.BBMBucksIncentive {
	bonus := base.Mul(model.BBMBucksBonusRate).Round(0)
	return &model.BBMBucksIncentive{
		BaseAmount:  base,
		BonusAmount: bonus,
		TotalAmount: base.Add(bonus),
	}
}

// prorate returns discount * part/whole, rounded to cents. A zero whole
// yields zero rather than a division error.
func prorate(discount, part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() || discount.IsZero() {
		return decimal.Zero
	}
	return discount.Mul(part).Div(whole).Round(2)
}
