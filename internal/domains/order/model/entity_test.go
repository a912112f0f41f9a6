package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ratePtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestEffectiveTaxRate(t *testing.T) {
	order := &Order{}
	assert.True(t, DefaultTaxRate.Equal(order.EffectiveTaxRate()))

	order.TaxRate = ratePtr("0.05")
	assert.True(t, decimal.NewFromFloat(0.05).Equal(order.EffectiveTaxRate()))

	item := &OrderItem{}
	assert.True(t, decimal.NewFromFloat(0.05).Equal(item.EffectiveTaxRate(order)))

	item.TaxRate = ratePtr("0.20")
	assert.True(t, decimal.NewFromFloat(0.20).Equal(item.EffectiveTaxRate(order)))
}

func TestGrossAmount(t *testing.T) {
	order := &Order{}
	item := &OrderItem{
		Price:    decimal.NewFromInt(100),
		Quantity: 3,
	}

	// 100 * 2 * 1.18 with the default rate.
	gross := item.GrossAmount(order, 2)
	assert.True(t, decimal.NewFromInt(236).Equal(gross), "got %s", gross)
}

func TestRemainingReturnable(t *testing.T) {
	item := &OrderItem{Quantity: 3, QuantityReturned: 1}
	assert.Equal(t, 2, item.RemainingReturnable())

	item.QuantityReturned = 3
	assert.Equal(t, 0, item.RemainingReturnable())
}

func TestIsDelivered(t *testing.T) {
	order := &Order{Status: OrderStatusShipping}
	assert.False(t, order.IsDelivered())

	order.Status = OrderStatusDelivered
	assert.True(t, order.IsDelivered())
}
