package domain

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives the totals snapshot for a set of cart lines. The
// discount is clamped to the subtotal so the total can never go negative.
// Pure: calling it any number of times over the same lines yields the same
// result and mutates nothing.
func ComputeTotals(lines []CartLine, discountRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	discount := decimal.Zero
	if discountRate.IsPositive() {
		discount = subtotal.Mul(discountRate).Div(oneHundred)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}

// OrderItemsTotal sums unit price times quantity over order items. Checkout
// uses it to compute the persisted order total independently from the cart's
// own totals snapshot.
func OrderItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
