package pricing

import (
	"errors"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/domain"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

// ErrInvalidDiscount rejects discount percentages outside [0,100].
var ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")

// LineTotal is the exact unit price times quantity. No rounding happens here;
// minor-unit multiplication is lossless.
func LineTotal(unitPrice money.Money, quantity int) money.Money {
	return money.Money{
		AmountMinor: unitPrice.AmountMinor * int64(quantity),
		Currency:    unitPrice.Currency,
	}
}

// DiscountAmount computes percent of the reference-currency subtotal, rounded
// half-up at the last step. Discounts are always taken on the reference
// subtotal; display conversion is applied to the finished chain, never to
// intermediate values.
func DiscountAmount(subtotal money.Money, percent int) (money.Money, error) {
	if percent < 0 || percent > 100 {
		return money.Money{}, ErrInvalidDiscount
	}
	raw := subtotal.AmountMinor * int64(percent)
	rounded := (raw + 50) / 100
	return money.Money{AmountMinor: rounded, Currency: subtotal.Currency}, nil
}

// Totals is the derived pricing view of a cart.
type Totals struct {
	Subtotal           money.Money
	Discount           money.Money
	TotalAfterDiscount money.Money
}

// CartTotals derives subtotal, discount and final total from cart lines.
// Subtotal is the sum of exact line totals.
func CartTotals(items []domain.CartItem, discountPercent int) (Totals, error) {
	subtotal := money.FromMinor(0)
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item.UnitPrice, item.Quantity))
	}

	discount, err := DiscountAmount(subtotal, discountPercent)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		TotalAfterDiscount: money.Money{
			AmountMinor: subtotal.AmountMinor - discount.AmountMinor,
			Currency:    subtotal.Currency,
		},
	}, nil
}
