package domain

import (
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

// CartItem is one line of a cart. ProductID is a lookup key into the catalog;
// the cart owns the line, not the product.
type CartItem struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
}

// Cart is the canonical cart payload as the remote service returns it. All
// prices are reference-currency minor units; display conversion happens at
// render time only.
type Cart struct {
	ID              string     `json:"id"`
	Items           []CartItem `json:"items"`
	DiscountPercent int        `json:"discount_percent"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// ItemByProduct finds the line holding productID, if any.
func (c *Cart) ItemByProduct(productID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Clone deep-copies the cart so callers can hold a snapshot that later store
// mutations cannot touch.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{ID: c.ID, DiscountPercent: c.DiscountPercent}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}
