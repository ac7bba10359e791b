package domain

import (
	"time"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
)

// OrderItem is a frozen copy of a cart line taken at checkout time. Catalog
// price changes after checkout never alter a placed order.
type OrderItem struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
}

// ShippingInfo is the destination captured at checkout. Name, Phone, City and
// Country are mandatory.
type ShippingInfo struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	AddressLine string `json:"address_line,omitempty"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// MissingFields lists the mandatory shipping fields that are blank.
func (s ShippingInfo) MissingFields() []string {
	var missing []string
	if s.Name == "" {
		missing = append(missing, "name")
	}
	if s.Phone == "" {
		missing = append(missing, "phone")
	}
	if s.City == "" {
		missing = append(missing, "city")
	}
	if s.Country == "" {
		missing = append(missing, "country")
	}
	return missing
}

// Order is a placed order as returned by the remote service.
type Order struct {
	ID           string           `json:"id"`
	TrackingCode string           `json:"tracking_code"`
	Customer     string           `json:"customer"`
	Items        []OrderItem      `json:"items"`
	Shipping     ShippingInfo     `json:"shipping"`
	Status       orderflow.Status `json:"status"`
	Total        money.Money      `json:"total"`
	CreatedAt    time.Time        `json:"created_at"`
}
