// Package order persists checkouts and settles them against the payment
// providers.
package order

import "time"

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

type Order struct {
	ID         string    `json:"id" db:"order_id"`
	Reference  string    `json:"reference" db:"reference"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	Status     Status    `json:"status" db:"status"`
	Subtotal   float64   `json:"subtotal" db:"subtotal"`
	Discount   float64   `json:"discount" db:"discount"`
	Shipping   float64   `json:"shipping" db:"shipping"`
	Tax        float64   `json:"tax" db:"tax"`
	Total      float64   `json:"total" db:"total"`
	CouponCode *string   `json:"couponCode,omitempty" db:"coupon_code"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type Item struct {
	OrderID   string    `json:"orderId" db:"order_id"`
	ProductID string    `json:"productId" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}
