// Package product is the handmade-goods catalog.
package product

import "time"

type Product struct {
	ID           string    `json:"id" db:"product_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Category     string    `json:"category" db:"category"`
	ImageURL     string    `json:"imageUrl" db:"image_url"`
	Price        float64   `json:"price" db:"price"`
	StockCount   int       `json:"stockCount" db:"stock_count"`
	ShippingCost *float64  `json:"shippingCost,omitempty" db:"shipping_cost"`
	FreeShipping bool      `json:"freeShipping" db:"free_shipping"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	Version      int       `json:"-" db:"version"`
}

// InStock reports whether the product can be added to a cart at all.
func (p Product) InStock() bool { return p.StockCount > 0 }

type ProductNew struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Category     string   `json:"category" validate:"required"`
	ImageURL     string   `json:"imageUrl" validate:"omitempty,url"`
	Price        float64  `json:"price" validate:"required,gte=0"`
	StockCount   int      `json:"stockCount" validate:"gte=0"`
	ShippingCost *float64 `json:"shippingCost" validate:"omitempty,gte=0"`
	FreeShipping bool     `json:"freeShipping"`
}

type ProductUp struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	ImageURL     *string  `json:"imageUrl" validate:"omitempty,url"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	StockCount   *int     `json:"stockCount" validate:"omitempty,gte=0"`
	ShippingCost *float64 `json:"shippingCost" validate:"omitempty,gte=0"`
	FreeShipping *bool    `json:"freeShipping"`
}
