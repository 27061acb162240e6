package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Line is one product's presence in the cart.
type Line struct {
	ProductID  int64           `json:"prd_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	PriceExTax decimal.Decimal `json:"price_ex_tax"`
	PriceInTax decimal.Decimal `json:"price_in_tax"`
	Quantity   int             `json:"quantity"`
}

// AmountExTax is the ex-tax price multiplied by the quantity.
func (l Line) AmountExTax() decimal.Decimal {
	return l.PriceExTax.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AmountInTax is the in-tax price multiplied by the quantity.
func (l Line) AmountInTax() decimal.Decimal {
	return l.PriceInTax.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item is the (product, quantity) pair submitted with a purchase.
type Item struct {
	ProductID int64
	Quantity  int
}

// Totals holds both sums over the cart.
type Totals struct {
	ExTax decimal.Decimal
	InTax decimal.Decimal
}

var (
	ErrLineExists      = errors.New("cart: line already exists")
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	ErrInvalidPrice    = errors.New("cart: invalid price")
)
