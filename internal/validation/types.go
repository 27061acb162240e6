package validation

import "github.com/shopspring/decimal"

// Product is the GET /products/{code} response.
type Product struct {
	ID         int64           `json:"id" validate:"required,gt=0"`
	Code       string          `json:"code"`
	Name       string          `json:"name" validate:"required"`
	PriceExTax decimal.Decimal `json:"price_ex_tax"`
	PriceInTax decimal.Decimal `json:"price_in_tax"`
}

// PurchaseItem is a single line of a purchase submission.
type PurchaseItem struct {
	ProductID int64 `json:"prd_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// PurchaseRequest is the payload for POST /purchase
type PurchaseRequest struct {
	EmpCode string         `json:"emp_cd" validate:"required"`
	Items   []PurchaseItem `json:"items" validate:"required,min=1,dive"` // at least one item
}

// PurchaseResult is the POST /purchase response.
type PurchaseResult struct {
	TransactionID int64           `json:"transaction_id" validate:"required,gt=0"`
	TotalAmountEx decimal.Decimal `json:"total_amount_ex"`
	TotalAmount   decimal.Decimal `json:"total_amount"` // tax included
}

// TransactionLine is one recorded line of a transaction.
type TransactionLine struct {
	ProductName string          `json:"prd_name" validate:"required"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	PriceInTax  decimal.Decimal `json:"price_in_tax"`
	LineAmount  decimal.Decimal `json:"line_amount"`
}

// Transaction is the GET /transactions/{id} response.
type Transaction struct {
	TransactionID int64             `json:"transaction_id" validate:"required,gt=0"`
	Items         []TransactionLine `json:"items" validate:"dive"`
	TotalAmountEx decimal.Decimal   `json:"total_amount_ex"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
}

// LookupForm is posted by the product lookup screen.
type LookupForm struct {
	Code string `form:"code" validate:"required"`
}

// AdjustForm is posted by the +/- buttons of a cart line.
type AdjustForm struct {
	ProductID int64 `form:"product_id" validate:"required,gt=0"`
	Delta     int   `form:"delta" validate:"required,oneof=-1 1"`
}

// HistoryQuery carries the transaction id of the history view.
type HistoryQuery struct {
	ID int64 `form:"id" validate:"required,gt=0"`
}
