package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// New returns a configured validator with the struct-level money checks registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(productStructValidation, Product{})
	v.RegisterStructValidation(purchaseResultStructValidation, PurchaseResult{})
	v.RegisterStructValidation(transactionStructValidation, Transaction{})
	v.RegisterStructValidation(transactionLineStructValidation, TransactionLine{})

	return v
}

func productStructValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(Product)
	reportPricePair(sl, p.PriceExTax, p.PriceInTax, "PriceExTax", "PriceInTax")
}

func purchaseResultStructValidation(sl validatorv10.StructLevel) {
	r := sl.Current().Interface().(PurchaseResult)
	reportPricePair(sl, r.TotalAmountEx, r.TotalAmount, "TotalAmountEx", "TotalAmount")
}

func transactionStructValidation(sl validatorv10.StructLevel) {
	t := sl.Current().Interface().(Transaction)
	reportPricePair(sl, t.TotalAmountEx, t.TotalAmount, "TotalAmountEx", "TotalAmount")
}

// the recorded line amount must equal unit price * quantity
func transactionLineStructValidation(sl validatorv10.StructLevel) {
	l := sl.Current().Interface().(TransactionLine)
	if l.PriceInTax.IsNegative() {
		sl.ReportError(l.PriceInTax, "price_in_tax", "PriceInTax", "nonnegative", "")
	}
	want := l.PriceInTax.Mul(decimal.NewFromInt(int64(l.Quantity)))
	if !want.Equal(l.LineAmount) {
		sl.ReportError(l.LineAmount, "line_amount", "LineAmount", "line_amount_match", fmt.Sprintf("%s * %d != %s", l.PriceInTax, l.Quantity, l.LineAmount))
	}
}

// reportPricePair checks 0 <= exTax <= inTax.
func reportPricePair(sl validatorv10.StructLevel, exTax, inTax decimal.Decimal, exField, inField string) {
	if exTax.IsNegative() {
		sl.ReportError(exTax, exField, exField, "nonnegative", "")
	}
	if inTax.IsNegative() {
		sl.ReportError(inTax, inField, inField, "nonnegative", "")
	}
	if exTax.GreaterThan(inTax) {
		sl.ReportError(exTax, exField, exField, "ltefield", inField)
	}
}
