// Package billing is the invoice computation core: line amounts, totals,
// and draft validation. Everything here is pure and deterministic; callers
// re-evaluate whenever items, tax rate, or discount change.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"invoicing/pkg/apperr"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput is one candidate line item of a draft invoice.
type LineInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Totals holds the derived money fields of an invoice, rounded to currency
// precision. All values are non-negative.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// LineAmount derives amount = quantity * unit_price at currency precision.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// ComputeTotals derives subtotal, tax_amount, and total from the line items
// plus tax rate (percent) and absolute discount. If the discount exceeds
// subtotal + tax_amount the total clamps to zero rather than going negative.
// Invalid input never passes silently: any non-positive quantity, negative
// unit price, empty description, or negative tax rate/discount fails with a
// ValidationError naming every offending field.
func ComputeTotals(items []LineInput, taxRate, discount decimal.Decimal) (Totals, error) {
	verr := apperr.NewValidation()
	for i, item := range items {
		validateLine(fmt.Sprintf("items[%d]", i), item, verr)
	}
	if taxRate.IsNegative() {
		verr.Add("tax_rate", "must not be negative")
	}
	if discount.IsNegative() {
		verr.Add("discount_amount", "must not be negative")
	}
	if err := verr.ErrOrNil(); err != nil {
		return Totals{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineAmount(item.Quantity, item.UnitPrice))
	}

	taxAmount := subtotal.Mul(taxRate).Div(oneHundred).Round(2)

	total := subtotal.Add(taxAmount).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     total.Round(2),
	}, nil
}

func validateLine(prefix string, item LineInput, verr *apperr.ValidationError) {
	if item.Description == "" {
		verr.Add(prefix+".description", "must not be empty")
	}
	if !item.Quantity.IsPositive() {
		verr.Add(prefix+".quantity", "must be greater than zero")
	}
	if item.UnitPrice.IsNegative() {
		verr.Add(prefix+".unit_price", "must not be negative")
	}
}
