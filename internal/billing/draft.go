package billing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/pkg/apperr"
)

// DateLayout is the wire format for issue and due dates.
const DateLayout = "2006-01-02"

// ClientDirectory supplies client existence checks for draft validation.
// The invoice service satisfies it with the client repository.
type ClientDirectory interface {
	ClientExists(ctx context.Context, userID, clientID uint) (bool, error)
}

// InvoiceDraft is a user-entered, not-yet-persisted invoice form. TaxRate
// and DiscountAmount are optional and default to zero when absent.
type InvoiceDraft struct {
	ClientID       uint             `json:"client_id"`
	DueDate        string           `json:"due_date"`
	Items          []LineInput      `json:"items"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          string           `json:"notes"`
	Terms          string           `json:"terms"`
}

// ValidatedDraft is a draft that passed validation, with dates parsed,
// optional fields defaulted, and totals derived. Ready for submission.
type ValidatedDraft struct {
	ClientID       uint
	DueDate        time.Time
	Items          []LineInput
	TaxRate        decimal.Decimal
	DiscountAmount decimal.Decimal
	Notes          string
	Terms          string
	Totals         Totals
}

// ValidateDraft gates a draft before it reaches storage. It checks the
// client reference through the directory, parses the due date, requires at
// least one item, and applies the per-item and tax/discount rules of
// ComputeTotals. Every failing field is reported, not just the first. The
// draft itself is never mutated.
func ValidateDraft(ctx context.Context, userID uint, draft InvoiceDraft, clients ClientDirectory) (*ValidatedDraft, error) {
	verr := apperr.NewValidation()

	if draft.ClientID == 0 {
		verr.Add("client_id", "is required")
	} else {
		exists, err := clients.ClientExists(ctx, userID, draft.ClientID)
		if err != nil {
			return nil, err
		}
		if !exists {
			verr.Add("client_id", "references an unknown client")
		}
	}

	var dueDate time.Time
	if draft.DueDate == "" {
		verr.Add("due_date", "is required")
	} else {
		parsed, err := time.Parse(DateLayout, draft.DueDate)
		if err != nil {
			verr.Add("due_date", "must be a date in YYYY-MM-DD format")
		} else {
			dueDate = parsed
		}
	}

	if len(draft.Items) == 0 {
		verr.Add("items", "at least one line item is required")
	}

	taxRate := decimal.Zero
	if draft.TaxRate != nil {
		taxRate = *draft.TaxRate
	}
	discount := decimal.Zero
	if draft.DiscountAmount != nil {
		discount = *draft.DiscountAmount
	}

	totals, err := ComputeTotals(draft.Items, taxRate, discount)
	if err != nil {
		var itemErr *apperr.ValidationError
		if !errors.As(err, &itemErr) {
			return nil, err
		}
		verr.Merge("", itemErr)
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	return &ValidatedDraft{
		ClientID:       draft.ClientID,
		DueDate:        dueDate,
		Items:          draft.Items,
		TaxRate:        taxRate,
		DiscountAmount: discount,
		Notes:          draft.Notes,
		Terms:          draft.Terms,
		Totals:         totals,
	}, nil
}
