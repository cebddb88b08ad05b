package model

import (
	"time"

	"github.com/shopspring/decimal"

	"invoicing/pkg/apperr"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	StatusDraft     InvoiceStatus = "draft"
	StatusSent      InvoiceStatus = "sent"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// statusTransitions is the single canonical transition table shared by
// validation and display logic. paid and cancelled are terminal.
var statusTransitions = map[InvoiceStatus][]InvoiceStatus{
	StatusDraft:     {StatusSent, StatusCancelled},
	StatusSent:      {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

// ParseStatus converts a raw status string into an InvoiceStatus, failing
// with InvalidStateError on anything outside the five-element set.
func ParseStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.Valid() {
		return "", &apperr.InvalidStateError{Status: s}
	}
	return status, nil
}

// Valid reports whether the status is one of the known five states.
func (s InvoiceStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether no further transitions are recognized.
func (s InvoiceStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether the transition s -> to is in the table.
func (s InvoiceStatus) CanTransition(to InvoiceStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns InvalidStateError unless s -> to is allowed.
func (s InvoiceStatus) ValidateTransition(to InvoiceStatus) error {
	if !to.Valid() {
		return &apperr.InvalidStateError{Status: string(to)}
	}
	if !s.CanTransition(to) {
		return &apperr.InvalidStateError{From: string(s), To: string(to)}
	}
	return nil
}

// Invoice represents a billing document owned by a user and addressed to a
// client. Subtotal, tax_amount, and total are derived from the items plus
// tax_rate and discount_amount; they are never set directly by callers.
// invoice_number and client_id are immutable after creation.
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	ClientID       uint            `gorm:"not null;index" json:"client_id"`
	Client         *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	InvoiceNumber  string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	IssueDate      time.Time       `gorm:"type:date;not null" json:"issue_date"`
	DueDate        time.Time       `gorm:"type:date;not null" json:"due_date"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Terms          string          `gorm:"type:text" json:"terms"`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceItem is one billable row on an invoice. Position preserves the
// order the rows were entered in; amount = quantity * unit_price.
type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
