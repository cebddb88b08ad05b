package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCreditCard   = "credit_card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheck        = "check"
	PaymentMethodPaypal       = "paypal"
	PaymentMethodStripe       = "stripe"
	PaymentMethodOther        = "other"
)

// Payment records money received against an invoice. This is bookkeeping
// only; no gateway is involved.
type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InvoiceID       uint            `gorm:"not null;index" json:"invoice_id"`
	Invoice         *Invoice        `gorm:"foreignKey:InvoiceID" json:"-"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentDate     time.Time       `gorm:"not null" json:"payment_date"`
	ReferenceNumber string          `gorm:"type:varchar(100)" json:"reference_number"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
