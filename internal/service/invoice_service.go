package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/billing"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/pkg/apperr"
)

// DTOs

// UpdateInvoiceRequest carries partial updates. id, timestamps, owner,
// invoice_number, client_id, and items are not updatable; changing tax_rate
// or discount_amount recomputes the derived totals from the stored items.
type UpdateInvoiceRequest struct {
	Status         *string          `json:"status"`
	DueDate        *string          `json:"due_date"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          *string          `json:"notes"`
	Terms          *string          `json:"terms"`
}

type InvoiceItemResponse struct {
	ID          uint   `json:"id"`
	InvoiceID   uint   `json:"invoice_id"`
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
}

type InvoiceResponse struct {
	ID             uint                  `json:"id"`
	UserID         uint                  `json:"user_id"`
	ClientID       uint                  `json:"client_id"`
	InvoiceNumber  string                `json:"invoice_number"`
	Status         string                `json:"status"`
	IssueDate      string                `json:"issue_date"`
	DueDate        string                `json:"due_date"`
	Subtotal       string                `json:"subtotal"`
	TaxRate        string                `json:"tax_rate"`
	TaxAmount      string                `json:"tax_amount"`
	DiscountAmount string                `json:"discount_amount"`
	Total          string                `json:"total"`
	Notes          string                `json:"notes"`
	Terms          string                `json:"terms"`
	Items          []InvoiceItemResponse `json:"items"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

// InvoiceService owns the invoice lifecycle: draft validation, totals
// derivation, number assignment, status transitions, and removal.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID uint, draft billing.InvoiceDraft) (*InvoiceResponse, error)
	GetInvoice(ctx context.Context, userID, id uint) (*InvoiceResponse, error)
	ListInvoices(ctx context.Context, userID uint, skip, limit int) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, userID, id uint, req UpdateInvoiceRequest) (*InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, userID, id uint) error
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		txManager:   txManager,
	}
}

// clientDirectory adapts the client repository to the billing existence seam.
type clientDirectory struct {
	repo repository.ClientRepository
}

func (d clientDirectory) ClientExists(ctx context.Context, userID, clientID uint) (bool, error) {
	exists, err := d.repo.Exists(ctx, userID, clientID)
	if err != nil {
		return false, apperr.NewTransport("check client", err)
	}
	return exists, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, userID uint, draft billing.InvoiceDraft) (*InvoiceResponse, error) {
	validated, err := billing.ValidateDraft(ctx, userID, draft, clientDirectory{repo: s.clientRepo})
	if err != nil {
		return nil, err
	}

	issueDate := time.Now().UTC().Truncate(24 * time.Hour)
	if validated.DueDate.Before(issueDate) {
		verr := apperr.NewValidation()
		verr.Add("due_date", "must not be before the issue date")
		return nil, verr
	}

	items := make([]model.InvoiceItem, 0, len(validated.Items))
	for i, item := range validated.Items {
		items = append(items, model.InvoiceItem{
			Position:    i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      billing.LineAmount(item.Quantity, item.UnitPrice),
		})
	}

	invoice := &model.Invoice{
		UserID:         userID,
		ClientID:       validated.ClientID,
		Status:         model.StatusDraft,
		IssueDate:      issueDate,
		DueDate:        validated.DueDate,
		Subtotal:       validated.Totals.Subtotal,
		TaxRate:        validated.TaxRate,
		TaxAmount:      validated.Totals.TaxAmount,
		DiscountAmount: validated.DiscountAmount,
		Total:          validated.Totals.Total,
		Notes:          validated.Notes,
		Terms:          validated.Terms,
		Items:          items,
	}

	// Number assignment and insert share a transaction so a concurrent
	// create cannot claim the same sequence slot.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateInvoiceNumber(txCtx, issueDate)
		if numErr != nil {
			return apperr.NewTransport("generate invoice number", numErr)
		}
		invoice.InvoiceNumber = number

		if createErr := s.invoiceRepo.Create(txCtx, invoice); createErr != nil {
			return apperr.NewTransport("create invoice", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reloaded, err := s.invoiceRepo.FindByIDWithItems(ctx, userID, invoice.ID)
	if err != nil {
		return nil, repoError("reload invoice", "invoice", err)
	}

	return mapInvoiceResponse(reloaded), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, userID, id uint) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, userID, id)
	if err != nil {
		return nil, repoError("get invoice", "invoice", err)
	}
	return mapInvoiceResponse(invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID uint, skip, limit int) ([]InvoiceResponse, int64, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, userID, skip, limit)
	if err != nil {
		return nil, 0, apperr.NewTransport("list invoices", err)
	}

	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, *mapInvoiceResponse(&invoices[i]))
	}
	return responses, total, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, id uint, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDWithItems(ctx, userID, id)
	if err != nil {
		return nil, repoError("get invoice", "invoice", err)
	}

	if req.Status != nil {
		next, parseErr := model.ParseStatus(*req.Status)
		if parseErr != nil {
			return nil, parseErr
		}
		if next != invoice.Status {
			if trErr := invoice.Status.ValidateTransition(next); trErr != nil {
				return nil, trErr
			}
			invoice.Status = next
		}
	}

	verr := apperr.NewValidation()
	if req.DueDate != nil {
		dueDate, parseErr := time.Parse(billing.DateLayout, *req.DueDate)
		switch {
		case parseErr != nil:
			verr.Add("due_date", "must be a date in YYYY-MM-DD format")
		case dueDate.Before(invoice.IssueDate):
			verr.Add("due_date", "must not be before the issue date")
		default:
			invoice.DueDate = dueDate
		}
	}

	recompute := false
	if req.TaxRate != nil {
		invoice.TaxRate = *req.TaxRate
		recompute = true
	}
	if req.DiscountAmount != nil {
		invoice.DiscountAmount = *req.DiscountAmount
		recompute = true
	}
	if req.Notes != nil {
		invoice.Notes = *req.Notes
	}
	if req.Terms != nil {
		invoice.Terms = *req.Terms
	}

	if recompute {
		lines := make([]billing.LineInput, 0, len(invoice.Items))
		for _, item := range invoice.Items {
			lines = append(lines, billing.LineInput{
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		totals, totalsErr := billing.ComputeTotals(lines, invoice.TaxRate, invoice.DiscountAmount)
		if totalsErr != nil {
			var itemErr *apperr.ValidationError
			if !errors.As(totalsErr, &itemErr) {
				return nil, totalsErr
			}
			verr.Merge("", itemErr)
		} else {
			invoice.Subtotal = totals.Subtotal
			invoice.TaxAmount = totals.TaxAmount
			invoice.Total = totals.Total
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, apperr.NewTransport("update invoice", err)
	}

	reloaded, err := s.invoiceRepo.FindByIDWithItems(ctx, userID, id)
	if err != nil {
		return nil, repoError("reload invoice", "invoice", err)
	}
	return mapInvoiceResponse(reloaded), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, id uint) error {
	exists, err := s.invoiceRepo.Exists(ctx, userID, id)
	if err != nil {
		return apperr.NewTransport("check invoice", err)
	}
	if !exists {
		return apperr.NewNotFound("invoice", nil)
	}

	// Deletion is permanent removal, not a status transition.
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.invoiceRepo.Delete(txCtx, userID, id); delErr != nil {
			return apperr.NewTransport("delete invoice", delErr)
		}
		return nil
	})
}

func (s *invoiceService) generateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	prefix := "INV-" + issueDate.Format("20060102") + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// Mapping

func mapInvoiceResponse(invoice *model.Invoice) *InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, InvoiceItemResponse{
			ID:          item.ID,
			InvoiceID:   item.InvoiceID,
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(2),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
		})
	}

	return &InvoiceResponse{
		ID:             invoice.ID,
		UserID:         invoice.UserID,
		ClientID:       invoice.ClientID,
		InvoiceNumber:  invoice.InvoiceNumber,
		Status:         string(invoice.Status),
		IssueDate:      invoice.IssueDate.Format(billing.DateLayout),
		DueDate:        invoice.DueDate.Format(billing.DateLayout),
		Subtotal:       invoice.Subtotal.StringFixed(2),
		TaxRate:        invoice.TaxRate.StringFixed(2),
		TaxAmount:      invoice.TaxAmount.StringFixed(2),
		DiscountAmount: invoice.DiscountAmount.StringFixed(2),
		Total:          invoice.Total.StringFixed(2),
		Notes:          invoice.Notes,
		Terms:          invoice.Terms,
		Items:          items,
		CreatedAt:      invoice.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      invoice.UpdatedAt.Format(time.RFC3339),
	}
}
