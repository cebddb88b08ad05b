package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/pkg/apperr"
)

// DTOs

type CreatePaymentRequest struct {
	InvoiceID       uint             `json:"invoice_id" binding:"required"`
	Amount          *decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	PaymentDate     *string          `json:"payment_date"` // RFC3339; defaults to now
	ReferenceNumber string           `json:"reference_number"`
	Notes           string           `json:"notes"`
}

type UpdatePaymentRequest struct {
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   *string          `json:"payment_method"`
	PaymentDate     *string          `json:"payment_date"`
	ReferenceNumber *string          `json:"reference_number"`
	Notes           *string          `json:"notes"`
}

type PaymentResponse struct {
	ID              uint   `json:"id"`
	InvoiceID       uint   `json:"invoice_id"`
	Amount          string `json:"amount"`
	PaymentMethod   string `json:"payment_method"`
	PaymentDate     string `json:"payment_date"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// PaymentService records money received against invoices. Bookkeeping only;
// it never talks to a payment gateway.
type PaymentService interface {
	CreatePayment(ctx context.Context, userID uint, req CreatePaymentRequest) (*PaymentResponse, error)
	GetPayment(ctx context.Context, userID, id uint) (*PaymentResponse, error)
	ListPayments(ctx context.Context, userID uint, filter repository.PaymentListFilter) ([]PaymentResponse, int64, error)
	UpdatePayment(ctx context.Context, userID, id uint, req UpdatePaymentRequest) (*PaymentResponse, error)
	DeletePayment(ctx context.Context, userID, id uint) error
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
}

func NewPaymentService(paymentRepo repository.PaymentRepository, invoiceRepo repository.InvoiceRepository) PaymentService {
	return &paymentService{paymentRepo: paymentRepo, invoiceRepo: invoiceRepo}
}

func validPaymentMethod(method string) bool {
	switch method {
	case model.PaymentMethodCash, model.PaymentMethodCreditCard, model.PaymentMethodBankTransfer,
		model.PaymentMethodCheck, model.PaymentMethodPaypal, model.PaymentMethodStripe, model.PaymentMethodOther:
		return true
	}
	return false
}

func mapPaymentResponse(payment *model.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              payment.ID,
		InvoiceID:       payment.InvoiceID,
		Amount:          payment.Amount.StringFixed(2),
		PaymentMethod:   payment.PaymentMethod,
		PaymentDate:     payment.PaymentDate.Format(time.RFC3339),
		ReferenceNumber: payment.ReferenceNumber,
		Notes:           payment.Notes,
		CreatedAt:       payment.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       payment.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, userID uint, req CreatePaymentRequest) (*PaymentResponse, error) {
	verr := apperr.NewValidation()
	if req.Amount == nil || !req.Amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	}
	if !validPaymentMethod(req.PaymentMethod) {
		verr.Add("payment_method", "is not a recognized payment method")
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.PaymentDate)
		if err != nil {
			verr.Add("payment_date", "must be an RFC3339 timestamp")
		} else {
			paymentDate = parsed
		}
	}

	exists, err := s.invoiceRepo.Exists(ctx, userID, req.InvoiceID)
	if err != nil {
		return nil, apperr.NewTransport("check invoice", err)
	}
	if !exists {
		return nil, apperr.NewNotFound("invoice", nil)
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	payment := &model.Payment{
		InvoiceID:       req.InvoiceID,
		Amount:          *req.Amount,
		PaymentMethod:   req.PaymentMethod,
		PaymentDate:     paymentDate,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperr.NewTransport("create payment", err)
	}

	return mapPaymentResponse(payment), nil
}

func (s *paymentService) GetPayment(ctx context.Context, userID, id uint) (*PaymentResponse, error) {
	payment, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return mapPaymentResponse(payment), nil
}

func (s *paymentService) ListPayments(ctx context.Context, userID uint, filter repository.PaymentListFilter) ([]PaymentResponse, int64, error) {
	payments, total, err := s.paymentRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, apperr.NewTransport("list payments", err)
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, *mapPaymentResponse(&payments[i]))
	}
	return responses, total, nil
}

func (s *paymentService) UpdatePayment(ctx context.Context, userID, id uint, req UpdatePaymentRequest) (*PaymentResponse, error) {
	payment, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	verr := apperr.NewValidation()
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			verr.Add("amount", "must be greater than zero")
		} else {
			payment.Amount = *req.Amount
		}
	}
	if req.PaymentMethod != nil {
		if !validPaymentMethod(*req.PaymentMethod) {
			verr.Add("payment_method", "is not a recognized payment method")
		} else {
			payment.PaymentMethod = *req.PaymentMethod
		}
	}
	if req.PaymentDate != nil {
		parsed, parseErr := time.Parse(time.RFC3339, *req.PaymentDate)
		if parseErr != nil {
			verr.Add("payment_date", "must be an RFC3339 timestamp")
		} else {
			payment.PaymentDate = parsed
		}
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	if req.ReferenceNumber != nil {
		payment.ReferenceNumber = *req.ReferenceNumber
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, apperr.NewTransport("update payment", err)
	}

	return mapPaymentResponse(payment), nil
}

func (s *paymentService) DeletePayment(ctx context.Context, userID, id uint) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return apperr.NewTransport("delete payment", err)
	}
	return nil
}

// findOwned loads a payment and verifies its invoice belongs to the user.
func (s *paymentService) findOwned(ctx context.Context, userID, id uint) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError("get payment", "payment", err)
	}

	owned, err := s.invoiceRepo.Exists(ctx, userID, payment.InvoiceID)
	if err != nil {
		return nil, apperr.NewTransport("check invoice", err)
	}
	if !owned {
		return nil, apperr.NewNotFound("payment", nil)
	}
	return payment, nil
}
