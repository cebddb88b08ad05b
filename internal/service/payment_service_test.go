package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/pkg/apperr"
)

type paymentFixture struct {
	service     PaymentService
	paymentRepo *fakePaymentRepo
	invoiceRepo *fakeInvoiceRepo
	invoiceID   uint
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	invoiceRepo := newFakeInvoiceRepo()
	invoice := &model.Invoice{UserID: 1, ClientID: 1, InvoiceNumber: "INV-20260901-00001", Status: model.StatusSent}
	require.NoError(t, invoiceRepo.Create(context.Background(), invoice))

	paymentRepo := newFakePaymentRepo()
	return &paymentFixture{
		service:     NewPaymentService(paymentRepo, invoiceRepo),
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		invoiceID:   invoice.ID,
	}
}

func validPaymentRequest(t *testing.T, invoiceID uint) CreatePaymentRequest {
	t.Helper()
	return CreatePaymentRequest{
		InvoiceID:       invoiceID,
		Amount:          decPtr(t, "250.00"),
		PaymentMethod:   model.PaymentMethodBankTransfer,
		PaymentDate:     strPtr("2026-09-01T10:30:00Z"),
		ReferenceNumber: "WIRE-4711",
	}
}

func TestCreatePayment(t *testing.T) {
	fx := newPaymentFixture(t)

	resp, err := fx.service.CreatePayment(context.Background(), 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	assert.Equal(t, fx.invoiceID, resp.InvoiceID)
	assert.Equal(t, "250.00", resp.Amount)
	assert.Equal(t, model.PaymentMethodBankTransfer, resp.PaymentMethod)
	assert.Equal(t, "2026-09-01T10:30:00Z", resp.PaymentDate)
	assert.Equal(t, "WIRE-4711", resp.ReferenceNumber)
}

func TestCreatePaymentValidation(t *testing.T) {
	fx := newPaymentFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreatePaymentRequest)
		field  string
	}{
		{"missing amount", func(r *CreatePaymentRequest) { r.Amount = nil }, "amount"},
		{"zero amount", func(r *CreatePaymentRequest) { r.Amount = decPtr(t, "0") }, "amount"},
		{"negative amount", func(r *CreatePaymentRequest) { r.Amount = decPtr(t, "-10") }, "amount"},
		{"unknown method", func(r *CreatePaymentRequest) { r.PaymentMethod = "barter" }, "payment_method"},
		{"bad date", func(r *CreatePaymentRequest) { r.PaymentDate = strPtr("yesterday") }, "payment_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPaymentRequest(t, fx.invoiceID)
			tt.mutate(&req)

			_, err := fx.service.CreatePayment(context.Background(), 1, req)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Details(), tt.field)
		})
	}
}

func TestCreatePaymentUnknownInvoice(t *testing.T) {
	fx := newPaymentFixture(t)

	_, err := fx.service.CreatePayment(context.Background(), 1, validPaymentRequest(t, 999))

	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "invoice", notFound.Resource)
}

func TestCreatePaymentInvoiceOwnedByAnotherUser(t *testing.T) {
	fx := newPaymentFixture(t)

	_, err := fx.service.CreatePayment(context.Background(), 2, validPaymentRequest(t, fx.invoiceID))

	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetPaymentScopedThroughInvoice(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)

	fetched, err := fx.service.GetPayment(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Amount, fetched.Amount)

	_, err = fx.service.GetPayment(ctx, 2, created.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "payment", notFound.Resource)
}

func TestListPaymentsFilteredByInvoice(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()

	other := &model.Invoice{UserID: 1, ClientID: 1, InvoiceNumber: "INV-20260901-00002", Status: model.StatusSent}
	require.NoError(t, fx.invoiceRepo.Create(ctx, other))

	_, err := fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)
	_, err = fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, other.ID))
	require.NoError(t, err)

	all, total, err := fx.service.ListPayments(ctx, 1, repository.PaymentListFilter{Skip: 0, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	scoped, total, err := fx.service.ListPayments(ctx, 1, repository.PaymentListFilter{InvoiceID: other.ID, Skip: 0, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, scoped, 1)
	assert.Equal(t, other.ID, scoped[0].InvoiceID)
}

func TestUpdatePayment(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)

	updated, err := fx.service.UpdatePayment(ctx, 1, created.ID, UpdatePaymentRequest{
		Amount:        decPtr(t, "300.00"),
		PaymentMethod: strPtr(model.PaymentMethodCheck),
		Notes:         strPtr("second installment"),
	})
	require.NoError(t, err)

	assert.Equal(t, "300.00", updated.Amount)
	assert.Equal(t, model.PaymentMethodCheck, updated.PaymentMethod)
	assert.Equal(t, "second installment", updated.Notes)
	assert.Equal(t, created.ReferenceNumber, updated.ReferenceNumber)
}

func TestUpdatePaymentRejectsInvalidFields(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)

	_, err = fx.service.UpdatePayment(ctx, 1, created.ID, UpdatePaymentRequest{
		Amount:        decPtr(t, "-5"),
		PaymentMethod: strPtr("barter"),
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "amount")
	assert.Contains(t, verr.Details(), "payment_method")

	stored, err := fx.service.GetPayment(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", stored.Amount)
}

func TestDeletePayment(t *testing.T) {
	fx := newPaymentFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreatePayment(ctx, 1, validPaymentRequest(t, fx.invoiceID))
	require.NoError(t, err)

	err = fx.service.DeletePayment(ctx, 2, created.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, fx.service.DeletePayment(ctx, 1, created.ID))
	assert.Empty(t, fx.paymentRepo.payments)
}
