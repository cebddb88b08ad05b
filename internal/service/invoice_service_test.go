package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/billing"
	"invoicing/internal/model"
	"invoicing/pkg/apperr"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func strPtr(s string) *string { return &s }

type invoiceFixture struct {
	service     InvoiceService
	invoiceRepo *fakeInvoiceRepo
	clientRepo  *fakeClientRepo
	tx          *fakeTxManager
	clientID    uint
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	clientRepo := newFakeClientRepo()
	client := &model.Client{UserID: 1, Name: "Acme Corp", Email: "billing@acme.test", IsActive: true}
	require.NoError(t, clientRepo.Create(context.Background(), client))

	invoiceRepo := newFakeInvoiceRepo()
	tx := &fakeTxManager{}
	return &invoiceFixture{
		service:     NewInvoiceService(invoiceRepo, clientRepo, tx),
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		tx:          tx,
		clientID:    client.ID,
	}
}

func testDraft(t *testing.T, clientID uint) billing.InvoiceDraft {
	t.Helper()
	return billing.InvoiceDraft{
		ClientID: clientID,
		DueDate:  "2030-01-15",
		Items: []billing.LineInput{
			{Description: "Design work", Quantity: dec(t, "4"), UnitPrice: dec(t, "100.00")},
			{Description: "Hosting", Quantity: dec(t, "1"), UnitPrice: dec(t, "120.00")},
		},
		TaxRate:        decPtr(t, "10"),
		DiscountAmount: decPtr(t, "5.00"),
		Notes:          "Net 30",
	}
}

func TestCreateInvoice(t *testing.T) {
	fx := newInvoiceFixture(t)

	resp, err := fx.service.CreateInvoice(context.Background(), 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	expectedNumber := fmt.Sprintf("INV-%s-00001", time.Now().UTC().Format("20060102"))
	assert.Equal(t, expectedNumber, resp.InvoiceNumber)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, fx.clientID, resp.ClientID)
	assert.Equal(t, "520.00", resp.Subtotal)
	assert.Equal(t, "10.00", resp.TaxRate)
	assert.Equal(t, "52.00", resp.TaxAmount)
	assert.Equal(t, "5.00", resp.DiscountAmount)
	assert.Equal(t, "567.00", resp.Total)
	assert.Equal(t, "2030-01-15", resp.DueDate)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), resp.IssueDate)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].Position)
	assert.Equal(t, "Design work", resp.Items[0].Description)
	assert.Equal(t, "400.00", resp.Items[0].Amount)
	assert.Equal(t, 2, resp.Items[1].Position)
	assert.Equal(t, "120.00", resp.Items[1].Amount)

	assert.Equal(t, 1, fx.tx.calls)
}

func TestCreateInvoiceSequentialNumbers(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	first, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)
	second, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	prefix := fmt.Sprintf("INV-%s-", time.Now().UTC().Format("20060102"))
	assert.Equal(t, prefix+"00001", first.InvoiceNumber)
	assert.Equal(t, prefix+"00002", second.InvoiceNumber)
}

func TestCreateInvoiceWithoutItemsFailsBeforeStorage(t *testing.T) {
	fx := newInvoiceFixture(t)

	draft := testDraft(t, fx.clientID)
	draft.Items = nil

	_, err := fx.service.CreateInvoice(context.Background(), 1, draft)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "items")

	assert.Equal(t, 0, fx.tx.calls)
	assert.Empty(t, fx.invoiceRepo.invoices)
}

func TestCreateInvoiceUnknownClient(t *testing.T) {
	fx := newInvoiceFixture(t)

	draft := testDraft(t, 999)
	_, err := fx.service.CreateInvoice(context.Background(), 1, draft)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "client_id")
}

func TestCreateInvoiceClientOwnedByAnotherUser(t *testing.T) {
	fx := newInvoiceFixture(t)

	_, err := fx.service.CreateInvoice(context.Background(), 2, testDraft(t, fx.clientID))

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "client_id")
}

func TestCreateInvoiceDueDateBeforeIssueDate(t *testing.T) {
	fx := newInvoiceFixture(t)

	draft := testDraft(t, fx.clientID)
	draft.DueDate = "2000-01-01"

	_, err := fx.service.CreateInvoice(context.Background(), 1, draft)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "due_date")
	assert.Equal(t, 0, fx.tx.calls)
}

func TestGetInvoiceScopedToOwner(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	fetched, err := fx.service.GetInvoice(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.InvoiceNumber, fetched.InvoiceNumber)

	_, err = fx.service.GetInvoice(ctx, 2, created.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "invoice", notFound.Resource)
}

func TestListInvoices(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
		require.NoError(t, err)
	}

	page, total, err := fx.service.ListInvoices(ctx, 1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	empty, total, err := fx.service.ListInvoices(ctx, 2, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, empty)
}

func TestUpdateInvoiceStatusTransition(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	updated, err := fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{Status: strPtr("sent")})
	require.NoError(t, err)
	assert.Equal(t, "sent", updated.Status)

	updated, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{Status: strPtr("paid")})
	require.NoError(t, err)
	assert.Equal(t, "paid", updated.Status)
}

func TestUpdateInvoiceRejectsPaidToDraft(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)
	fx.invoiceRepo.invoices[created.ID].Status = model.StatusPaid

	_, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{Status: strPtr("draft")})

	var stateErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "paid", stateErr.From)
	assert.Equal(t, "draft", stateErr.To)
	assert.Equal(t, model.StatusPaid, fx.invoiceRepo.invoices[created.ID].Status)
}

func TestUpdateInvoiceSameStatusIsNoOp(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)
	fx.invoiceRepo.invoices[created.ID].Status = model.StatusPaid

	// paid -> paid is not a transition, so even a terminal state accepts it.
	updated, err := fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{Status: strPtr("paid")})
	require.NoError(t, err)
	assert.Equal(t, "paid", updated.Status)
}

func TestUpdateInvoiceUnknownStatus(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	_, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{Status: strPtr("archived")})

	var stateErr *apperr.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "archived", stateErr.Status)
}

func TestUpdateInvoiceRecomputesTotals(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	updated, err := fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{
		TaxRate:        decPtr(t, "20"),
		DiscountAmount: decPtr(t, "0"),
	})
	require.NoError(t, err)

	assert.Equal(t, "520.00", updated.Subtotal)
	assert.Equal(t, "104.00", updated.TaxAmount)
	assert.Equal(t, "624.00", updated.Total)
}

func TestUpdateInvoiceTotalClampedAtZero(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	updated, err := fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{
		DiscountAmount: decPtr(t, "10000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", updated.Total)
}

func TestUpdateInvoiceNegativeTaxRateRejected(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)
	updatesBefore := fx.invoiceRepo.updates

	_, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{
		TaxRate: decPtr(t, "-1"),
	})

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "tax_rate")
	assert.Equal(t, updatesBefore, fx.invoiceRepo.updates)
}

func TestUpdateInvoiceBadDueDate(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	_, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{DueDate: strPtr("01/15/2030")})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "due_date")

	_, err = fx.service.UpdateInvoice(ctx, 1, created.ID, UpdateInvoiceRequest{DueDate: strPtr("2000-01-01")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details(), "due_date")
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	fx := newInvoiceFixture(t)

	_, err := fx.service.UpdateInvoice(context.Background(), 1, 42, UpdateInvoiceRequest{Notes: strPtr("x")})

	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "invoice", notFound.Resource)
}

func TestDeleteInvoice(t *testing.T) {
	fx := newInvoiceFixture(t)
	ctx := context.Background()

	created, err := fx.service.CreateInvoice(ctx, 1, testDraft(t, fx.clientID))
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteInvoice(ctx, 1, created.ID))
	assert.Empty(t, fx.invoiceRepo.invoices)

	err = fx.service.DeleteInvoice(ctx, 1, created.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
