package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"invoicing/internal/model"
	"invoicing/internal/repository"
)

// In-memory repository fakes. Each one honors the same owner scoping and
// gorm.ErrRecordNotFound contract as the real implementations so service
// error mapping can be exercised without a database.

type fakeTxManager struct {
	calls int
	err   error
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type fakeClientRepo struct {
	clients map[uint]*model.Client
	nextID  uint
	err     error
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[uint]*model.Client)}
}

func (r *fakeClientRepo) Create(ctx context.Context, client *model.Client) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	client.ID = r.nextID
	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) Update(ctx context.Context, client *model.Client) error {
	if r.err != nil {
		return r.err
	}
	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, userID, id uint) error {
	if r.err != nil {
		return r.err
	}
	if c, ok := r.clients[id]; ok && c.UserID == userID {
		delete(r.clients, id)
	}
	return nil
}

func (r *fakeClientRepo) FindByID(ctx context.Context, userID, id uint) (*model.Client, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.clients[id]
	if !ok || c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeClientRepo) List(ctx context.Context, userID uint, skip, limit int) ([]model.Client, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	var owned []model.Client
	for id := uint(1); id <= r.nextID; id++ {
		if c, ok := r.clients[id]; ok && c.UserID == userID {
			owned = append(owned, *c)
		}
	}
	total := int64(len(owned))
	if skip >= len(owned) {
		return nil, total, nil
	}
	owned = owned[skip:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, total, nil
}

func (r *fakeClientRepo) Exists(ctx context.Context, userID, id uint) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	c, ok := r.clients[id]
	return ok && c.UserID == userID, nil
}

type fakeInvoiceRepo struct {
	invoices map[uint]*model.Invoice
	nextID   uint
	err      error
	updates  int
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uint]*model.Invoice)}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	invoice.ID = r.nextID
	for i := range invoice.Items {
		invoice.Items[i].ID = uint(i + 1)
		invoice.Items[i].InvoiceID = invoice.ID
	}
	stored := *invoice
	stored.Items = append([]model.InvoiceItem(nil), invoice.Items...)
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, invoice *model.Invoice) error {
	if r.err != nil {
		return r.err
	}
	r.updates++
	existing, ok := r.invoices[invoice.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *invoice
	// Items are never written through Update.
	stored.Items = existing.Items
	r.invoices[invoice.ID] = &stored
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, userID, id uint) error {
	if r.err != nil {
		return r.err
	}
	if inv, ok := r.invoices[id]; ok && inv.UserID == userID {
		delete(r.invoices, id)
	}
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, userID, id uint) (*model.Invoice, error) {
	if r.err != nil {
		return nil, r.err
	}
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	copied.Items = nil
	return &copied, nil
}

func (r *fakeInvoiceRepo) FindByIDWithItems(ctx context.Context, userID, id uint) (*model.Invoice, error) {
	if r.err != nil {
		return nil, r.err
	}
	inv, ok := r.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	copied.Items = append([]model.InvoiceItem(nil), inv.Items...)
	return &copied, nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, userID uint, skip, limit int) ([]model.Invoice, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	var owned []model.Invoice
	for id := uint(1); id <= r.nextID; id++ {
		if inv, ok := r.invoices[id]; ok && inv.UserID == userID {
			copied := *inv
			copied.Items = append([]model.InvoiceItem(nil), inv.Items...)
			owned = append(owned, copied)
		}
	}
	total := int64(len(owned))
	if skip >= len(owned) {
		return nil, total, nil
	}
	owned = owned[skip:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, total, nil
}

func (r *fakeInvoiceRepo) Exists(ctx context.Context, userID, id uint) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	inv, ok := r.invoices[id]
	return ok && inv.UserID == userID, nil
}

func (r *fakeInvoiceRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var count int64
	for _, inv := range r.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct {
	payments map[uint]*model.Payment
	nextID   uint
	err      error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uint]*model.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	payment.ID = r.nextID
	stored := *payment
	r.payments[payment.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	if r.err != nil {
		return r.err
	}
	stored := *payment
	r.payments[payment.ID] = &stored
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, id uint) error {
	if r.err != nil {
		return r.err
	}
	delete(r.payments, id)
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) List(ctx context.Context, userID uint, filter repository.PaymentListFilter) ([]model.Payment, int64, error) {
	if r.err != nil {
		return nil, 0, r.err
	}
	// Owner scoping through the invoice join is covered by the real
	// implementation; the fake filters on invoice id only.
	var matched []model.Payment
	for id := uint(1); id <= r.nextID; id++ {
		p, ok := r.payments[id]
		if !ok {
			continue
		}
		if filter.InvoiceID != 0 && p.InvoiceID != filter.InvoiceID {
			continue
		}
		matched = append(matched, *p)
	}
	total := int64(len(matched))
	if filter.Skip >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

type fakeUserRepo struct {
	users  map[uint]*model.User
	tokens map[string]*model.RefreshToken
	nextID uint
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uint]*model.User),
		tokens: make(map[string]*model.RefreshToken),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if r.err != nil {
		return r.err
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	if r.err != nil {
		return r.err
	}
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	if r.err != nil {
		return r.err
	}
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) DeleteRefreshTokensForUser(ctx context.Context, userID uint) error {
	if r.err != nil {
		return r.err
	}
	for token, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}
