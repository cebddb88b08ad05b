package service

import (
	"context"
	"regexp"
	"time"

	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/pkg/apperr"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DTOs

type CreateClientRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	TaxID      string `json:"tax_id"`
	Notes      string `json:"notes"`
}

// UpdateClientRequest carries partial updates; nil fields are left untouched.
type UpdateClientRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
	TaxID      *string `json:"tax_id"`
	Notes      *string `json:"notes"`
	IsActive   *bool   `json:"is_active"`
}

type ClientResponse struct {
	ID         uint   `json:"id"`
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	TaxID      string `json:"tax_id"`
	Notes      string `json:"notes"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ClientService defines the business logic over a user's client directory
type ClientService interface {
	CreateClient(ctx context.Context, userID uint, req CreateClientRequest) (*ClientResponse, error)
	GetClient(ctx context.Context, userID, id uint) (*ClientResponse, error)
	ListClients(ctx context.Context, userID uint, skip, limit int) ([]ClientResponse, int64, error)
	UpdateClient(ctx context.Context, userID, id uint, req UpdateClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, userID, id uint) error
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func mapClientResponse(client *model.Client) *ClientResponse {
	return &ClientResponse{
		ID:         client.ID,
		UserID:     client.UserID,
		Name:       client.Name,
		Email:      client.Email,
		Phone:      client.Phone,
		Address:    client.Address,
		City:       client.City,
		State:      client.State,
		PostalCode: client.PostalCode,
		Country:    client.Country,
		TaxID:      client.TaxID,
		Notes:      client.Notes,
		IsActive:   client.IsActive,
		CreatedAt:  client.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  client.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *clientService) CreateClient(ctx context.Context, userID uint, req CreateClientRequest) (*ClientResponse, error) {
	verr := apperr.NewValidation()
	if req.Name == "" {
		verr.Add("name", "must not be empty")
	}
	if req.Email == "" {
		verr.Add("email", "must not be empty")
	} else if !emailRegex.MatchString(req.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	client := &model.Client{
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		TaxID:      req.TaxID,
		Notes:      req.Notes,
		IsActive:   true,
	}

	if err := s.repo.Create(ctx, client); err != nil {
		return nil, apperr.NewTransport("create client", err)
	}

	return mapClientResponse(client), nil
}

func (s *clientService) GetClient(ctx context.Context, userID, id uint) (*ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError("get client", "client", err)
	}
	return mapClientResponse(client), nil
}

func (s *clientService) ListClients(ctx context.Context, userID uint, skip, limit int) ([]ClientResponse, int64, error) {
	clients, total, err := s.repo.List(ctx, userID, skip, limit)
	if err != nil {
		return nil, 0, apperr.NewTransport("list clients", err)
	}

	responses := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		responses = append(responses, *mapClientResponse(&clients[i]))
	}
	return responses, total, nil
}

func (s *clientService) UpdateClient(ctx context.Context, userID, id uint, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, repoError("get client", "client", err)
	}

	verr := apperr.NewValidation()
	if req.Name != nil {
		if *req.Name == "" {
			verr.Add("name", "must not be empty")
		} else {
			client.Name = *req.Name
		}
	}
	if req.Email != nil {
		if !emailRegex.MatchString(*req.Email) {
			verr.Add("email", "must be a valid email address")
		} else {
			client.Email = *req.Email
		}
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.City != nil {
		client.City = *req.City
	}
	if req.State != nil {
		client.State = *req.State
	}
	if req.PostalCode != nil {
		client.PostalCode = *req.PostalCode
	}
	if req.Country != nil {
		client.Country = *req.Country
	}
	if req.TaxID != nil {
		client.TaxID = *req.TaxID
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, apperr.NewTransport("update client", err)
	}

	return mapClientResponse(client), nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, id uint) error {
	if _, err := s.repo.FindByID(ctx, userID, id); err != nil {
		return repoError("get client", "client", err)
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return apperr.NewTransport("delete client", err)
	}
	return nil
}
