package customer

import (
	"context"
	"strings"
)

type CreateRequest struct {
	FullName    string
	Address     *string
	PhoneNumber *string
}

type UpdateRequest struct {
	FullName    *string
	Address     *string
	PhoneNumber *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, filter Filter) ([]*Customer, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Customer, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return nil, ErrEmptyFullName
	}

	c := &Customer{
		FullName:    name,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Customer, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, ErrEmptyFullName
		}
		c.FullName = name
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.PhoneNumber != nil {
		c.PhoneNumber = req.PhoneNumber
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
