package http

import (
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/customer"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/request"
)

type CustomerResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Address     *string   `json:"address"`
	PhoneNumber *string   `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		FullName:    c.FullName,
		Address:     c.Address,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type CreateCustomerRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=32"`
}

type UpdateCustomerRequest struct {
	FullName    *string `json:"full_name" binding:"omitempty,min=1"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=32"`
}

type ListCustomersRequest struct {
	request.ListParams
	FullName string `form:"full_name"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=full_name created_at"`
}
