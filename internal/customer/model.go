package customer

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "customer not found")
	ErrEmptyFullName = apperror.New(http.StatusBadRequest, "full name cannot be empty")
	ErrInUse         = apperror.New(http.StatusConflict, "customer has reservations or rentals")
)

// Customer is the person a car is reserved for or rented to.
type Customer struct {
	ID          string
	FullName    string
	Address     *string
	PhoneNumber *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter defines parameters for listing customers.
type Filter struct {
	FullName  string // case-insensitive substring
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
