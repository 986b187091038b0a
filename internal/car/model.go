package car

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "car not found")
	ErrEmptyModelName   = apperror.New(http.StatusBadRequest, "model name cannot be empty")
	ErrInvalidType      = apperror.New(http.StatusBadRequest, "invalid car type")
	ErrInvalidFuelType  = apperror.New(http.StatusBadRequest, "invalid fuel type")
	ErrInvalidGearbox   = apperror.New(http.StatusBadRequest, "invalid gearbox type")
	ErrInvalidACType    = apperror.New(http.StatusBadRequest, "invalid ac type")
	ErrInvalidDriveType = apperror.New(http.StatusBadRequest, "invalid drive type")
	ErrInvalidPassenger = apperror.New(http.StatusBadRequest, "number of passengers must be positive")
	ErrInvalidPrice     = apperror.New(http.StatusBadRequest, "price per day cannot be negative")
	ErrInvalidAirbags   = apperror.New(http.StatusBadRequest, "number of airbags cannot be negative")
	ErrInUse            = apperror.New(http.StatusConflict, "car has reservations or rentals")
	ErrNoPhoto          = apperror.New(http.StatusNotFound, "car has no photo")
	ErrInvalidPhoto     = apperror.New(http.StatusBadRequest, "uploaded file is not a supported image")
)

type Type string

const (
	TypeCar   Type = "CAR"
	TypeTruck Type = "TRUCK"
	TypeSport Type = "SPORT"
)

type FuelType string

const (
	FuelPetrol FuelType = "PETROL"
	FuelDiesel FuelType = "DIESEL"
	FuelHybrid FuelType = "HYBRID"
	FuelEV     FuelType = "EV"
)

type GearboxType string

const (
	GearboxAuto   GearboxType = "AUTO"
	GearboxManual GearboxType = "MANUAL"
)

type ACType string

const (
	ACAuto   ACType = "AUTO"
	ACManual ACType = "MANUAL"
)

type DriveType string

const (
	DriveFront     DriveType = "FRONT"
	DriveRear      DriveType = "REAR"
	DriveAllWheels DriveType = "ALL_WHEELS"
)

func (t Type) Valid() bool {
	return t == TypeCar || t == TypeTruck || t == TypeSport
}

func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelHybrid, FuelEV:
		return true
	}
	return false
}

func (g GearboxType) Valid() bool { return g == GearboxAuto || g == GearboxManual }

func (a ACType) Valid() bool { return a == ACAuto || a == ACManual }

func (d DriveType) Valid() bool {
	return d == DriveFront || d == DriveRear || d == DriveAllWheels
}

// Car is a rentable vehicle. The truck and sports fields are only filled in
// for cars of that type.
type Car struct {
	ID                 string
	ModelName          string
	Type               Type
	FuelType           FuelType
	GearboxType        GearboxType
	ACType             ACType
	NumberOfPassengers int
	DriveType          DriveType
	AverageConsumption *float64
	NumberOfAirbags    int
	BootCapacity       *float64
	PricePerDay        float64
	DepositAmount      *float64
	MileageLimit       *float64

	// Truck
	LoadingCapacity *float64
	BootWidth       *float64
	BootHeight      *float64
	BootLength      *float64

	// Sports car
	Horsepower        *int
	ZeroToHundredTime *float64
	EngineCapacity    *float64

	PhotoKey     *string
	ThumbnailKey *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter defines parameters for searching cars.
// ModelName is a case-insensitive substring match. Ranges are inclusive.
type Filter struct {
	ModelName     string
	Type          Type
	FuelType      FuelType
	GearboxType   GearboxType
	ACType        ACType
	DriveType     DriveType
	PassengersMin *int
	PassengersMax *int
	PriceMin      *float64
	PriceMax      *float64
	Page          int
	PageSize      int // 0 returns every match
	SortBy        string
	SortOrder     string
}
