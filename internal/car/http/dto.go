package http

import (
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/request"
)

type CarResponse struct {
	ID                 string    `json:"id"`
	ModelName          string    `json:"model_name"`
	Type               string    `json:"type"`
	FuelType           string    `json:"fuel_type"`
	GearboxType        string    `json:"gearbox_type"`
	ACType             string    `json:"ac_type"`
	NumberOfPassengers int       `json:"number_of_passengers"`
	DriveType          string    `json:"drive_type"`
	AverageConsumption *float64  `json:"average_consumption"`
	NumberOfAirbags    int       `json:"number_of_airbags"`
	BootCapacity       *float64  `json:"boot_capacity"`
	PricePerDay        float64   `json:"price_per_day"`
	DepositAmount      *float64  `json:"deposit_amount"`
	MileageLimit       *float64  `json:"mileage_limit"`
	LoadingCapacity    *float64  `json:"loading_capacity,omitempty"`
	BootWidth          *float64  `json:"boot_width,omitempty"`
	BootHeight         *float64  `json:"boot_height,omitempty"`
	BootLength         *float64  `json:"boot_length,omitempty"`
	Horsepower         *int      `json:"horsepower,omitempty"`
	ZeroToHundredTime  *float64  `json:"zero_to_hundred_time,omitempty"`
	EngineCapacity     *float64  `json:"engine_capacity,omitempty"`
	HasPhoto           bool      `json:"has_photo"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewCarResponse(c *car.Car) CarResponse {
	return CarResponse{
		ID:                 c.ID,
		ModelName:          c.ModelName,
		Type:               string(c.Type),
		FuelType:           string(c.FuelType),
		GearboxType:        string(c.GearboxType),
		ACType:             string(c.ACType),
		NumberOfPassengers: c.NumberOfPassengers,
		DriveType:          string(c.DriveType),
		AverageConsumption: c.AverageConsumption,
		NumberOfAirbags:    c.NumberOfAirbags,
		BootCapacity:       c.BootCapacity,
		PricePerDay:        c.PricePerDay,
		DepositAmount:      c.DepositAmount,
		MileageLimit:       c.MileageLimit,
		LoadingCapacity:    c.LoadingCapacity,
		BootWidth:          c.BootWidth,
		BootHeight:         c.BootHeight,
		BootLength:         c.BootLength,
		Horsepower:         c.Horsepower,
		ZeroToHundredTime:  c.ZeroToHundredTime,
		EngineCapacity:     c.EngineCapacity,
		HasPhoto:           c.PhotoKey != nil,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type CreateCarRequest struct {
	ModelName          string   `json:"model_name" binding:"required"`
	Type               string   `json:"type" binding:"required,oneof=CAR TRUCK SPORT"`
	FuelType           string   `json:"fuel_type" binding:"required,oneof=PETROL DIESEL HYBRID EV"`
	GearboxType        string   `json:"gearbox_type" binding:"required,oneof=AUTO MANUAL"`
	ACType             string   `json:"ac_type" binding:"required,oneof=AUTO MANUAL"`
	NumberOfPassengers int      `json:"number_of_passengers" binding:"required,min=1"`
	DriveType          string   `json:"drive_type" binding:"required,oneof=FRONT REAR ALL_WHEELS"`
	AverageConsumption *float64 `json:"average_consumption" binding:"omitempty,min=0"`
	NumberOfAirbags    int      `json:"number_of_airbags" binding:"min=0"`
	BootCapacity       *float64 `json:"boot_capacity" binding:"omitempty,min=0"`
	PricePerDay        float64  `json:"price_per_day" binding:"min=0"`
	DepositAmount      *float64 `json:"deposit_amount" binding:"omitempty,min=0"`
	MileageLimit       *float64 `json:"mileage_limit" binding:"omitempty,min=0"`
	LoadingCapacity    *float64 `json:"loading_capacity" binding:"omitempty,min=0"`
	BootWidth          *float64 `json:"boot_width" binding:"omitempty,min=0"`
	BootHeight         *float64 `json:"boot_height" binding:"omitempty,min=0"`
	BootLength         *float64 `json:"boot_length" binding:"omitempty,min=0"`
	Horsepower         *int     `json:"horsepower" binding:"omitempty,min=0"`
	ZeroToHundredTime  *float64 `json:"zero_to_hundred_time" binding:"omitempty,min=0"`
	EngineCapacity     *float64 `json:"engine_capacity" binding:"omitempty,min=0"`
}

func (r CreateCarRequest) toServiceRequest() car.CreateRequest {
	return car.CreateRequest{
		ModelName:          r.ModelName,
		Type:               car.Type(r.Type),
		FuelType:           car.FuelType(r.FuelType),
		GearboxType:        car.GearboxType(r.GearboxType),
		ACType:             car.ACType(r.ACType),
		NumberOfPassengers: r.NumberOfPassengers,
		DriveType:          car.DriveType(r.DriveType),
		AverageConsumption: r.AverageConsumption,
		NumberOfAirbags:    r.NumberOfAirbags,
		BootCapacity:       r.BootCapacity,
		PricePerDay:        r.PricePerDay,
		DepositAmount:      r.DepositAmount,
		MileageLimit:       r.MileageLimit,
		LoadingCapacity:    r.LoadingCapacity,
		BootWidth:          r.BootWidth,
		BootHeight:         r.BootHeight,
		BootLength:         r.BootLength,
		Horsepower:         r.Horsepower,
		ZeroToHundredTime:  r.ZeroToHundredTime,
		EngineCapacity:     r.EngineCapacity,
	}
}

type UpdateCarRequest struct {
	ModelName          *string  `json:"model_name" binding:"omitempty,min=1"`
	Type               *string  `json:"type" binding:"omitempty,oneof=CAR TRUCK SPORT"`
	FuelType           *string  `json:"fuel_type" binding:"omitempty,oneof=PETROL DIESEL HYBRID EV"`
	GearboxType        *string  `json:"gearbox_type" binding:"omitempty,oneof=AUTO MANUAL"`
	ACType             *string  `json:"ac_type" binding:"omitempty,oneof=AUTO MANUAL"`
	NumberOfPassengers *int     `json:"number_of_passengers" binding:"omitempty,min=1"`
	DriveType          *string  `json:"drive_type" binding:"omitempty,oneof=FRONT REAR ALL_WHEELS"`
	AverageConsumption *float64 `json:"average_consumption" binding:"omitempty,min=0"`
	NumberOfAirbags    *int     `json:"number_of_airbags" binding:"omitempty,min=0"`
	BootCapacity       *float64 `json:"boot_capacity" binding:"omitempty,min=0"`
	PricePerDay        *float64 `json:"price_per_day" binding:"omitempty,min=0"`
	DepositAmount      *float64 `json:"deposit_amount" binding:"omitempty,min=0"`
	MileageLimit       *float64 `json:"mileage_limit" binding:"omitempty,min=0"`
	LoadingCapacity    *float64 `json:"loading_capacity" binding:"omitempty,min=0"`
	BootWidth          *float64 `json:"boot_width" binding:"omitempty,min=0"`
	BootHeight         *float64 `json:"boot_height" binding:"omitempty,min=0"`
	BootLength         *float64 `json:"boot_length" binding:"omitempty,min=0"`
	Horsepower         *int     `json:"horsepower" binding:"omitempty,min=0"`
	ZeroToHundredTime  *float64 `json:"zero_to_hundred_time" binding:"omitempty,min=0"`
	EngineCapacity     *float64 `json:"engine_capacity" binding:"omitempty,min=0"`
}

func enumPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

func (r UpdateCarRequest) toServiceRequest() car.UpdateRequest {
	return car.UpdateRequest{
		ModelName:          r.ModelName,
		Type:               enumPtr[car.Type](r.Type),
		FuelType:           enumPtr[car.FuelType](r.FuelType),
		GearboxType:        enumPtr[car.GearboxType](r.GearboxType),
		ACType:             enumPtr[car.ACType](r.ACType),
		NumberOfPassengers: r.NumberOfPassengers,
		DriveType:          enumPtr[car.DriveType](r.DriveType),
		AverageConsumption: r.AverageConsumption,
		NumberOfAirbags:    r.NumberOfAirbags,
		BootCapacity:       r.BootCapacity,
		PricePerDay:        r.PricePerDay,
		DepositAmount:      r.DepositAmount,
		MileageLimit:       r.MileageLimit,
		LoadingCapacity:    r.LoadingCapacity,
		BootWidth:          r.BootWidth,
		BootHeight:         r.BootHeight,
		BootLength:         r.BootLength,
		Horsepower:         r.Horsepower,
		ZeroToHundredTime:  r.ZeroToHundredTime,
		EngineCapacity:     r.EngineCapacity,
	}
}

// ListCarsRequest is the car search query. AvailableFrom/AvailableTo, when
// both are set, keep only cars free for the whole window.
type ListCarsRequest struct {
	request.ListParams
	ModelName     string    `form:"model_name"`
	Type          string    `form:"type" binding:"omitempty,oneof=CAR TRUCK SPORT"`
	FuelType      string    `form:"fuel_type" binding:"omitempty,oneof=PETROL DIESEL HYBRID EV"`
	GearboxType   string    `form:"gearbox_type" binding:"omitempty,oneof=AUTO MANUAL"`
	ACType        string    `form:"ac_type" binding:"omitempty,oneof=AUTO MANUAL"`
	DriveType     string    `form:"drive_type" binding:"omitempty,oneof=FRONT REAR ALL_WHEELS"`
	PassengersMin *int      `form:"passengers_min" binding:"omitempty,min=1"`
	PassengersMax *int      `form:"passengers_max" binding:"omitempty,min=1"`
	PriceMin      *float64  `form:"price_min" binding:"omitempty,min=0"`
	PriceMax      *float64  `form:"price_max" binding:"omitempty,min=0"`
	AvailableFrom time.Time `form:"available_from" time_format:"2006-01-02T15:04:05Z07:00"`
	AvailableTo   time.Time `form:"available_to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string    `form:"sort_by" binding:"omitempty,oneof=model_name price_per_day number_of_passengers created_at"`
}

func (r ListCarsRequest) filter() car.Filter {
	return car.Filter{
		ModelName:     r.ModelName,
		Type:          car.Type(r.Type),
		FuelType:      car.FuelType(r.FuelType),
		GearboxType:   car.GearboxType(r.GearboxType),
		ACType:        car.ACType(r.ACType),
		DriveType:     car.DriveType(r.DriveType),
		PassengersMin: r.PassengersMin,
		PassengersMax: r.PassengersMax,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		Page:          r.Page,
		PageSize:      r.PageSize,
		SortBy:        r.SortBy,
		SortOrder:     r.SortOrder,
	}
}

type AvailabilityRequest struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityResponse struct {
	CarID     string    `json:"car_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
