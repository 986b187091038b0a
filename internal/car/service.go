package car

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/pkg/storage"
)

type CreateRequest struct {
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
	LoadingCapacity    *float64
	BootWidth          *float64
	BootHeight         *float64
	BootLength         *float64
	Horsepower         *int
	ZeroToHundredTime  *float64
	EngineCapacity     *float64
}

// UpdateRequest changes only the non-nil fields.
type UpdateRequest struct {
	ModelName          *string
	Type               *Type
	FuelType           *FuelType
	GearboxType        *GearboxType
	ACType             *ACType
	NumberOfPassengers *int
	DriveType          *DriveType
	AverageConsumption *float64
	NumberOfAirbags    *int
	BootCapacity       *float64
	PricePerDay        *float64
	DepositAmount      *float64
	MileageLimit       *float64
	LoadingCapacity    *float64
	BootWidth          *float64
	BootHeight         *float64
	BootLength         *float64
	Horsepower         *int
	ZeroToHundredTime  *float64
	EngineCapacity     *float64
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Car, error)
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Car, error)
	Delete(ctx context.Context, id string) error
	SetPhoto(ctx context.Context, id string, content io.Reader) (*Car, error)
	Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	log     *zap.Logger
}

func NewService(repo Repository, store storage.Storage, log *zap.Logger) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		log:     log.Named("cars"),
	}
}

func validate(c *Car) error {
	switch {
	case strings.TrimSpace(c.ModelName) == "":
		return ErrEmptyModelName
	case !c.Type.Valid():
		return ErrInvalidType
	case !c.FuelType.Valid():
		return ErrInvalidFuelType
	case !c.GearboxType.Valid():
		return ErrInvalidGearbox
	case !c.ACType.Valid():
		return ErrInvalidACType
	case !c.DriveType.Valid():
		return ErrInvalidDriveType
	case c.NumberOfPassengers <= 0:
		return ErrInvalidPassenger
	case c.NumberOfAirbags < 0:
		return ErrInvalidAirbags
	case c.PricePerDay < 0:
		return ErrInvalidPrice
	}
	return nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Car, error) {
	c := &Car{
		ModelName:          strings.TrimSpace(req.ModelName),
		Type:               req.Type,
		FuelType:           req.FuelType,
		GearboxType:        req.GearboxType,
		ACType:             req.ACType,
		NumberOfPassengers: req.NumberOfPassengers,
		DriveType:          req.DriveType,
		AverageConsumption: req.AverageConsumption,
		NumberOfAirbags:    req.NumberOfAirbags,
		BootCapacity:       req.BootCapacity,
		PricePerDay:        req.PricePerDay,
		DepositAmount:      req.DepositAmount,
		MileageLimit:       req.MileageLimit,
		LoadingCapacity:    req.LoadingCapacity,
		BootWidth:          req.BootWidth,
		BootHeight:         req.BootHeight,
		BootLength:         req.BootLength,
		Horsepower:         req.Horsepower,
		ZeroToHundredTime:  req.ZeroToHundredTime,
		EngineCapacity:     req.EngineCapacity,
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Car, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ModelName != nil {
		c.ModelName = strings.TrimSpace(*req.ModelName)
	}
	setIf(&c.Type, req.Type)
	setIf(&c.FuelType, req.FuelType)
	setIf(&c.GearboxType, req.GearboxType)
	setIf(&c.ACType, req.ACType)
	setIf(&c.NumberOfPassengers, req.NumberOfPassengers)
	setIf(&c.DriveType, req.DriveType)
	setIf(&c.NumberOfAirbags, req.NumberOfAirbags)
	setIf(&c.PricePerDay, req.PricePerDay)
	setOptional(&c.AverageConsumption, req.AverageConsumption)
	setOptional(&c.BootCapacity, req.BootCapacity)
	setOptional(&c.DepositAmount, req.DepositAmount)
	setOptional(&c.MileageLimit, req.MileageLimit)
	setOptional(&c.LoadingCapacity, req.LoadingCapacity)
	setOptional(&c.BootWidth, req.BootWidth)
	setOptional(&c.BootHeight, req.BootHeight)
	setOptional(&c.BootLength, req.BootLength)
	setOptional(&c.Horsepower, req.Horsepower)
	setOptional(&c.ZeroToHundredTime, req.ZeroToHundredTime)
	setOptional(&c.EngineCapacity, req.EngineCapacity)

	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setOptional[T any](dst **T, v *T) {
	if v != nil {
		val := *v
		*dst = &val
	}
}

func (s *service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeObjects(ctx, c.PhotoKey, c.ThumbnailKey)
	return nil
}

// SetPhoto replaces the car photo. The upload is normalised to a JPEG that
// fits 1280x960, and a 200x200 thumbnail is stored next to it.
func (s *service) SetPhoto(ctx context.Context, id string, content io.Reader) (*Car, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	processed, err := s.imgProc.Process(content)
	if err != nil {
		if errors.Is(err, storage.ErrNotAnImage) {
			return nil, ErrInvalidPhoto
		}
		return nil, fmt.Errorf("process car photo: %w", err)
	}

	// Sharding path: cars/<car id>/<photo id>.jpg
	photoID := uuid.NewString()
	photoKey := fmt.Sprintf("cars/%s/%s.jpg", c.ID, photoID)
	thumbKey := fmt.Sprintf("cars/%s/%s_thumb.jpg", c.ID, photoID)

	if err := s.storage.Save(ctx, photoKey, bytes.NewReader(processed.Photo)); err != nil {
		return nil, fmt.Errorf("save car photo: %w", err)
	}
	if err := s.storage.Save(ctx, thumbKey, bytes.NewReader(processed.Thumbnail)); err != nil {
		s.removeObjects(ctx, &photoKey)
		return nil, fmt.Errorf("save car thumbnail: %w", err)
	}

	if err := s.repo.UpdatePhoto(ctx, c.ID, &photoKey, &thumbKey); err != nil {
		s.removeObjects(ctx, &photoKey, &thumbKey)
		return nil, err
	}

	s.removeObjects(ctx, c.PhotoKey, c.ThumbnailKey)
	c.PhotoKey, c.ThumbnailKey = &photoKey, &thumbKey
	return c, nil
}

func (s *service) Photo(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := c.PhotoKey
	if thumbnail {
		key = c.ThumbnailKey
	}
	if key == nil {
		return nil, ErrNoPhoto
	}

	rc, err := s.storage.Get(ctx, *key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNoPhoto
		}
		return nil, fmt.Errorf("open car photo: %w", err)
	}
	return rc, nil
}

// removeObjects deletes stored files that are no longer referenced.
// Failures only leave orphans behind, so they are logged.
func (s *service) removeObjects(ctx context.Context, keys ...*string) {
	for _, key := range keys {
		if key == nil {
			continue
		}
		if err := s.storage.Delete(ctx, *key); err != nil {
			s.log.Warn("remove car photo object failed", zap.String("key", *key), zap.Error(err))
		}
	}
}
