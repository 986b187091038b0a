package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/api"
	"github.com/nekogravitycat/car-rental-backend/internal/auth"
	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/customer"
	"github.com/nekogravitycat/car-rental-backend/internal/db"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/storage"
	"github.com/nekogravitycat/car-rental-backend/internal/scheduler"
	"github.com/nekogravitycat/car-rental-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	StoragePath  string

	SweepSchedule string
	SweepTimeout  time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Scheduler  *scheduler.Scheduler
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := booking.SystemClock{}

	// Init Components
	passwordHasher := auth.NewBcryptHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, log)

	// Car Module
	carRepo := car.NewPgxRepository(cfg.DBPool)
	carService := car.NewService(carRepo, store, log)

	// Customer Module
	customerRepo := customer.NewPgxRepository(cfg.DBPool)
	customerService := customer.NewService(customerRepo)

	// Booking Module
	reservationRepo := booking.NewPgxReservationRepository(cfg.DBPool)
	rentalRepo := booking.NewPgxRentalRepository(cfg.DBPool)
	deps := booking.Deps{
		Reservations: reservationRepo,
		Rentals:      rentalRepo,
		Cars:         carService,
		Customers:    customerService,
		Locker:       db.NewAdvisoryLocker(cfg.DBPool),
		Clock:        clock,
		Logger:       log,
	}
	reservationService := booking.NewReservationService(deps)
	rentalService := booking.NewRentalService(deps, reservationService)
	availability := booking.NewAvailabilityChecker(reservationRepo, rentalRepo)

	// Missed-reservation sweep
	sched, err := scheduler.New(scheduler.Config{
		Schedule: cfg.SweepSchedule,
		Timeout:  cfg.SweepTimeout,
	}, reservationService, clock, log)
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              log,
		UserService:         userService,
		CarService:          carService,
		CustomerService:     customerService,
		ReservationService:  reservationService,
		RentalService:       rentalService,
		AvailabilityChecker: availability,
		Clock:               clock,
		JWTManager:          jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Scheduler:  sched,
	}, nil
}
