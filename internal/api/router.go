package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/auth"
	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/car-rental-backend/internal/booking/http"
	"github.com/nekogravitycat/car-rental-backend/internal/car"
	carHttp "github.com/nekogravitycat/car-rental-backend/internal/car/http"
	"github.com/nekogravitycat/car-rental-backend/internal/customer"
	customerHttp "github.com/nekogravitycat/car-rental-backend/internal/customer/http"
	"github.com/nekogravitycat/car-rental-backend/internal/user"
	userHttp "github.com/nekogravitycat/car-rental-backend/internal/user/http"
)

// Config holds everything the router needs to wire the HTTP layer.
type Config struct {
	IsProduction bool
	ProdOrigins  string // comma separated
	Logger       *zap.Logger

	UserService         user.Service
	CarService          car.Service
	CustomerService     customer.Service
	ReservationService  booking.ReservationService
	RentalService       booking.RentalService
	AvailabilityChecker *booking.AvailabilityChecker
	Clock               booking.Clock

	JWTManager *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, logging, auth) and registers the routes of every module.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")

	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))
	r.Use(cors.New(corsConfig(cfg.IsProduction, cfg.ProdOrigins)))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: Further checks that the token carries the admin flag.
	adminMiddleware := auth.RequireAdmin()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	carHandler := carHttp.NewHandler(cfg.CarService, cfg.AvailabilityChecker)
	customerHandler := customerHttp.NewHandler(cfg.CustomerService)
	bookingHandler := bookingHttp.NewHandler(cfg.ReservationService, cfg.RentalService, cfg.Clock)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		carHttp.RegisterRoutes(v1, carHandler, authMiddleware, adminMiddleware)
		customerHttp.RegisterRoutes(v1, customerHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware)
	}

	return r
}

func corsConfig(isProduction bool, prodOrigins string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	if !isProduction {
		config.AllowOrigins = []string{
			"http://localhost:3000", // Frontend dev server
			"http://localhost:8081", // Swagger
		}
		return config
	}

	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	config.AllowOrigins = origins
	return config
}
