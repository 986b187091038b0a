package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/auth"
	"github.com/nekogravitycat/car-rental-backend/internal/db"
	"github.com/nekogravitycat/car-rental-backend/internal/user"
)

// These tests run against a real Postgres when TEST_DB_DSN is set.
var (
	testRouter    *gin.Engine
	testPool      *pgxpool.Pool
	testContainer *Container
)

func TestMain(m *testing.M) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		log.Printf("TEST_DB_DSN is not set, skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	if err := db.Migrate(ctx, testPool, zap.NewNop()); err != nil {
		log.Fatalf("Unable to migrate database: %v", err)
	}

	storageDir, err := os.MkdirTemp("", "car-rental-test")
	if err != nil {
		log.Fatalf("Unable to create storage dir: %v", err)
	}

	testContainer, err = NewContainer(Config{
		DBPool:        testPool,
		JWTSecret:     "integration-secret",
		JWTTTL:        30 * time.Minute,
		BcryptCost:    4, // Lower cost for testing purposes
		StoragePath:   storageDir,
		SweepSchedule: "@every 1h",
		SweepTimeout:  10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Unable to build container: %v", err)
	}
	testRouter = testContainer.Router
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()

	testPool.Close()
	_ = os.RemoveAll(storageDir)
	os.Exit(exitCode)
}

func clearTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		"TRUNCATE TABLE public.rentals, public.reservations, public.customers, public.cars, public.users CASCADE")
	require.NoError(t, err)
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func createTestUser(t *testing.T, email string, isAdmin bool) string {
	t.Helper()
	hash, err := auth.NewBcryptHasher(4).Hash("password1")
	require.NoError(t, err)

	u := &user.User{
		Email:         email,
		PasswordHash:  hash,
		DisplayName:   &email,
		IsActive:      true,
		IsSystemAdmin: isAdmin,
	}
	require.NoError(t, user.NewPgxRepository(testPool).Create(context.Background(), u))

	token, err := testContainer.JWTManager.GenerateAccessToken(u.ID, u.Email, isAdmin)
	require.NoError(t, err)
	return token
}

func decodeID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func createCar(t *testing.T, token string) string {
	t.Helper()
	w := executeRequest(http.MethodPost, "/v1/cars", map[string]any{
		"model_name":           "Skoda Octavia",
		"type":                 "CAR",
		"fuel_type":            "DIESEL",
		"gearbox_type":         "MANUAL",
		"ac_type":              "AUTO",
		"number_of_passengers": 5,
		"drive_type":           "FRONT",
		"number_of_airbags":    6,
		"price_per_day":        45.5,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeID(t, w)
}

func createCustomer(t *testing.T, token string) string {
	t.Helper()
	w := executeRequest(http.MethodPost, "/v1/customers", map[string]any{"full_name": "Jane Doe"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeID(t, w)
}

// futureDay returns noon UTC, days after a date one year from now.
func futureDay(days int) time.Time {
	base := time.Now().UTC().AddDate(1, 0, 0).Truncate(24 * time.Hour)
	return base.AddDate(0, 0, days).Add(12 * time.Hour)
}

func TestReservationToRentalFlow(t *testing.T) {
	clearTables(t)
	staff := createTestUser(t, "staff@example.com", false)
	admin := createTestUser(t, "admin@example.com", true)
	carID := createCar(t, staff)
	customerID := createCustomer(t, staff)

	// 1. Reserve
	w := executeRequest(http.MethodPost, "/v1/reservations", map[string]any{
		"car_id": carID, "customer_id": customerID,
		"start_date": futureDay(0), "end_date": futureDay(3),
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reservationID := decodeID(t, w)

	// 2. Overlapping reservation on the same car is rejected
	w = executeRequest(http.MethodPost, "/v1/reservations", map[string]any{
		"car_id": carID, "customer_id": customerID,
		"start_date": futureDay(2), "end_date": futureDay(5),
	}, staff)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// 3. Availability reflects the reservation
	w = executeRequest(http.MethodGet, "/v1/cars/"+carID+"/availability?start="+
		futureDay(1).Format(time.RFC3339)+"&end="+futureDay(2).Format(time.RFC3339), nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"available":false`)

	// 4. Pickup consumes the reservation
	w = executeRequest(http.MethodPost, "/v1/rentals", map[string]any{
		"car_id": carID, "customer_id": customerID, "reservation_id": reservationID,
		"start_date": futureDay(0), "end_date": futureDay(3),
	}, staff)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rentalID := decodeID(t, w)

	w = executeRequest(http.MethodGet, "/v1/reservations/"+reservationID, nil, staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"COLLECTED"`)

	// 5. Cancelling a collected reservation with a running rental fails
	w = executeRequest(http.MethodPost, "/v1/reservations/"+reservationID+"/cancel", nil, staff)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// 6. Return the car, then the rental is final
	w = executeRequest(http.MethodPost, "/v1/rentals/"+rentalID+"/complete", nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = executeRequest(http.MethodPatch, "/v1/rentals/"+rentalID, map[string]any{"end_date": futureDay(4)}, staff)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// 7. Deletes are admin only; cars with bookings are in use
	w = executeRequest(http.MethodDelete, "/v1/rentals/"+rentalID, nil, staff)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = executeRequest(http.MethodDelete, "/v1/cars/"+carID, nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = executeRequest(http.MethodDelete, "/v1/rentals/"+rentalID, nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestConcurrentReservationsOnOneCar(t *testing.T) {
	clearTables(t)
	staff := createTestUser(t, "staff@example.com", false)
	carID := createCar(t, staff)
	customerID := createCustomer(t, staff)

	const workers = 8
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := executeRequest(http.MethodPost, "/v1/reservations", map[string]any{
				"car_id": carID, "customer_id": customerID,
				"start_date": futureDay(10 + i%2), "end_date": futureDay(12),
			}, staff)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created, "the advisory lock admits exactly one overlapping reservation")
}
