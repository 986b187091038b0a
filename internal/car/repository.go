package car

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/car-rental-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, c *Car) error
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Update(ctx context.Context, c *Car) error
	UpdatePhoto(ctx context.Context, id string, photoKey, thumbnailKey *string) error
	Delete(ctx context.Context, id string) error
}

const table = "public.cars"

var columns = []string{
	"id", "model_name", "type", "fuel_type", "gearbox_type", "ac_type",
	"number_of_passengers", "drive_type", "average_consumption", "number_of_airbags",
	"boot_capacity", "price_per_day", "deposit_amount", "mileage_limit",
	"loading_capacity", "boot_width", "boot_height", "boot_length",
	"horsepower", "zero_to_hundred_time", "engine_capacity",
	"photo_key", "thumbnail_key", "created_at", "updated_at",
}

var sortableColumns = map[string]bool{
	"model_name":           true,
	"price_per_day":        true,
	"number_of_passengers": true,
	"created_at":           true,
}

type pgxRepository struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCar(row pgx.Row, extra ...any) (*Car, error) {
	var c Car
	dest := append([]any{
		&c.ID, &c.ModelName, &c.Type, &c.FuelType, &c.GearboxType, &c.ACType,
		&c.NumberOfPassengers, &c.DriveType, &c.AverageConsumption, &c.NumberOfAirbags,
		&c.BootCapacity, &c.PricePerDay, &c.DepositAmount, &c.MileageLimit,
		&c.LoadingCapacity, &c.BootWidth, &c.BootHeight, &c.BootLength,
		&c.Horsepower, &c.ZeroToHundredTime, &c.EngineCapacity,
		&c.PhotoKey, &c.ThumbnailKey, &c.CreatedAt, &c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &c, nil
}

// attributes maps every writable column except the photo keys.
func attributes(c *Car) map[string]any {
	return map[string]any{
		"model_name":           c.ModelName,
		"type":                 c.Type,
		"fuel_type":            c.FuelType,
		"gearbox_type":         c.GearboxType,
		"ac_type":              c.ACType,
		"number_of_passengers": c.NumberOfPassengers,
		"drive_type":           c.DriveType,
		"average_consumption":  c.AverageConsumption,
		"number_of_airbags":    c.NumberOfAirbags,
		"boot_capacity":        c.BootCapacity,
		"price_per_day":        c.PricePerDay,
		"deposit_amount":       c.DepositAmount,
		"mileage_limit":        c.MileageLimit,
		"loading_capacity":     c.LoadingCapacity,
		"boot_width":           c.BootWidth,
		"boot_height":          c.BootHeight,
		"boot_length":          c.BootLength,
		"horsepower":           c.Horsepower,
		"zero_to_hundred_time": c.ZeroToHundredTime,
		"engine_capacity":      c.EngineCapacity,
	}
}

func (r *pgxRepository) Create(ctx context.Context, c *Car) error {
	query, args, err := r.sb.Insert(table).
		SetMap(attributes(c)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create car query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create car failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Car, error) {
	query, args, err := r.sb.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get car query failed: %w", err)
	}

	c, err := scanCar(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get car failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	query := r.sb.Select(append(columns, "count(*) OVER() AS total_count")...).
		From(table)

	if filter.ModelName != "" {
		query = query.Where(squirrel.ILike{"model_name": "%" + filter.ModelName + "%"})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.FuelType != "" {
		query = query.Where(squirrel.Eq{"fuel_type": filter.FuelType})
	}
	if filter.GearboxType != "" {
		query = query.Where(squirrel.Eq{"gearbox_type": filter.GearboxType})
	}
	if filter.ACType != "" {
		query = query.Where(squirrel.Eq{"ac_type": filter.ACType})
	}
	if filter.DriveType != "" {
		query = query.Where(squirrel.Eq{"drive_type": filter.DriveType})
	}
	if filter.PassengersMin != nil {
		query = query.Where(squirrel.GtOrEq{"number_of_passengers": *filter.PassengersMin})
	}
	if filter.PassengersMax != nil {
		query = query.Where(squirrel.LtOrEq{"number_of_passengers": *filter.PassengersMax})
	}
	if filter.PriceMin != nil {
		query = query.Where(squirrel.GtOrEq{"price_per_day": *filter.PriceMin})
	}
	if filter.PriceMax != nil {
		query = query.Where(squirrel.LtOrEq{"price_per_day": *filter.PriceMax})
	}

	sortBy := "created_at"
	if sortableColumns[filter.SortBy] {
		sortBy = filter.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		sortOrder = "ASC"
	}
	query = query.OrderBy(sortBy+" "+sortOrder, "id "+sortOrder)

	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list cars query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cars failed: %w", err)
	}
	defer rows.Close()

	var (
		result []*Car
		total  int
	)
	for rows.Next() {
		c, err := scanCar(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan car failed: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate cars failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Car) error {
	query, args, err := r.sb.Update(table).
		SetMap(attributes(c)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update car query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update car failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdatePhoto(ctx context.Context, id string, photoKey, thumbnailKey *string) error {
	query, args, err := r.sb.Update(table).
		Set("photo_key", photoKey).
		Set("thumbnail_key", thumbnailKey).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update car photo query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update car photo failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.sb.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete car query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrInUse
		}
		return fmt.Errorf("delete car failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
