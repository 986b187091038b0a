package booking

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

// ReservationRepository is plain persistence: no validation happens here.
type ReservationRepository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]*Reservation, int, error)
	Update(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id string) error
}

// RentalRepository is plain persistence: no validation happens here.
type RentalRepository interface {
	Create(ctx context.Context, r *Rental) error
	GetByID(ctx context.Context, id string) (*Rental, error)
	List(ctx context.Context, filter RentalFilter) ([]*Rental, int, error)
	Update(ctx context.Context, r *Rental) error
	Delete(ctx context.Context, id string) error
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var sortableColumns = map[string]bool{
	"start_date": true,
	"end_date":   true,
	"created_at": true,
	"status":     true,
}

// orderClause whitelists the column and direction before they reach SQL.
func orderClause(sortBy, sortOrder string) string {
	col := "created_at"
	if sortableColumns[sortBy] {
		col = sortBy
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "ASC") {
		dir = "ASC"
	}
	return col + " " + dir + ", id " + dir
}

// mapFKViolation turns a foreign key failure on car_id/customer_id/reservation_id
// into the matching not-found error.
func mapFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "car_id"):
		return ErrCarNotFound
	case strings.Contains(pgErr.ConstraintName, "customer_id"):
		return ErrCustomerNotFound
	case strings.Contains(pgErr.ConstraintName, "reservation_id"):
		return ErrReservationNotFound
	}
	return err
}

// === Reservations ===

const reservationsTable = "public.reservations"

var reservationColumns = []string{
	"id", "car_id", "customer_id", "start_date", "end_date", "status", "created_at", "updated_at",
}

type pgxReservationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &pgxReservationRepository{pool: pool}
}

func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var r Reservation
	dest := append([]any{
		&r.ID, &r.CarID, &r.CustomerID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (repo *pgxReservationRepository) Create(ctx context.Context, r *Reservation) error {
	query, args, err := psql.Insert(reservationsTable).
		Columns("car_id", "customer_id", "start_date", "end_date", "status").
		Values(r.CarID, r.CustomerID, r.StartDate, r.EndDate, r.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if mapped := mapFKViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create reservation failed: %w", err)
	}
	return nil
}

func (repo *pgxReservationRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).
		From(reservationsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	r, err := scanReservation(db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return r, nil
}

func (repo *pgxReservationRepository) List(ctx context.Context, filter ReservationFilter) ([]*Reservation, int, error) {
	query := psql.Select(append(reservationColumns, "count(*) OVER() AS total_count")...).
		From(reservationsTable)

	if filter.CarID != "" {
		query = query.Where(squirrel.Eq{"car_id": filter.CarID})
	}
	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}
	if len(filter.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if filter.ExcludeID != "" {
		query = query.Where(squirrel.NotEq{"id": filter.ExcludeID})
	}
	if filter.StartBefore != nil {
		query = query.Where(squirrel.Lt{"start_date": *filter.StartBefore})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"end_date": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"start_date": *filter.To})
	}

	query = query.OrderBy(orderClause(filter.SortBy, filter.SortOrder))
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := db.Conn(ctx, repo.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Reservation
		total int
	)
	for rows.Next() {
		r, err := scanReservation(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return items, total, nil
}

func (repo *pgxReservationRepository) Update(ctx context.Context, r *Reservation) error {
	query, args, err := psql.Update(reservationsTable).
		Set("car_id", r.CarID).
		Set("customer_id", r.CustomerID).
		Set("start_date", r.StartDate).
		Set("end_date", r.EndDate).
		Set("status", r.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": r.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).Scan(&r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReservationNotFound
		}
		if mapped := mapFKViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update reservation failed: %w", err)
	}
	return nil
}

func (repo *pgxReservationRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(reservationsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := db.Conn(ctx, repo.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// === Rentals ===

const rentalsTable = "public.rentals"

var rentalColumns = []string{
	"id", "car_id", "customer_id", "reservation_id", "start_date", "end_date", "status", "created_at", "updated_at",
}

type pgxRentalRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRentalRepository(pool *pgxpool.Pool) RentalRepository {
	return &pgxRentalRepository{pool: pool}
}

func scanRental(row pgx.Row, extra ...any) (*Rental, error) {
	var r Rental
	dest := append([]any{
		&r.ID, &r.CarID, &r.CustomerID, &r.ReservationID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (repo *pgxRentalRepository) Create(ctx context.Context, r *Rental) error {
	query, args, err := psql.Insert(rentalsTable).
		Columns("car_id", "customer_id", "reservation_id", "start_date", "end_date", "status").
		Values(r.CarID, r.CustomerID, r.ReservationID, r.StartDate, r.EndDate, r.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create rental query failed: %w", err)
	}

	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if mapped := mapFKViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create rental failed: %w", err)
	}
	return nil
}

func (repo *pgxRentalRepository) GetByID(ctx context.Context, id string) (*Rental, error) {
	query, args, err := psql.Select(rentalColumns...).
		From(rentalsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get rental query failed: %w", err)
	}

	r, err := scanRental(db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("get rental failed: %w", err)
	}
	return r, nil
}

func (repo *pgxRentalRepository) List(ctx context.Context, filter RentalFilter) ([]*Rental, int, error) {
	query := psql.Select(append(rentalColumns, "count(*) OVER() AS total_count")...).
		From(rentalsTable)

	if filter.CarID != "" {
		query = query.Where(squirrel.Eq{"car_id": filter.CarID})
	}
	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}
	if filter.ReservationID != "" {
		query = query.Where(squirrel.Eq{"reservation_id": filter.ReservationID})
	}
	if len(filter.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": filter.Statuses})
	}
	if filter.ExcludeID != "" {
		query = query.Where(squirrel.NotEq{"id": filter.ExcludeID})
	}
	if filter.EndBefore != nil {
		query = query.Where(squirrel.Lt{"end_date": *filter.EndBefore})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"end_date": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"start_date": *filter.To})
	}

	query = query.OrderBy(orderClause(filter.SortBy, filter.SortOrder))
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		query = query.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list rentals query failed: %w", err)
	}

	rows, err := db.Conn(ctx, repo.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list rentals failed: %w", err)
	}
	defer rows.Close()

	var (
		items []*Rental
		total int
	)
	for rows.Next() {
		r, err := scanRental(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan rental failed: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rentals failed: %w", err)
	}
	return items, total, nil
}

func (repo *pgxRentalRepository) Update(ctx context.Context, r *Rental) error {
	query, args, err := psql.Update(rentalsTable).
		Set("car_id", r.CarID).
		Set("customer_id", r.CustomerID).
		Set("reservation_id", r.ReservationID).
		Set("start_date", r.StartDate).
		Set("end_date", r.EndDate).
		Set("status", r.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": r.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update rental query failed: %w", err)
	}

	if err := db.Conn(ctx, repo.pool).QueryRow(ctx, query, args...).Scan(&r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRentalNotFound
		}
		if mapped := mapFKViolation(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update rental failed: %w", err)
	}
	return nil
}

func (repo *pgxRentalRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete(rentalsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete rental query failed: %w", err)
	}

	ct, err := db.Conn(ctx, repo.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete rental failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrRentalNotFound
	}
	return nil
}
