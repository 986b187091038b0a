package customer

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
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, filter Filter) ([]*Customer, int, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error
}

const table = "public.customers"

var columns = []string{"id", "full_name", "address", "phone_number", "created_at", "updated_at"}

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

func (r *pgxRepository) Create(ctx context.Context, c *Customer) error {
	query, args, err := r.sb.Insert(table).
		Columns("full_name", "address", "phone_number").
		Values(c.FullName, c.Address, c.PhoneNumber).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create customer query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create customer failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Customer, error) {
	query, args, err := r.sb.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get customer query failed: %w", err)
	}

	var c Customer
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.FullName, &c.Address, &c.PhoneNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Customer, int, error) {
	query := r.sb.Select(append(columns, "count(*) OVER() AS total_count")...).
		From(table)

	if filter.FullName != "" {
		query = query.Where(squirrel.ILike{"full_name": "%" + filter.FullName + "%"})
	}

	sortBy := "created_at"
	if filter.SortBy == "full_name" {
		sortBy = "full_name"
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
		return nil, 0, fmt.Errorf("build list customers query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers failed: %w", err)
	}
	defer rows.Close()

	var (
		result []*Customer
		total  int
	)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FullName, &c.Address, &c.PhoneNumber, &c.CreatedAt, &c.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan customer failed: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers failed: %w", err)
	}
	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Customer) error {
	query, args, err := r.sb.Update(table).
		Set("full_name", c.FullName).
		Set("address", c.Address).
		Set("phone_number", c.PhoneNumber).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": c.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update customer query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update customer failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete customer query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrInUse
		}
		return fmt.Errorf("delete customer failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
