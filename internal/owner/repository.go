package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists owners.
type Repository interface {
	Create(ctx context.Context, owner Owner) error
	Get(ctx context.Context, ref Ref) (Owner, error)
	// List returns owners of one kind, oldest first.
	List(ctx context.Context, kind Kind, limit, offset int) ([]Owner, error)
	Update(ctx context.Context, owner Owner) error
}

// PostgresRepository implements Repository using one table per owner kind.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed owner repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindCustomer:
		return "customers", nil
	case KindMerchant:
		return "merchants", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

const (
	customerColumns = `id, name, email, phone, created_at, updated_at`
	merchantColumns = `id, name, email, phone, created_at, updated_at,
        brand_name, brand_description, address, city, state, country, postal_code`
)

func columnsFor(kind Kind) string {
	if kind == KindMerchant {
		return merchantColumns
	}
	return customerColumns
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new owner.
func (r *PostgresRepository) Create(ctx context.Context, owner Owner) error {
	table, err := tableFor(owner.Kind)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(owner.ID)
	if err != nil {
		return err
	}
	if owner.Kind == KindMerchant {
		m := owner.Merchant
		_, err = r.db.Exec(ctx, `INSERT INTO merchants (`+merchantColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			id, owner.Name, owner.Email, owner.Phone, owner.CreatedAt.UTC(), owner.UpdatedAt.UTC(),
			m.BrandName, m.BrandDescription, m.Address, m.City, m.State, m.Country, m.PostalCode)
	} else {
		_, err = r.db.Exec(ctx, `INSERT INTO `+table+` (`+customerColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6)`,
			id, owner.Name, owner.Email, owner.Phone, owner.CreatedAt.UTC(), owner.UpdatedAt.UTC())
	}
	if uniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// Get fetches an owner by reference.
func (r *PostgresRepository) Get(ctx context.Context, ref Ref) (Owner, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return Owner{}, err
	}
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return Owner{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+columnsFor(ref.Kind)+` FROM `+table+` WHERE id = $1`, id)
	owner, err := scanOwner(row, ref.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return Owner{}, ErrNotFound
	}
	return owner, err
}

// List returns one page of owners of the given kind.
func (r *PostgresRepository) List(ctx context.Context, kind Kind, limit, offset int) ([]Owner, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Owner{}, nil
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `SELECT `+columnsFor(kind)+` FROM `+table+`
        ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]Owner, 0, limit)
	for rows.Next() {
		owner, err := scanOwner(rows, kind)
		if err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// Update overwrites the mutable fields of an existing owner.
func (r *PostgresRepository) Update(ctx context.Context, owner Owner) error {
	if _, err := tableFor(owner.Kind); err != nil {
		return err
	}
	id, err := uuid.Parse(owner.ID)
	if err != nil {
		return ErrNotFound
	}
	var tag pgconn.CommandTag
	if owner.Kind == KindMerchant {
		m := owner.Merchant
		tag, err = r.db.Exec(ctx, `UPDATE merchants
        SET name = $2, email = $3, phone = $4, updated_at = $5,
            brand_name = $6, brand_description = $7, address = $8,
            city = $9, state = $10, country = $11, postal_code = $12
        WHERE id = $1`,
			id, owner.Name, owner.Email, owner.Phone, owner.UpdatedAt.UTC(),
			m.BrandName, m.BrandDescription, m.Address, m.City, m.State, m.Country, m.PostalCode)
	} else {
		tag, err = r.db.Exec(ctx, `UPDATE customers
        SET name = $2, email = $3, phone = $4, updated_at = $5
        WHERE id = $1`, id, owner.Name, owner.Email, owner.Phone, owner.UpdatedAt.UTC())
	}
	if uniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOwner(row pgx.Row, kind Kind) (Owner, error) {
	var (
		id                   uuid.UUID
		createdAt, updatedAt time.Time
		owner                Owner
	)
	dest := []any{&id, &owner.Name, &owner.Email, &owner.Phone, &createdAt, &updatedAt}
	if kind == KindMerchant {
		m := &owner.Merchant
		dest = append(dest, &m.BrandName, &m.BrandDescription, &m.Address, &m.City, &m.State, &m.Country, &m.PostalCode)
	}
	if err := row.Scan(dest...); err != nil {
		return Owner{}, err
	}
	owner.Ref = Ref{Kind: kind, ID: id.String()}
	owner.CreatedAt = createdAt.UTC()
	owner.UpdatedAt = updatedAt.UTC()
	return owner, nil
}
