package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/owner"
)

// Repository persists wallet metadata. Balances are written only by the ledger.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	FindByOwnerCurrency(ctx context.Context, ref owner.Ref, currency string) (Wallet, error)
	ListByOwner(ctx context.Context, ref owner.Ref, limit, offset int) ([]Wallet, error)
	List(ctx context.Context, limit, offset int) ([]Wallet, error)
	// ListAfter returns up to limit wallets ordered by id, starting after afterID.
	ListAfter(ctx context.Context, afterID string, limit int) ([]Wallet, error)
}

const uniqueViolation = "23505"

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectWallet = `SELECT id, owner_id, owner_kind, name, currency, is_active, balance::text, created_at, updated_at FROM wallets`

// Create inserts a wallet with a zero balance. The (owner_kind, owner_id,
// currency) unique key turns a lost creation race into DuplicateWalletError.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(wallet.Owner.ID)
	if err != nil {
		return owner.ErrNotFound
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, owner_kind, name, currency, is_active, balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`,
		walletID, ownerID, string(wallet.Owner.Kind), wallet.Name, wallet.Currency, wallet.Active,
		wallet.CreatedAt.UTC(), wallet.UpdatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateWalletError{Currency: wallet.Currency}
	}
	return err
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	w, err := scanWallet(r.db.QueryRow(ctx, selectWallet+` WHERE id = $1`, walletID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, ErrNotFound
	}
	return w, err
}

// FindByOwnerCurrency returns the owner's wallet in currency, or ErrNotFound.
func (r *PostgresRepository) FindByOwnerCurrency(ctx context.Context, ref owner.Ref, currency string) (Wallet, error) {
	ownerID, err := uuid.Parse(ref.ID)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	w, err := scanWallet(r.db.QueryRow(ctx, selectWallet+` WHERE owner_kind = $1 AND owner_id = $2 AND currency = $3`,
		string(ref.Kind), ownerID, currency))
	if errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, ErrNotFound
	}
	return w, err
}

// ListByOwner pages through an owner's wallets, oldest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ref owner.Ref, limit, offset int) ([]Wallet, error) {
	ownerID, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, nil
	}
	return r.query(ctx, selectWallet+` WHERE owner_kind = $1 AND owner_id = $2 ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		string(ref.Kind), ownerID, limit, offset)
}

// List pages through every wallet, oldest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Wallet, error) {
	return r.query(ctx, selectWallet+` ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
}

// ListAfter walks wallets by id. An empty afterID starts from the beginning.
func (r *PostgresRepository) ListAfter(ctx context.Context, afterID string, limit int) ([]Wallet, error) {
	after := uuid.Nil
	if afterID != "" {
		parsed, err := uuid.Parse(afterID)
		if err != nil {
			return nil, err
		}
		after = parsed
	}
	return r.query(ctx, selectWallet+` WHERE id > $1 ORDER BY id LIMIT $2`, after, limit)
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Wallet, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w                    Wallet
		idVal, ownerID       uuid.UUID
		ownerKind, balance   string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&idVal, &ownerID, &ownerKind, &w.Name, &w.Currency, &w.Active, &balance, &createdAt, &updatedAt); err != nil {
		return Wallet{}, err
	}
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w.ID = idVal.String()
	w.Owner = owner.Ref{Kind: owner.Kind(ownerKind), ID: ownerID.String()}
	w.Balance = amount
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
