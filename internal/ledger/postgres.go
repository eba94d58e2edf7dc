package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore keeps the cached balance on wallets.balance and the entry log
// in ledger_entries. Writers on the same wallet are serialised by a row lock.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureAccount checks the wallet row exists. The row itself, with its zero
// balance, is inserted by the wallet repository.
func (s *PostgresStore) EnsureAccount(ctx context.Context, walletID string) error {
	id, err := parseWalletID(walletID)
	if err != nil {
		return err
	}
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrWalletNotFound
	}
	return nil
}

// WithinTx opens a pgx transaction; it is rolled back on every path that does not commit.
func (s *PostgresStore) WithinTx(ctx context.Context, walletID string, fn func(tx Tx) error) error {
	id, err := parseWalletID(walletID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresTx{tx: tx, walletID: id}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Balance returns the cached wallet balance.
func (s *PostgresStore) Balance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	id, err := parseWalletID(walletID)
	if err != nil {
		return decimal.Zero, err
	}
	var raw string
	if err := s.db.QueryRow(ctx, `SELECT balance::text FROM wallets WHERE id = $1`, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// Sum returns the sum of every entry amount for the wallet.
func (s *PostgresStore) Sum(ctx context.Context, walletID string) (decimal.Decimal, error) {
	id, err := parseWalletID(walletID)
	if err != nil {
		return decimal.Zero, err
	}
	var raw string
	const query = `SELECT COALESCE(SUM(amount), 0)::text FROM ledger_entries WHERE wallet_id = $1`
	if err := s.db.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// Entries returns a page of entries, newest first.
func (s *PostgresStore) Entries(ctx context.Context, walletID string, limit, offset int) ([]Entry, error) {
	id, err := parseWalletID(walletID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, wallet_id, amount::text, result_balance::text, kind, COALESCE(narration, ''), created_at
        FROM ledger_entries
        WHERE wallet_id = $1
        ORDER BY seq DESC
        LIMIT $2 OFFSET $3`
	rows, err := s.db.Query(ctx, query, id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entryID, entryWallet uuid.UUID
			amount, result       string
			kind                 string
			createdAt            time.Time
			e                    Entry
		)
		if err := rows.Scan(&entryID, &entryWallet, &amount, &result, &kind, &e.Narration, &createdAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if e.ResultBalance, err = decimal.NewFromString(result); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.WalletID = entryWallet.String()
		e.Kind = Kind(kind)
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type postgresTx struct {
	tx       pgx.Tx
	walletID uuid.UUID
}

func (t *postgresTx) LockWallet(ctx context.Context) (WalletState, error) {
	const query = `SELECT balance::text, is_active FROM wallets WHERE id = $1 FOR UPDATE`
	var (
		raw   string
		state WalletState
	)
	if err := t.tx.QueryRow(ctx, query, t.walletID).Scan(&raw, &state.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WalletState{}, ErrWalletNotFound
		}
		return WalletState{}, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return WalletState{}, err
	}
	state.Balance = balance
	return state, nil
}

func (t *postgresTx) SetBalance(ctx context.Context, balance decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE wallets SET balance = $2::numeric, updated_at = now() WHERE id = $1`,
		t.walletID, balance.StringFixed(Scale))
	return err
}

func (t *postgresTx) AppendEntry(ctx context.Context, entry Entry) error {
	entryID, err := uuid.Parse(entry.ID)
	if err != nil {
		return err
	}
	var narration *string
	if entry.Narration != "" {
		narration = &entry.Narration
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO ledger_entries (id, wallet_id, amount, result_balance, kind, narration, created_at)
        VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7)`,
		entryID, t.walletID, entry.Amount.StringFixed(Scale), entry.ResultBalance.StringFixed(Scale),
		string(entry.Kind), narration, entry.CreatedAt.UTC())
	return err
}

func parseWalletID(walletID string) (uuid.UUID, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return uuid.Nil, ErrWalletNotFound
	}
	return id, nil
}
