package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/wallet"
)

// Snapshot is one wallet's cached balance next to the sum of its ledger.
type Snapshot struct {
	WalletID  string
	Owner     owner.Ref
	Balance   decimal.Decimal
	LedgerSum decimal.Decimal
}

// Source pages through wallets ordered by id. An empty afterID starts from the
// first wallet; a short page means the walk is over.
type Source interface {
	Page(ctx context.Context, afterID string, limit int) ([]Snapshot, error)
}

// PostgresSource reads each page in a single statement, so balance and sum
// within a page come from the same snapshot.
type PostgresSource struct {
	db *pgxpool.Pool
}

// NewPostgresSource builds a Source backed by PostgreSQL.
func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

// Page returns up to limit wallets with id greater than afterID.
func (s *PostgresSource) Page(ctx context.Context, afterID string, limit int) ([]Snapshot, error) {
	after := uuid.Nil
	if afterID != "" {
		parsed, err := uuid.Parse(afterID)
		if err != nil {
			return nil, err
		}
		after = parsed
	}

	const query = `
        SELECT w.id, w.owner_id, w.owner_kind, w.balance::text, COALESCE(SUM(e.amount), 0)::text
        FROM wallets w
        LEFT JOIN ledger_entries e ON e.wallet_id = w.id
        WHERE w.id > $1
        GROUP BY w.id
        ORDER BY w.id
        LIMIT $2`
	rows, err := s.db.Query(ctx, query, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page []Snapshot
	for rows.Next() {
		var (
			walletID, ownerID uuid.UUID
			kind, bal, sum    string
		)
		if err := rows.Scan(&walletID, &ownerID, &kind, &bal, &sum); err != nil {
			return nil, err
		}
		balance, err := decimal.NewFromString(bal)
		if err != nil {
			return nil, err
		}
		ledgerSum, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, err
		}
		page = append(page, Snapshot{
			WalletID:  walletID.String(),
			Owner:     owner.Ref{Kind: owner.Kind(kind), ID: ownerID.String()},
			Balance:   balance,
			LedgerSum: ledgerSum,
		})
	}
	return page, rows.Err()
}

// StoreSource combines a wallet repository with a ledger store. It serves the
// in-memory backend used in development and tests.
type StoreSource struct {
	wallets wallet.Repository
	store   ledger.Store
}

// NewStoreSource builds a Source over a wallet repository and ledger store.
func NewStoreSource(wallets wallet.Repository, store ledger.Store) *StoreSource {
	return &StoreSource{wallets: wallets, store: store}
}

// Page returns up to limit wallets with id greater than afterID.
func (s *StoreSource) Page(ctx context.Context, afterID string, limit int) ([]Snapshot, error) {
	wallets, err := s.wallets.ListAfter(ctx, afterID, limit)
	if err != nil {
		return nil, err
	}
	page := make([]Snapshot, 0, len(wallets))
	for _, w := range wallets {
		balance, err := s.store.Balance(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		sum, err := s.store.Sum(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		page = append(page, Snapshot{WalletID: w.ID, Owner: w.Owner, Balance: balance, LedgerSum: sum})
	}
	return page, nil
}
