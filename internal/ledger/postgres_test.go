package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywallet/wallet_ledger/internal/infra"
	"github.com/paywallet/wallet_ledger/internal/logging"
)

// newPostgresStore connects to TEST_DATABASE_URL and inserts one wallet row.
func newPostgresStore(t *testing.T) (*PostgresStore, *pgxpool.Pool, string) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := infra.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, infra.Migrate(ctx, db))

	walletID := uuid.NewString()
	_, err = db.Exec(ctx, `INSERT INTO wallets (id, name, currency, owner_id, owner_kind) VALUES ($1, 'test', 'NGN', $2, 'customer')`,
		walletID, uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(context.Background(), `DELETE FROM ledger_entries WHERE wallet_id = $1`, walletID)
		db.Exec(context.Background(), `DELETE FROM wallets WHERE id = $1`, walletID)
	})

	store := NewPostgresStore(db)
	require.NoError(t, store.EnsureAccount(ctx, walletID))
	return store, db, walletID
}

func TestPostgresStore_CreditDebit(t *testing.T) {
	store, _, walletID := newPostgresStore(t)
	writer := NewWriter(store, logging.Discard())
	ctx := context.Background()

	_, err := writer.Credit(ctx, walletID, decimal.NewFromInt(5000), "salary")
	require.NoError(t, err)
	balance, err := writer.Debit(ctx, walletID, decimal.NewFromInt(2000), "")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(3000)))

	_, err = writer.Debit(ctx, walletID, decimal.NewFromInt(6000), "")
	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Balance.Equal(decimal.NewFromInt(3000)))

	entries, err := store.Entries(ctx, walletID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindDebit, entries[0].Kind)
	assert.Equal(t, "salary", entries[1].Narration)

	sum, err := store.Sum(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(balance))
}

func TestPostgresStore_ConcurrentDebits(t *testing.T) {
	store, _, walletID := newPostgresStore(t)
	writer := NewWriter(store, logging.Discard())
	ctx := context.Background()

	_, err := writer.Credit(ctx, walletID, decimal.NewFromInt(500), "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := writer.Debit(ctx, walletID, decimal.NewFromInt(100), "")
			if err != nil && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	balance, err := store.Balance(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	sum, err := store.Sum(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestPostgresStore_UnknownWallet(t *testing.T) {
	store, _, _ := newPostgresStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.EnsureAccount(ctx, uuid.NewString()), ErrWalletNotFound)
	assert.ErrorIs(t, store.EnsureAccount(ctx, "not-a-uuid"), ErrWalletNotFound)
	_, err := NewWriter(store, logging.Discard()).Credit(ctx, uuid.NewString(), decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

// appendFailingStore lets the balance update run, then fails the entry insert
// inside the same transaction.
type appendFailingStore struct {
	*PostgresStore
	balanceSet bool
}

type appendFailingTx struct {
	Tx
	store *appendFailingStore
}

func (s *appendFailingStore) WithinTx(ctx context.Context, walletID string, fn func(tx Tx) error) error {
	return s.PostgresStore.WithinTx(ctx, walletID, func(tx Tx) error {
		return fn(appendFailingTx{Tx: tx, store: s})
	})
}

func (t appendFailingTx) SetBalance(ctx context.Context, balance decimal.Decimal) error {
	if err := t.Tx.SetBalance(ctx, balance); err != nil {
		return err
	}
	t.store.balanceSet = true
	return nil
}

func (appendFailingTx) AppendEntry(context.Context, Entry) error {
	return errors.New("insert ledger entry: connection reset")
}

func TestPostgresStore_FailedAppendRollsBackBalance(t *testing.T) {
	store, db, walletID := newPostgresStore(t)
	ctx := context.Background()

	_, err := NewWriter(store, logging.Discard()).Credit(ctx, walletID, decimal.NewFromInt(100), "opening")
	require.NoError(t, err)

	failing := &appendFailingStore{PostgresStore: store}
	_, err = NewWriter(failing, logging.Discard()).Credit(ctx, walletID, decimal.NewFromInt(50), "lost")
	require.ErrorIs(t, err, ErrTransactionFailed)
	require.True(t, failing.balanceSet, "balance update should have run before the failing insert")

	balance, err := store.Balance(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)), "balance %s", balance)

	var rows int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE wallet_id = $1`, walletID).Scan(&rows))
	assert.Equal(t, 1, rows)

	sum, err := store.Sum(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(balance))
}
