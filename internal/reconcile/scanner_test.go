package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/logging"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/wallet"
)

type seeded struct {
	wallets wallet.Repository
	store   ledger.Store
	writer  *ledger.Writer
	ids     []string
}

func seedWallets(t *testing.T, n int) seeded {
	t.Helper()
	ctx := context.Background()
	s := seeded{wallets: wallet.NewMemoryRepository(), store: ledger.NewInMemory()}
	s.writer = ledger.NewWriter(s.store, logging.Discard())
	for i := 0; i < n; i++ {
		w := wallet.Wallet{
			ID:       uuid.NewString(),
			Owner:    owner.Ref{Kind: owner.KindCustomer, ID: uuid.NewString()},
			Name:     "wallet",
			Currency: wallet.CurrencyNGN,
			Active:   true,
		}
		require.NoError(t, s.wallets.Create(ctx, w))
		require.NoError(t, s.store.EnsureAccount(ctx, w.ID))
		s.ids = append(s.ids, w.ID)
	}
	return s
}

type countingSource struct {
	Source
	sizes []int
}

func (c *countingSource) Page(ctx context.Context, afterID string, limit int) ([]Snapshot, error) {
	page, err := c.Source.Page(ctx, afterID, limit)
	c.sizes = append(c.sizes, len(page))
	return page, err
}

func TestScanFindsSingleDriftAcrossPages(t *testing.T) {
	ctx := context.Background()
	s := seedWallets(t, 1200)

	corrupted := s.ids[700]
	_, err := s.writer.Credit(ctx, corrupted, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = s.writer.Credit(ctx, s.ids[3], decimal.NewFromInt(40), "")
	require.NoError(t, err)
	ledger.OverwriteBalance(s.store, corrupted, decimal.NewFromInt(150))

	source := &countingSource{Source: NewStoreSource(s.wallets, s.store)}
	report, err := NewScanner(source, 500, logging.Discard()).Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1200, report.CheckedCount)
	assert.Equal(t, []int{500, 500, 200}, source.sizes)
	require.Len(t, report.Drift, 1)

	d := report.Drift[0]
	assert.Equal(t, corrupted, d.WalletID)
	assert.Equal(t, owner.KindCustomer, d.OwnerKind)
	assert.True(t, d.Expected.Equal(decimal.NewFromInt(100)))
	assert.True(t, d.Actual.Equal(decimal.NewFromInt(150)))
	assert.True(t, d.Difference.Equal(decimal.NewFromInt(50)))
}

func TestScanIsRepeatableAndReadOnly(t *testing.T) {
	ctx := context.Background()
	s := seedWallets(t, 25)
	_, err := s.writer.Credit(ctx, s.ids[0], decimal.RequireFromString("10.25"), "")
	require.NoError(t, err)
	ledger.OverwriteBalance(s.store, s.ids[0], decimal.RequireFromString("9.25"))

	scanner := NewScanner(NewStoreSource(s.wallets, s.store), 10, logging.Discard())
	first, err := scanner.Scan(ctx)
	require.NoError(t, err)
	second, err := scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	balance, err := s.store.Balance(ctx, s.ids[0])
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("9.25")))
}

func TestScanExactMultipleOfPageSize(t *testing.T) {
	s := seedWallets(t, 20)
	source := &countingSource{Source: NewStoreSource(s.wallets, s.store)}

	report, err := NewScanner(source, 10, logging.Discard()).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.CheckedCount)
	assert.Equal(t, []int{10, 10, 0}, source.sizes)
	assert.False(t, report.HasDrift())
}

func TestScanNoWallets(t *testing.T) {
	s := seedWallets(t, 0)
	report, err := NewScanner(NewStoreSource(s.wallets, s.store), 0, logging.Discard()).Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.CheckedCount)
	assert.Empty(t, report.Drift)
}

type failingSource struct{ err error }

func (f failingSource) Page(context.Context, string, int) ([]Snapshot, error) { return nil, f.err }

func TestScanPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := NewScanner(failingSource{err: boom}, 10, logging.Discard()).Scan(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestScanStopsWhenCancelled(t *testing.T) {
	s := seedWallets(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(NewStoreSource(s.wallets, s.store), 2, logging.Discard()).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
