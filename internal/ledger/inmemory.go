package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryAccount struct {
	// writer serialises units of work on this wallet only.
	writer  sync.Mutex
	balance decimal.Decimal
	active  bool
	entries []Entry
}

type inMemoryStore struct {
	// mu guards the accounts map and every committed balance/entries pair, so
	// readers never observe one without the other.
	mu         sync.RWMutex
	accounts   map[string]*memoryAccount
	commitHook func(walletID string) error
}

// NewInMemory creates a concurrency-safe in-memory ledger store useful for
// unit tests and local development.
func NewInMemory() Store {
	return &inMemoryStore{accounts: make(map[string]*memoryAccount)}
}

func (s *inMemoryStore) EnsureAccount(_ context.Context, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[walletID]; !exists {
		s.accounts[walletID] = &memoryAccount{active: true}
	}
	return nil
}

func (s *inMemoryStore) account(walletID string) (*memoryAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[walletID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return acct, nil
}

func (s *inMemoryStore) WithinTx(ctx context.Context, walletID string, fn func(tx Tx) error) error {
	acct, err := s.account(walletID)
	if err != nil {
		return err
	}

	acct.writer.Lock()
	defer acct.writer.Unlock()

	tx := &memoryTx{store: s, acct: acct}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitHook != nil {
		if err := s.commitHook(walletID); err != nil {
			return err
		}
	}
	if tx.balance != nil {
		acct.balance = *tx.balance
	}
	acct.entries = append(acct.entries, tx.staged...)
	return nil
}

func (s *inMemoryStore) Balance(_ context.Context, walletID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[walletID]
	if !ok {
		return decimal.Zero, ErrWalletNotFound
	}
	return acct.balance, nil
}

func (s *inMemoryStore) Sum(_ context.Context, walletID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[walletID]
	if !ok {
		return decimal.Zero, ErrWalletNotFound
	}
	sum := decimal.Zero
	for _, e := range acct.entries {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (s *inMemoryStore) Entries(_ context.Context, walletID string, limit, offset int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[walletID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	out := make([]Entry, 0, min(limit, len(acct.entries)))
	for i := len(acct.entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, acct.entries[i])
	}
	return out, nil
}

// memoryTx stages writes until the store commits them.
type memoryTx struct {
	store   *inMemoryStore
	acct    *memoryAccount
	balance *decimal.Decimal
	staged  []Entry
}

func (t *memoryTx) LockWallet(_ context.Context) (WalletState, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return WalletState{Balance: t.acct.balance, Active: t.acct.active}, nil
}

func (t *memoryTx) SetBalance(_ context.Context, balance decimal.Decimal) error {
	t.balance = &balance
	return nil
}

func (t *memoryTx) AppendEntry(_ context.Context, entry Entry) error {
	t.staged = append(t.staged, entry)
	return nil
}
