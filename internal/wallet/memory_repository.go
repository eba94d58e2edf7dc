package wallet

import (
	"context"
	"sort"
	"sync"

	"github.com/paywallet/wallet_ledger/internal/owner"
)

type memoryRepository struct {
	mu      sync.RWMutex
	wallets map[string]Wallet
	// order keeps creation order for paging.
	order []string
}

// NewMemoryRepository constructs an in-memory wallet repository for tests and
// local development. Balances are not tracked here; read them from the ledger.
func NewMemoryRepository() Repository {
	return &memoryRepository{wallets: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.Owner == wallet.Owner && existing.Currency == wallet.Currency {
			return &DuplicateWalletError{Currency: wallet.Currency}
		}
	}
	r.wallets[wallet.ID] = wallet
	r.order = append(r.order, wallet.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.wallets[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return wallet, nil
}

func (r *memoryRepository) FindByOwnerCurrency(_ context.Context, ref owner.Ref, currency string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Owner == ref && w.Currency == currency {
			return w, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (r *memoryRepository) ListByOwner(_ context.Context, ref owner.Ref, limit, offset int) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page(func(w Wallet) bool { return w.Owner == ref }, limit, offset), nil
}

func (r *memoryRepository) List(_ context.Context, limit, offset int) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page(func(Wallet) bool { return true }, limit, offset), nil
}

func (r *memoryRepository) page(match func(Wallet) bool, limit, offset int) []Wallet {
	var out []Wallet
	skipped := 0
	for _, id := range r.order {
		if len(out) >= limit {
			break
		}
		w := r.wallets[id]
		if !match(w) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, w)
	}
	return out
}

func (r *memoryRepository) ListAfter(_ context.Context, afterID string, limit int) ([]Wallet, error) {
	if limit <= 0 {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.wallets))
	for id := range r.wallets {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]Wallet, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.wallets[id])
	}
	return out, nil
}
