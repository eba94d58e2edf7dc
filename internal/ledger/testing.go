package ledger

import "github.com/shopspring/decimal"

// OverwriteBalance replaces the cached balance of an in-memory wallet without
// touching its entries. Tests use it to simulate drift.
func OverwriteBalance(s Store, walletID string, balance decimal.Decimal) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if acct, ok := mem.accounts[walletID]; ok {
			acct.balance = balance
		}
	}
}

// SetActive toggles the active flag of an in-memory wallet.
func SetActive(s Store, walletID string, active bool) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if acct, ok := mem.accounts[walletID]; ok {
			acct.active = active
		}
	}
}

// FailCommits makes every subsequent in-memory commit fail with err until it
// is called again with a nil error.
func FailCommits(s Store, err error) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if err == nil {
			mem.commitHook = nil
			return
		}
		mem.commitHook = func(string) error { return err }
	}
}
