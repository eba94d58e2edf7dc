package wallet

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/owner"
)

var (
	// ErrNotFound indicates the wallet does not exist.
	ErrNotFound = ledger.ErrWalletNotFound

	// ErrDuplicateWallet indicates the owner already holds a wallet in the currency.
	ErrDuplicateWallet = errors.New("duplicate wallet")
)

// DuplicateWalletError carries the currency that is already taken.
type DuplicateWalletError struct {
	Currency string
}

func (e *DuplicateWalletError) Error() string {
	return fmt.Sprintf("a wallet for %s already exists", e.Currency)
}

// Is lets errors.Is match ErrDuplicateWallet.
func (e *DuplicateWalletError) Is(target error) bool {
	return target == ErrDuplicateWallet
}

// Wallet is a single-currency stored value account owned by a customer or merchant.
type Wallet struct {
	ID        string
	Owner     owner.Ref
	Name      string
	Currency  string
	Active    bool
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is a ledger entry as shown to clients: the amount is unsigned
// and Kind tells the direction.
type Transaction struct {
	ID            string
	WalletID      string
	Amount        decimal.Decimal
	ResultBalance decimal.Decimal
	Kind          ledger.Kind
	Narration     string
	CreatedAt     time.Time
}
