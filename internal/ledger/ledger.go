package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientFunds occurs when a debit would drive the wallet balance
	// below zero. The concrete error is *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransactionFailed indicates the unit of work could not commit. Nothing
	// was persisted and the movement is safe to retry.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrWalletNotFound indicates the movement targets an unknown wallet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletInactive indicates the wallet has been deactivated.
	ErrWalletInactive = errors.New("wallet is inactive")

	// ErrInvalidAmount indicates a zero amount or one whose sign disagrees with its kind.
	ErrInvalidAmount = errors.New("invalid amount")
)

// InsufficientFundsError reports the balance the debit was checked against.
type InsufficientFundsError struct {
	Balance decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s", e.Balance.StringFixed(Scale))
}

// Is lets errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

// Kind labels a ledger entry. It is redundant with the amount's sign but kept
// explicit for reporting.
type Kind string

const (
	KindCredit Kind = "CREDIT"
	KindDebit  Kind = "DEBIT"
)

// Entry is one immutable balance-changing movement on a wallet.
type Entry struct {
	ID       string
	WalletID string
	// Amount is signed: positive for credits, negative for debits.
	Amount decimal.Decimal
	// ResultBalance is the wallet balance immediately after this entry.
	ResultBalance decimal.Decimal
	Kind          Kind
	Narration     string
	CreatedAt     time.Time
}

// WalletState is the locked view of a wallet inside a unit of work.
type WalletState struct {
	Balance decimal.Decimal
	Active  bool
}

// Tx is a unit of work scoped to a single wallet. The wallet stays locked
// against other writers from LockWallet until the unit of work ends.
type Tx interface {
	LockWallet(ctx context.Context) (WalletState, error)
	SetBalance(ctx context.Context, balance decimal.Decimal) error
	AppendEntry(ctx context.Context, entry Entry) error
}

// Store is implemented by ledger backends (Postgres, in-memory). It owns both
// the cached wallet balance and the append-only entry log.
type Store interface {
	// EnsureAccount makes the wallet known to the ledger with a zero balance.
	EnsureAccount(ctx context.Context, walletID string) error
	// WithinTx runs fn in a unit of work that commits only if fn returns nil.
	WithinTx(ctx context.Context, walletID string, fn func(tx Tx) error) error
	// Balance returns the cached balance.
	Balance(ctx context.Context, walletID string) (decimal.Decimal, error)
	// Sum folds every entry amount of the wallet.
	Sum(ctx context.Context, walletID string) (decimal.Decimal, error)
	// Entries returns entries newest first.
	Entries(ctx context.Context, walletID string, limit, offset int) ([]Entry, error)
}
