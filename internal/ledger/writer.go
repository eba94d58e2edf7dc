package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Writer applies credits and debits. Each movement updates the cached
// balance and appends its entry in one unit of work.
type Writer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter builds a ledger writer on top of a Store.
func NewWriter(store Store, logger *slog.Logger) *Writer {
	return &Writer{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Credit adds a positive amount to the wallet and returns the new balance.
func (w *Writer) Credit(ctx context.Context, walletID string, amount decimal.Decimal, narration string) (decimal.Decimal, error) {
	return w.ApplyMovement(ctx, walletID, amount, KindCredit, narration)
}

// Debit removes a positive amount from the wallet and returns the new balance.
func (w *Writer) Debit(ctx context.Context, walletID string, amount decimal.Decimal, narration string) (decimal.Decimal, error) {
	return w.ApplyMovement(ctx, walletID, amount.Neg(), KindDebit, narration)
}

// ApplyMovement adds signedAmount to the wallet balance and records the
// entry. A debit larger than the current balance fails with
// *InsufficientFundsError and writes nothing. Any storage failure is reported
// as ErrTransactionFailed with no partial state persisted.
func (w *Writer) ApplyMovement(ctx context.Context, walletID string, signedAmount decimal.Decimal, kind Kind, narration string) (decimal.Decimal, error) {
	amount := signedAmount.Round(Scale)
	if err := checkSign(amount, kind); err != nil {
		return decimal.Zero, err
	}

	var newBalance decimal.Decimal
	err := w.store.WithinTx(ctx, walletID, func(tx Tx) error {
		state, err := tx.LockWallet(ctx)
		if err != nil {
			return err
		}
		if !state.Active {
			return ErrWalletInactive
		}
		if amount.IsNegative() && amount.Abs().GreaterThan(state.Balance) {
			return &InsufficientFundsError{Balance: state.Balance}
		}

		newBalance = state.Balance.Add(amount)
		if err := tx.SetBalance(ctx, newBalance); err != nil {
			return fmt.Errorf("set balance: %w", err)
		}
		entry := Entry{
			ID:            uuid.NewString(),
			WalletID:      walletID,
			Amount:        amount,
			ResultBalance: newBalance,
			Kind:          kind,
			Narration:     narration,
			CreatedAt:     w.now(),
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return fmt.Errorf("append entry: %w", err)
		}
		return nil
	})
	if err != nil {
		if isBusinessError(err) {
			return decimal.Zero, err
		}
		w.logger.Error("ledger movement failed",
			slog.String("wallet_id", walletID),
			slog.String("kind", string(kind)),
			slog.String("amount", amount.StringFixed(Scale)),
			slog.Any("error", err),
		)
		return decimal.Zero, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	return newBalance, nil
}

func checkSign(amount decimal.Decimal, kind Kind) error {
	switch kind {
	case KindCredit:
		if !amount.IsPositive() {
			return fmt.Errorf("%w: credit must be positive", ErrInvalidAmount)
		}
	case KindDebit:
		if !amount.IsNegative() {
			return fmt.Errorf("%w: debit must be negative", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAmount, kind)
	}
	return nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrWalletInactive)
}
