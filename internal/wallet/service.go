package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/pagination"
)

// OwnerLookup resolves the customer or merchant a wallet is created for.
type OwnerLookup interface {
	Get(ctx context.Context, ref owner.Ref) (owner.Owner, error)
}

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo            Repository
	owners          OwnerLookup
	store           ledger.Store
	writer          *ledger.Writer
	defaultCurrency string
	logger          *slog.Logger
}

// NewService builds a wallet service. defaultCurrency is used when a creation
// request names none.
func NewService(repo Repository, owners OwnerLookup, store ledger.Store, writer *ledger.Writer, defaultCurrency string, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		owners:          owners,
		store:           store,
		writer:          writer,
		defaultCurrency: NormalizeCurrency(defaultCurrency),
		logger:          logger,
	}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	Owner    owner.Ref
	Name     string
	Currency string
}

// Create provisions a wallet with a zero balance. An owner holds at most one
// wallet per currency.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	currency := NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !IsSupported(currency) {
		return Wallet{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}

	if _, err := s.owners.Get(ctx, input.Owner); err != nil {
		return Wallet{}, err
	}

	// Pre-flight only. Concurrent creations are settled by the repository's unique key.
	if _, err := s.repo.FindByOwnerCurrency(ctx, input.Owner, currency); err == nil {
		return Wallet{}, &DuplicateWalletError{Currency: currency}
	} else if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	now := time.Now().UTC()
	wallet := Wallet{
		ID:        uuid.NewString(),
		Owner:     input.Owner,
		Name:      strings.TrimSpace(input.Name),
		Currency:  currency,
		Active:    true,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}
	if err := s.store.EnsureAccount(ctx, wallet.ID); err != nil {
		return Wallet{}, fmt.Errorf("open ledger account: %w", err)
	}

	s.logger.Info("wallet created",
		slog.String("wallet_id", wallet.ID),
		slog.String("owner", wallet.Owner.String()),
		slog.String("currency", wallet.Currency),
	)
	return wallet, nil
}

// Get retrieves a wallet with its current balance.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	return s.withBalance(ctx, wallet)
}

func (s *Service) withBalance(ctx context.Context, wallet Wallet) (Wallet, error) {
	balance, err := s.store.Balance(ctx, wallet.ID)
	if err != nil {
		return Wallet{}, err
	}
	wallet.Balance = balance
	return wallet, nil
}

// ListByOwner returns a page of the owner's wallets.
func (s *Service) ListByOwner(ctx context.Context, ref owner.Ref, page pagination.Page) (pagination.Result[Wallet], error) {
	if _, err := s.owners.Get(ctx, ref); err != nil {
		return pagination.Result[Wallet]{}, err
	}
	page = page.Normalize()
	wallets, err := s.repo.ListByOwner(ctx, ref, page.Size+1, page.Offset())
	if err != nil {
		return pagination.Result[Wallet]{}, err
	}
	return s.walletPage(ctx, wallets, page)
}

// List returns a page of all wallets.
func (s *Service) List(ctx context.Context, page pagination.Page) (pagination.Result[Wallet], error) {
	page = page.Normalize()
	wallets, err := s.repo.List(ctx, page.Size+1, page.Offset())
	if err != nil {
		return pagination.Result[Wallet]{}, err
	}
	return s.walletPage(ctx, wallets, page)
}

func (s *Service) walletPage(ctx context.Context, wallets []Wallet, page pagination.Page) (pagination.Result[Wallet], error) {
	result := pagination.Trim(wallets, page)
	for i, w := range result.Items {
		w, err := s.withBalance(ctx, w)
		if err != nil {
			return pagination.Result[Wallet]{}, err
		}
		result.Items[i] = w
	}
	return result, nil
}

// Credit adds amount to the wallet and returns the new balance.
func (s *Service) Credit(ctx context.Context, walletID string, amount decimal.Decimal, narration string) (decimal.Decimal, error) {
	return s.writer.Credit(ctx, walletID, amount, strings.TrimSpace(narration))
}

// Debit removes amount from the wallet and returns the new balance. The
// balance check happens under the wallet lock, never against a stale read.
func (s *Service) Debit(ctx context.Context, walletID string, amount decimal.Decimal, narration string) (decimal.Decimal, error) {
	return s.writer.Debit(ctx, walletID, amount, strings.TrimSpace(narration))
}

// History returns a page of the wallet's transactions, newest first, with
// unsigned amounts.
func (s *Service) History(ctx context.Context, walletID string, page pagination.Page) (pagination.Result[Transaction], error) {
	if _, err := s.repo.Get(ctx, walletID); err != nil {
		return pagination.Result[Transaction]{}, err
	}
	page = page.Normalize()
	entries, err := s.store.Entries(ctx, walletID, page.Size+1, page.Offset())
	if err != nil {
		return pagination.Result[Transaction]{}, err
	}

	trimmed := pagination.Trim(entries, page)
	result := pagination.Result[Transaction]{Page: page, HasMore: trimmed.HasMore}
	result.Items = make([]Transaction, 0, len(trimmed.Items))
	for _, e := range trimmed.Items {
		result.Items = append(result.Items, Transaction{
			ID:            e.ID,
			WalletID:      e.WalletID,
			Amount:        e.Amount.Abs(),
			ResultBalance: e.ResultBalance,
			Kind:          e.Kind,
			Narration:     e.Narration,
			CreatedAt:     e.CreatedAt,
		})
	}
	return result, nil
}
