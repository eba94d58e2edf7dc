package wallet

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/ledger"
	"github.com/paywallet/wallet_ledger/internal/logging"
	"github.com/paywallet/wallet_ledger/internal/owner"
	"github.com/paywallet/wallet_ledger/internal/pagination"
)

type fixture struct {
	svc    *Service
	store  ledger.Store
	owners *owner.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := ledger.NewInMemory()
	owners := owner.NewService(owner.NewMemoryRepository())
	logger := logging.Discard()
	svc := NewService(NewMemoryRepository(), owners, store, ledger.NewWriter(store, logger), CurrencyNGN, logger)
	return fixture{svc: svc, store: store, owners: owners}
}

func (f fixture) customer(t *testing.T, email string) owner.Ref {
	t.Helper()
	o, err := f.owners.Create(context.Background(), owner.CreateInput{Kind: owner.KindCustomer, Name: "Ada Obi", Email: email})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return o.Ref
}

func TestServiceCreateDefaultsCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.customer(t, "ada@example.com")

	w, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "main"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if w.Currency != CurrencyNGN {
		t.Fatalf("expected default currency NGN, got %s", w.Currency)
	}
	if !w.Balance.IsZero() || !w.Active {
		t.Fatalf("expected active zero-balance wallet, got %+v", w)
	}

	fetched, err := f.svc.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if fetched.ID != w.ID || fetched.Owner != ref {
		t.Fatalf("unexpected wallet %+v", fetched)
	}
}

func TestServiceCreateOneWalletPerCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.customer(t, "ada@example.com")

	if _, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "dollars", Currency: "usd"}); err != nil {
		t.Fatalf("create USD wallet: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "more dollars", Currency: "USD"})
	var dup *DuplicateWalletError
	if !errors.As(err, &dup) || dup.Currency != CurrencyUSD {
		t.Fatalf("expected duplicate USD wallet error, got %v", err)
	}
	if !errors.Is(err, ErrDuplicateWallet) {
		t.Fatalf("expected errors.Is ErrDuplicateWallet")
	}
	if err.Error() != "a wallet for USD already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if _, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "naira", Currency: "NGN"}); err != nil {
		t.Fatalf("create NGN wallet: %v", err)
	}

	result, err := f.svc.ListByOwner(ctx, ref, pagination.Page{})
	if err != nil {
		t.Fatalf("list wallets: %v", err)
	}
	if len(result.Items) != 2 || result.HasMore {
		t.Fatalf("expected 2 wallets, got %d (has more %v)", len(result.Items), result.HasMore)
	}
}

func TestServiceCreateConcurrentSameCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.customer(t, "ada@example.com")

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "euros", Currency: CurrencyEUR})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrDuplicateWallet) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one wallet, got %d", created)
	}
}

func TestServiceCreateRejectsUnknownOwnerAndCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Owner: owner.Ref{Kind: owner.KindMerchant, ID: "nope"}, Name: "main"})
	if !errors.Is(err, owner.ErrNotFound) {
		t.Fatalf("expected owner not found, got %v", err)
	}

	ref := f.customer(t, "ada@example.com")
	_, err = f.svc.Create(ctx, CreateInput{Owner: ref, Name: "main", Currency: "JPY"})
	if !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
}

func TestServiceMovementsAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.customer(t, "ada@example.com")
	w, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "main"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if _, err := f.svc.Credit(ctx, w.ID, decimal.NewFromInt(5000), "salary"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := f.svc.Debit(ctx, w.ID, decimal.NewFromInt(2000), "rent")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected balance 3000, got %s", balance)
	}

	_, err = f.svc.Debit(ctx, w.ID, decimal.NewFromInt(6000), "")
	var insufficient *ledger.InsufficientFundsError
	if !errors.As(err, &insufficient) || !insufficient.Balance.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected insufficient funds with balance 3000, got %v", err)
	}

	history, err := f.svc.History(ctx, w.ID, pagination.Page{Number: 1, Size: 1})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Items) != 1 || !history.HasMore {
		t.Fatalf("expected one item and more pages, got %+v", history)
	}
	newest := history.Items[0]
	if newest.Kind != ledger.KindDebit || !newest.Amount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected unsigned debit of 2000 first, got %+v", newest)
	}

	history, err = f.svc.History(ctx, w.ID, pagination.Page{Number: 2, Size: 1})
	if err != nil {
		t.Fatalf("history page 2: %v", err)
	}
	if len(history.Items) != 1 || history.HasMore || history.Items[0].Kind != ledger.KindCredit {
		t.Fatalf("unexpected second page %+v", history)
	}

	fetched, err := f.svc.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !fetched.Balance.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("expected overlay balance 3000, got %s", fetched.Balance)
	}
}

func TestServiceHistoryUnknownWallet(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.History(context.Background(), "missing", pagination.Page{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceHistoryHugePageNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := f.customer(t, "ada@example.com")
	w, err := f.svc.Create(ctx, CreateInput{Owner: ref, Name: "main"})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := f.svc.Credit(ctx, w.ID, decimal.NewFromInt(10), ""); err != nil {
		t.Fatalf("credit: %v", err)
	}

	history, err := f.svc.History(ctx, w.ID, pagination.Page{Number: math.MaxInt64/10 + 2, Size: 10})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Items) != 0 || history.HasMore {
		t.Fatalf("expected an empty page, got %+v", history)
	}
	if history.Page.Number != pagination.MaxNumber {
		t.Fatalf("expected page number clamped to %d, got %d", pagination.MaxNumber, history.Page.Number)
	}

	wallets, err := f.svc.List(ctx, pagination.Page{Number: math.MaxInt, Size: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wallets.Items) != 0 {
		t.Fatalf("expected no wallets past the end, got %d", len(wallets.Items))
	}
}
