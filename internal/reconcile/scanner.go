package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/paywallet/wallet_ledger/internal/owner"
)

// DefaultPageSize bounds how many wallets are held in memory per step.
const DefaultPageSize = 500

// DriftEntry is a wallet whose cached balance disagrees with its ledger.
// Expected is the ledger sum, Actual the cached balance.
type DriftEntry struct {
	WalletID   string
	OwnerID    string
	OwnerKind  owner.Kind
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
}

// Report is the outcome of one full scan.
type Report struct {
	CheckedCount int
	Drift        []DriftEntry
}

// HasDrift reports whether any wallet was inconsistent.
func (r Report) HasDrift() bool {
	return len(r.Drift) > 0
}

// Scanner walks every wallet and compares its balance with its ledger. It
// never writes.
type Scanner struct {
	source   Source
	pageSize int
	logger   *slog.Logger
}

// NewScanner builds a scanner. A non-positive pageSize falls back to DefaultPageSize.
func NewScanner(source Source, pageSize int, logger *slog.Logger) *Scanner {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Scanner{source: source, pageSize: pageSize, logger: logger}
}

// Scan checks all wallets page by page. Drift rows are in iteration order.
// Cancellation is honoured between pages.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	var (
		report Report
		after  string
		pages  int
	)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := s.source.Page(ctx, after, s.pageSize)
		if err != nil {
			return report, fmt.Errorf("read page after %q: %w", after, err)
		}
		pages++

		for _, snap := range page {
			report.CheckedCount++
			if snap.Balance.Equal(snap.LedgerSum) {
				continue
			}
			report.Drift = append(report.Drift, DriftEntry{
				WalletID:   snap.WalletID,
				OwnerID:    snap.Owner.ID,
				OwnerKind:  snap.Owner.Kind,
				Expected:   snap.LedgerSum,
				Actual:     snap.Balance,
				Difference: snap.LedgerSum.Sub(snap.Balance).Abs(),
			})
		}

		if len(page) < s.pageSize {
			break
		}
		after = page[len(page)-1].WalletID
	}

	s.logger.Debug("reconciliation scan finished",
		slog.Int("pages", pages),
		slog.Int("checked", report.CheckedCount),
		slog.Int("drift", len(report.Drift)),
	)
	return report, nil
}
