// Command reconcile runs one reconciliation pass over every wallet and exits.
// The summary line goes to stdout; logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paywallet/wallet_ledger/internal/bootstrap"
	"github.com/paywallet/wallet_ledger/internal/config"
	"github.com/paywallet/wallet_ledger/internal/logging"
)

func main() {
	pageSize := flag.Int("page-size", 0, "wallets per page (defaults to RECONCILE_PAGE_SIZE)")
	reportDir := flag.String("report-dir", "", "directory for the drift report (defaults to REPORT_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *pageSize > 0 {
		cfg.ReconcilePageSize = *pageSize
	}
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer deps.Close()

	outcome, err := deps.Reconcile.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		deps.Close()
		os.Exit(1)
	}

	if outcome.HasDrift() {
		fmt.Printf("Command completed. %d inconsistent wallets found. File: %s\n", len(outcome.Drift), outcome.ArtifactPath)
		return
	}
	fmt.Println("Command completed. No inconsistency found")
}
