package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paywallet/wallet_ledger/internal/notification"
)

// Outcome is what a run produced. ArtifactPath is empty when nothing drifted.
type Outcome struct {
	Report
	ArtifactPath string
}

// Job runs a scan and reports its findings.
type Job struct {
	scanner  *Scanner
	reports  ReportWriter
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewJob wires a scanner to its report writer and notifier. notifier may be nil.
func NewJob(scanner *Scanner, reports ReportWriter, notifier notification.Notifier, logger *slog.Logger) *Job {
	return &Job{
		scanner:  scanner,
		reports:  reports,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run scans every wallet. When drift exists the rows are written to an
// artifact and "inconsistency found" is signalled; otherwise no artifact is
// produced and "no inconsistency" is signalled.
func (j *Job) Run(ctx context.Context) (Outcome, error) {
	started := j.now()
	report, err := j.scanner.Scan(ctx)
	if err != nil {
		j.logger.Error("reconciliation failed", slog.Int("checked", report.CheckedCount), slog.Any("error", err))
		return Outcome{Report: report}, err
	}

	outcome := Outcome{Report: report}
	if !report.HasDrift() {
		j.logger.Info("no inconsistency found", slog.Int("checked", report.CheckedCount))
		j.notify(ctx, notification.KindReconciliationClean,
			fmt.Sprintf("%d wallets checked, no inconsistency found", report.CheckedCount))
		return outcome, nil
	}

	path, err := j.reports.Write(report, started)
	if err != nil {
		j.logger.Error("write reconciliation report", slog.Int("drift", len(report.Drift)), slog.Any("error", err))
		return outcome, fmt.Errorf("write report: %w", err)
	}
	outcome.ArtifactPath = path

	j.logger.Warn("inconsistency found",
		slog.Int("checked", report.CheckedCount),
		slog.Int("drift", len(report.Drift)),
		slog.String("file", path),
	)
	j.notify(ctx, notification.KindReconciliationDrift,
		fmt.Sprintf("%d inconsistent wallets found. File: %s", len(report.Drift), path))
	return outcome, nil
}

func (j *Job) notify(ctx context.Context, kind, body string) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.Send(ctx, notification.Message{Kind: kind, Destination: "operations", Body: body}); err != nil {
		j.logger.Warn("reconciliation notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
