package notification

import (
	"context"
	"log/slog"
)

const (
	// KindReconciliationDrift reports that a reconciliation run found wallets
	// whose balance disagrees with their ledger.
	KindReconciliationDrift = "reconciliation_drift"

	// KindReconciliationClean reports a run that found no inconsistency.
	KindReconciliationClean = "reconciliation_clean"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	level := slog.LevelInfo
	if message.Kind == KindReconciliationDrift {
		level = slog.LevelWarn
	}
	n.logger.Log(context.Background(), level, "notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}
