package reconcile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paywallet/wallet_ledger/internal/ledger"
)

// ReportWriter persists the drift rows of a report and returns where they went.
type ReportWriter interface {
	Write(report Report, at time.Time) (string, error)
}

var csvHeader = []string{"Wallet ID", "Owner ID", "Owner Type", "Expected Balance", "Actual Balance", "Balance Difference"}

// CSVReportWriter writes inconsistent_wallets_YYYY_MM_DD_HHMMSS.csv files into Dir.
type CSVReportWriter struct {
	Dir string
}

// NewCSVReportWriter builds a writer targeting dir, created on first use.
func NewCSVReportWriter(dir string) *CSVReportWriter {
	return &CSVReportWriter{Dir: dir}
}

// FileName returns the artifact name for a run started at t.
func FileName(t time.Time) string {
	return "inconsistent_wallets_" + t.Format("2006_01_02_150405") + ".csv"
}

// Write creates the artifact. A partially written file is removed.
func (w *CSVReportWriter) Write(report Report, at time.Time) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(w.Dir, FileName(at))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if err := writeRows(f, report); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

func writeRows(f *os.File, report Report) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range report.Drift {
		row := []string{
			d.WalletID,
			d.OwnerID,
			string(d.OwnerKind),
			d.Expected.StringFixed(ledger.Scale),
			d.Actual.StringFixed(ledger.Scale),
			d.Difference.StringFixed(ledger.Scale),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
