package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var ledgerHeader = []string{
	"index",
	"start",
	"end",
	"region",
	"price",
	"label",
	"action",
	"raw_mwh",
	"market_dispatch_mwh",
	"opening_mwh",
	"closing_mwh",
	"revenue",
	"cum_revenue",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteLedger(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

// WriteLedger writes the ledger as CSV with a header row.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(ledgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			fmtTime(r.End),
			r.Region,
			fmtFloat(r.Price),
			strconv.Itoa(int(r.Label)),
			string(r.Action),
			fmtFloat(r.RawMWh),
			fmtFloat(r.MarketDispatchMWh),
			fmtFloat(r.OpeningMWh),
			fmtFloat(r.ClosingMWh),
			fmtFloat(r.Revenue),
			fmtFloat(r.CumRevenue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
