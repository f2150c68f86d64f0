package pos

import (
	"strings"
	"testing"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

func TestParseAggregatesPerDay(t *testing.T) {
	csvBody := `date,amount,type
2026-03-01,"$1,200.50",sale
2026-03-01,300,sale
2026-03-01,450,expense
2026-03-03,200,sale
`
	res, err := Parse(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("unexpected skips: %v", res.Skipped)
	}
	if res.Days != 3 {
		t.Fatalf("day span: got %d want 3", res.Days)
	}

	byKey := map[string]float64{}
	for _, r := range res.Records {
		byKey[r.Date+"/"+r.Metric] = r.Value
	}
	if byKey["2026-03-01/cash_in"] != 1500.50 {
		t.Fatalf("day 1 inflow: got %v want 1500.50", byKey["2026-03-01/cash_in"])
	}
	if byKey["2026-03-01/cash_out"] != 450 {
		t.Fatalf("day 1 outflow: got %v want 450", byKey["2026-03-01/cash_out"])
	}
	// The gap day is filled with zero inflow so the series is complete.
	if v, ok := byKey["2026-03-02/cash_in"]; !ok || v != 0 {
		t.Fatalf("gap day must be zero-filled, got %v (present %v)", v, ok)
	}
}

func TestParseSkipsBadRowsWithDiagnostics(t *testing.T) {
	csvBody := `date,amount
2026-03-01,100
yesterday,50
2026-03-02,lots
2026-03-02,75
`
	res, err := Parse(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped: got %d want 2", len(res.Skipped))
	}
	if res.Skipped[0].Line != 3 || res.Skipped[1].Line != 4 {
		t.Fatalf("diagnostics must carry line numbers: %v", res.Skipped)
	}
}

func TestParseNegativeAmountIsOutflow(t *testing.T) {
	res, err := Parse(strings.NewReader("date,amount\n2026-03-01,-80\n2026-03-01,100\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	byMetric := map[string]float64{}
	for _, r := range res.Records {
		byMetric[r.Metric] = r.Value
	}
	if byMetric["cash_out"] != 80 || byMetric["cash_in"] != 100 {
		t.Fatalf("split: got %v", byMetric)
	}
}

func TestParseAlternateDateFormat(t *testing.T) {
	res, err := Parse(strings.NewReader("date,amount\n03/01/2026,100\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Records[0].Date != "2026-03-01" {
		t.Fatalf("date normalization: got %q", res.Records[0].Date)
	}
	if res.Records[0].Source != string(models.SourceTransactions) {
		t.Fatalf("source: got %q", res.Records[0].Source)
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	res, err := Parse(strings.NewReader("\ufeffdate,amount\n2026-03-01,100\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Records) == 0 || res.Records[0].Metric != "cash_in" {
		t.Fatalf("header with BOM not recognized: %+v", res.Records)
	}
}

func TestParseRejectsUnusableFiles(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !models.IsKind(err, models.KindInvalidSignal) {
		t.Fatalf("empty file: expected invalid_signal, got %v", err)
	}
	if _, err := Parse(strings.NewReader("when,how_much\n2026-03-01,100\n")); !models.IsKind(err, models.KindInvalidSignal) {
		t.Fatalf("missing columns: expected invalid_signal, got %v", err)
	}
	if _, err := Parse(strings.NewReader("date,amount\nbad,worse\n")); !models.IsKind(err, models.KindInvalidSignal) {
		t.Fatalf("no valid rows: expected invalid_signal, got %v", err)
	}
}
