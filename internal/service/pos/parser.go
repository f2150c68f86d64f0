package pos

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
)

// dateFormats covers what point-of-sale exports actually produce.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// RowError is a per-row diagnostic. Malformed rows are skipped, never
// fatal to the upload.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result is the parsed upload: per-day aggregated transaction records
// plus the rows that could not be used.
type Result struct {
	Records []models.IngestRecord `json:"records"`
	Skipped []RowError            `json:"skipped,omitempty"`
	Days    int                   `json:"days"`
}

// Parse reads a POS CSV export with date, amount and an optional type
// column, sums amounts per day and direction, and fills interior day
// gaps with zero-revenue records so downstream aggregation sees a
// complete series. Returns an error only when the file itself is
// unusable (no header, missing required columns, or zero valid rows).
func Parse(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, models.E(models.KindInvalidSignal, "csv has no header")
	}
	dateCol, amountCol, typeCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "date":
			dateCol = i
		case "amount", "revenue":
			amountCol = i
		case "type", "direction":
			typeCol = i
		}
	}
	if dateCol < 0 || amountCol < 0 {
		return nil, models.E(models.KindInvalidSignal, "csv missing required columns date and amount, got %v", header)
	}

	res := &Result{}
	inByDay := map[string]float64{}
	outByDay := map[string]float64{}
	var minDay, maxDay time.Time

	line := 1
	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Message: "unreadable row"})
			continue
		}
		if dateCol >= len(row) || amountCol >= len(row) {
			res.Skipped = append(res.Skipped, RowError{Line: line, Message: "short row"})
			continue
		}

		day, err := parseDay(row[dateCol])
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Message: err.Error()})
			continue
		}
		amount, err := parseAmount(row[amountCol])
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Message: err.Error()})
			continue
		}

		outflow := false
		if typeCol >= 0 && typeCol < len(row) {
			switch strings.ToLower(strings.TrimSpace(row[typeCol])) {
			case "out", "expense", "refund", "payout":
				outflow = true
			}
		}
		if amount < 0 {
			// Negative amounts are outflow regardless of the type column.
			outflow = true
			amount = -amount
		}

		key := day.Format("2006-01-02")
		if outflow {
			outByDay[key] += amount
		} else {
			inByDay[key] += amount
		}
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}

	if len(inByDay) == 0 && len(outByDay) == 0 {
		return nil, models.E(models.KindInvalidSignal, "no valid date/amount rows in csv")
	}

	for d := minDay; !d.After(maxDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		res.Records = append(res.Records, models.IngestRecord{
			Source: string(models.SourceTransactions),
			Metric: "cash_in",
			Date:   key,
			Value:  inByDay[key],
			Unit:   "usd",
		})
		if v, ok := outByDay[key]; ok {
			res.Records = append(res.Records, models.IngestRecord{
				Source: string(models.SourceTransactions),
				Metric: "cash_out",
				Date:   key,
				Value:  v,
				Unit:   "usd",
			})
		}
		res.Days++
	}
	sort.Slice(res.Records, func(i, j int) bool {
		if res.Records[i].Date != res.Records[j].Date {
			return res.Records[i].Date < res.Records[j].Date
		}
		return res.Records[i].Metric < res.Records[j].Metric
	})
	return res, nil
}

func parseDay(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

func parseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount %q", raw)
	}
	return v, nil
}
