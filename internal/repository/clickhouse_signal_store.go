package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	domrepo "github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/repository"
)

// ClickHouseSignalStore implements SignalStore on ClickHouse. The table
// is a ReplacingMergeTree keyed (metric, day, source): re-ingesting an
// identity writes a new version and reads collapse to the latest with
// FINAL, which gives last-write-wins without client-side bookkeeping.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseSignalStore(db *sql.DB, table string) *ClickHouseSignalStore {
	if table == "" {
		table = "signals"
	}
	return &ClickHouseSignalStore{db: db, table: table}
}

var _ domrepo.SignalStore = (*ClickHouseSignalStore)(nil)

// Schema returns the idempotent DDL for the signal table.
func (s *ClickHouseSignalStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		source LowCardinality(String),
		metric String,
		day Date,
		value Float64,
		unit LowCardinality(String),
		ingested_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(ingested_at)
	ORDER BY (metric, day, source)`, s.table)}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init signals schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalStore) Put(ctx context.Context, sig *models.Signal) error {
	return s.PutBatch(ctx, []*models.Signal{sig})
}

func (s *ClickHouseSignalStore) PutBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.Metric == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				string(sig.Source),
				sig.Metric,
				domrepo.DayOf(sig.Timestamp),
				sig.Value,
				sig.Unit,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (source, metric, day, value, unit) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert signals: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalStore) Range(ctx context.Context, metric string, from, to time.Time) ([]*models.Signal, error) {
	q := fmt.Sprintf("SELECT source, metric, day, value, unit FROM %s FINAL WHERE metric = ? AND day >= ? AND day <= ? ORDER BY day ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q, metric, domrepo.DayOf(from), domrepo.DayOf(to))
	if err != nil {
		return nil, fmt.Errorf("range signals: %w", err)
	}
	defer rows.Close()

	var out []*models.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Latest(ctx context.Context, metric string) (*models.Signal, error) {
	q := fmt.Sprintf("SELECT source, metric, day, value, unit FROM %s FINAL WHERE metric = ? ORDER BY day DESC LIMIT 1", s.table)
	rows, err := s.db.QueryContext(ctx, q, metric)
	if err != nil {
		return nil, fmt.Errorf("latest signal: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	sig, err := scanSignal(rows)
	if err != nil {
		return nil, err
	}
	return sig, rows.Err()
}

func scanSignal(rows *sql.Rows) (*models.Signal, error) {
	var sig models.Signal
	var source string
	var day time.Time
	if err := rows.Scan(&source, &sig.Metric, &day, &sig.Value, &sig.Unit); err != nil {
		return nil, fmt.Errorf("scan signal: %w", err)
	}
	sig.Source = models.Source(source)
	sig.Timestamp = domrepo.DayOf(day)
	return &sig, nil
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // pool owned by pkg/clickhouse client
}
