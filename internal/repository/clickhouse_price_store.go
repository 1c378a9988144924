package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	domrepo "FinCast/internal/domain/repository"
	pkgch "FinCast/pkg/clickhouse"
	applogger "FinCast/pkg/logger"
)

var _ domrepo.PriceStore = (*CHPriceStore)(nil)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHPriceStore reads daily closes from a ClickHouse table with the columns
// (symbol, day, close).
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, table string, l *applogger.Logger) (*CHPriceStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	return &CHPriceStore{db: ch.DB(), table: table, l: l}, nil
}

// Schema is the DDL for the closes table. ReplacingMergeTree keeps the last
// write per (symbol, day).
func (s *CHPriceStore) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            day    Date,
            close  Float64,
            updated_at DateTime DEFAULT now()
        )
        ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (symbol, day)
    `, s.table)}
}

func latestClosesQuery(table string) string {
	return fmt.Sprintf(`
        SELECT close
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY day DESC
        LIMIT ?
    `, table)
}

// LatestCloses returns up to n closes, oldest first.
func (s *CHPriceStore) LatestCloses(ctx context.Context, symbol string, n int) ([]float64, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, latestClosesQuery(s.table), symbol, n)
	if err != nil {
		s.l.Error("clickhouse latest_closes query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("latest closes: %w", err)
	}
	defer rows.Close()

	out := make([]float64, 0, n)
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(out)

	s.l.Debug("clickhouse latest_closes ok",
		applogger.String("symbol", symbol),
		applogger.Int("limit", n),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func reverse(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
