// Package sink stores reconciled monthly tables in an SQL database.
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"kastelo.dev/yield"
	_ "modernc.org/sqlite"
)

// Stored columns: the run bookkeeping followed by the table layout.
var columns = []string{
	"run_id", "line", "kind", "order_key",
	"order_label", "dimension",
	"stem_count", "input_volume", "avg_stem_count", "total_parts",
	"diameter", "strength_class", "runtime_minutes", "feed_rate",
	"gross_volume", "gross_waste_pct", "net_volume",
	"gross_yield_pct", "net_yield_pct",
	"ce", "sf", "si", "ind", "nsi", "qv", "waste_volume",
	"created_at",
}

type SQL struct {
	db     *sql.DB
	driver string
	table  string
	log    *zap.Logger
}

// Open connects to the database. Driver is "postgres" or "sqlite".
func Open(driver, dsn, table string, log *zap.Logger) (*SQL, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if table == "" {
		return nil, fmt.Errorf("no table name")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection, so that ":memory:" is one database
		db.SetMaxOpenConns(1)
	}
	return &SQL{db: db, driver: driver, table: table, log: log}, nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) createTable(ctx context.Context) error {
	var defs []string
	for _, c := range columns {
		typ := "DOUBLE PRECISION"
		switch c {
		case "run_id", "kind", "order_key", "order_label", "dimension", "strength_class":
			typ = "TEXT NOT NULL"
		case "line":
			typ = "INTEGER NOT NULL"
		case "created_at":
			typ = "TIMESTAMP NOT NULL"
		case "diameter":
			// empty when the order's diameter could not be computed
		default:
			typ += " NOT NULL"
		}
		defs = append(defs, pq.QuoteIdentifier(c)+" "+typ)
	}
	defs = append(defs, "PRIMARY KEY ("+pq.QuoteIdentifier("run_id")+", "+pq.QuoteIdentifier("line")+")")

	q := "CREATE TABLE IF NOT EXISTS " + pq.QuoteIdentifier(s.table) + " (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func values(runID string, line int, r yield.Row, now time.Time) []any {
	var diameter sql.NullFloat64
	if r.Kind == yield.DimensionRow || r.HasDiameter {
		diameter = sql.NullFloat64{Float64: r.Diameter, Valid: true}
	}
	return []any{
		runID, line, r.Kind.String(), string(r.OrderKey),
		r.Order, r.Dimension,
		r.StemCount, r.InputVolume, r.AvgStemCount, r.TotalParts,
		diameter, r.StrengthClass, r.RuntimeMinutes, r.FeedRate,
		r.GrossVolume, r.GrossWastePct, r.NetVolume,
		r.GrossYieldPct, r.NetYieldPct,
		r.Quality[yield.CE], r.Quality[yield.SF], r.Quality[yield.SI],
		r.Quality[yield.IND], r.Quality[yield.NSI], r.Quality[yield.QV],
		r.WasteVolume,
		now,
	}
}

// Write stores the rows of one run in a single transaction, numbering them
// from 1 in table order.
func (s *SQL) Write(ctx context.Context, runID string, rows []yield.Row) error {
	if err := s.createTable(ctx); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var query string
	if s.driver == "postgres" {
		query = pq.CopyIn(s.table, columns...)
	} else {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		query = "INSERT INTO " + pq.QuoteIdentifier(s.table) +
			" (" + strings.Join(quoted, ", ") + ") VALUES (" +
			strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, values(runID, i+1, r, now)...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if s.driver == "postgres" {
		// flush the COPY buffer
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("Stored rows", zap.String("run", runID), zap.String("table", s.table), zap.Int("rows", len(rows)))
	return nil
}

// Count returns the number of stored rows of a run.
func (s *SQL) Count(ctx context.Context, runID string) (int, error) {
	var n int
	q := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(s.table) + " WHERE " + pq.QuoteIdentifier("run_id") + " = " + s.placeholder(1)
	err := s.db.QueryRowContext(ctx, q, runID).Scan(&n)
	return n, err
}

func (s *SQL) placeholder(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
