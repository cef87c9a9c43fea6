package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// PostgresWriter mirrors persisted listings and cycle runs into PostgreSQL.
// The JSON state document remains the source of truth.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw := newPostgresWriter(db)
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func newPostgresWriter(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS apartments (
			id              TEXT        PRIMARY KEY,
			title           TEXT        NOT NULL DEFAULT '',
			price           TEXT        NOT NULL DEFAULT '',
			location        TEXT        NOT NULL DEFAULT '',
			link            TEXT        NOT NULL DEFAULT '',
			area_m2         INTEGER,
			check_index     INTEGER     NOT NULL,
			check_timestamp TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS check_runs (
			check_index    INTEGER     PRIMARY KEY,
			run_id         TEXT        NOT NULL,
			total_found    INTEGER     NOT NULL,
			total_filtered INTEGER     NOT NULL,
			total_novel    INTEGER     NOT NULL,
			finished_at    TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_apartments_check_index ON apartments(check_index);
		CREATE INDEX IF NOT EXISTS idx_apartments_location    ON apartments(location);
	`)
	return err
}

// Write records the cycle and inserts its novel listings in one transaction.
// Listings already present are left untouched.
func (pw *PostgresWriter) Write(ctx context.Context, report *models.CycleReport, listings []models.PersistedListing) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO check_runs (check_index, run_id, total_found, total_filtered, total_novel, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (check_index) DO NOTHING
	`, report.CheckIndex, report.RunID, report.TotalFound, report.TotalFiltered,
		report.NovelCount(), report.FinishedAt); err != nil {
		return fmt.Errorf("postgres: insert check run: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := insertBatch(ctx, tx, listings[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []models.PersistedListing) error {
	const cols = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))

		var area sql.NullInt64
		if l.Area != nil {
			area = sql.NullInt64{Int64: int64(*l.Area), Valid: true}
		}
		valueArgs = append(valueArgs,
			l.ID, l.Title, l.Price, l.Location, l.Link, area, l.CheckIndex, l.CheckTimestamp)
	}

	query := fmt.Sprintf(`
		INSERT INTO apartments (id, title, price, location, link, area_m2, check_index, check_timestamp)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert apartments: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
