package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"event-dashboard/models"
	"event-dashboard/utils"
)

// Supported database/sql drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const batchSize = 50

// Schema names the table and columns events are written to.
type Schema struct {
	Table           string
	TimestampColumn string
	EventColumn     string
	ActorColumn     string
}

// DefaultSchema is the layout the dashboard has always used.
func DefaultSchema() Schema {
	return Schema{
		Table:           "Eventos",
		TimestampColumn: "Marca de tiempo",
		EventColumn:     "Evento",
		ActorColumn:     "Usuario",
	}
}

// SQLStore persists normalized events to SQLite or PostgreSQL.
type SQLStore struct {
	db     *sql.DB
	driver string
	schema Schema
	logger *utils.Logger
}

// NewSQLStore opens the database, waits for it to answer and returns a
// ready-to-use SQLStore.
func NewSQLStore(ctx context.Context, driver, dsn string, schema Schema, logger *utils.Logger) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	if schema.Table == "" {
		schema.Table = DefaultSchema().Table
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "storage ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	return &SQLStore{db: db, driver: driver, schema: schema, logger: logger}, nil
}

// Replace drops and recreates the table, then batch-inserts all events in
// one transaction.
func (s *SQLStore) Replace(ctx context.Context, events []models.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdent(s.schema.Table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("storage: drop table: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s TIMESTAMP NOT NULL, %s TEXT, %s TEXT NOT NULL)`,
		table,
		quoteIdent(s.schema.TimestampColumn),
		quoteIdent(s.schema.EventColumn),
		quoteIdent(s.schema.ActorColumn))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("storage: create table: %w", err)
	}
	index := fmt.Sprintf(`CREATE INDEX %s ON %s (%s)`,
		quoteIdent("idx_"+s.schema.Table+"_actor"), table, quoteIdent(s.schema.ActorColumn))
	if _, err := tx.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("storage: create index: %w", err)
	}

	for i := 0; i < len(events); i += batchSize {
		end := i + batchSize
		if end > len(events) {
			end = len(events)
		}
		if err := s.insertBatch(ctx, tx, events[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("[storage] Replaced table %s with %d events", s.schema.Table, len(events))
	}
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []models.EventRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*3)

	for idx, e := range batch {
		base := idx * 3
		valueStrings = append(valueStrings,
			fmt.Sprintf("(%s,%s,%s)", s.placeholder(base+1), s.placeholder(base+2), s.placeholder(base+3)))

		desc := sql.NullString{}
		if e.Description != nil {
			desc = sql.NullString{String: *e.Description, Valid: true}
		}
		valueArgs = append(valueArgs, e.Timestamp.UTC(), desc, e.Actor)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES %s`,
		quoteIdent(s.schema.Table),
		quoteIdent(s.schema.TimestampColumn),
		quoteIdent(s.schema.EventColumn),
		quoteIdent(s.schema.ActorColumn),
		strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("storage: insert batch: %w", err)
	}
	return nil
}

// CountByActor runs the grouped query behind the proportion chart.
func (s *SQLStore) CountByActor(ctx context.Context) ([]models.ActorCount, error) {
	actor := quoteIdent(s.schema.ActorColumn)
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) AS Frecuencia
		FROM %s
		GROUP BY %s
		ORDER BY Frecuencia DESC, %s
	`, actor, quoteIdent(s.schema.Table), actor, actor)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: count by actor: %w", err)
	}
	defer rows.Close()

	counts := make([]models.ActorCount, 0)
	for rows.Next() {
		var c models.ActorCount
		if err := rows.Scan(&c.Actor, &c.Count); err != nil {
			return nil, fmt.Errorf("storage: scan count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// FetchAll retrieves every stored event in insertion order.
func (s *SQLStore) FetchAll(ctx context.Context) ([]models.EventRecord, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s`,
		quoteIdent(s.schema.TimestampColumn),
		quoteIdent(s.schema.EventColumn),
		quoteIdent(s.schema.ActorColumn),
		quoteIdent(s.schema.Table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch all: %w", err)
	}
	defer rows.Close()

	events := make([]models.EventRecord, 0)
	for rows.Next() {
		var (
			e    models.EventRecord
			desc sql.NullString
		)
		if err := rows.Scan(&e.Timestamp, &desc, &e.Actor); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		if desc.Valid {
			d := desc.String
			e.Description = &d
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// quoteIdent double-quotes an identifier; both dialects accept the form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
