package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Both SQLite drivers are linked; config selects one by driver name.
	// mattn/go-sqlite3 needs cgo, modernc.org/sqlite is pure Go.
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
)

// SQLiteStore persists records in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) the database at the configured
// path, applies the connection pragmas, and migrates the schema.
func NewSQLiteStore(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sqlite_store")

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.applyPragmas(cfg); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite store ready", "path", cfg.Path, "driver", cfg.Driver)
	return s, nil
}

func (s *SQLiteStore) applyPragmas(cfg config.SQLiteConfig) error {
	if cfg.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	if cfg.BusyTimeout > 0 {
		stmt := fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds())
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("setting busy timeout: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(createSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_info LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summary_requests
			(id, input_text, summary_text, client_origin, total_tokens, cost_usd, created_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.InputText, rec.SummaryText, rec.ClientOrigin,
		rec.TotalTokens, rec.CostUSD, rec.CreatedAt.UTC(), nullableTime(rec.CompletedAt), rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, upd Update) error {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	applyUpdate(rec, upd)

	res, err := s.db.ExecContext(ctx, `
		UPDATE summary_requests
		SET summary_text = ?, total_tokens = ?, cost_usd = ?, completed_at = ?, error_message = ?
		WHERE id = ?`,
		rec.SummaryText, rec.TotalTokens, rec.CostUSD, nullableTime(rec.CompletedAt), rec.ErrorMessage, id,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input_text, summary_text, client_origin, total_tokens, cost_usd, created_at, completed_at, error_message
		FROM summary_requests WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input_text, summary_text, client_origin, total_tokens, cost_usd, created_at, completed_at, error_message
		FROM summary_requests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM summary_requests WHERE completed_at IS NOT NULL AND completed_at < ?",
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting completed records: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) MarkAbandonedBefore(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE summary_requests
		SET completed_at = ?, error_message = ?
		WHERE completed_at IS NULL AND created_at < ?`,
		time.Now().UTC(), message, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("marking abandoned records: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var completedAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.InputText, &rec.SummaryText, &rec.ClientOrigin,
		&rec.TotalTokens, &rec.CostUSD, &rec.CreatedAt, &completedAt, &rec.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
