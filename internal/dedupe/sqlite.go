package dedupe

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultSQLiteTable = "seen_reviews"
	SQLiteFileName     = "reviewbot.db"
)

// SQLiteStore is the SeenStore used with STATE_BACKEND=sqlite. Rows are keyed by
// (platform, locale, id); Android rows use an empty locale.
type SQLiteStore struct {
	db         *sql.DB
	table      string
	tableIdent string
}

func NewSQLiteStore(dsn string, table string) (*SQLiteStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if table == "" {
		table = defaultSQLiteTable
	}
	tableIdent, err := quoteSQLiteIdentifier(table)
	if err != nil {
		return nil, err
	}
	if err := ensureSQLiteDir(dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{
		db:         db,
		table:      table,
		tableIdent: tableIdent,
	}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) HasSeen(ctx context.Context, scope Scope, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE platform = ? AND locale = ? AND id = ?", s.tableIdent)
	err := s.db.QueryRowContext(ctx, query, string(scope.Platform), scope.Locale, id).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) MarkSeen(ctx context.Context, scope Scope, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf("INSERT INTO %s (platform, locale, id, seen_at) VALUES (?, ?, ?, ?) ON CONFLICT(platform, locale, id) DO NOTHING", s.tableIdent),
		string(scope.Platform),
		scope.Locale,
		id,
		time.Now().UTC(),
	)
	return err
}

// IDs lists the ids recorded for a scope in insertion order.
func (s *SQLiteStore) IDs(ctx context.Context, scope Scope) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE platform = ? AND locale = ? ORDER BY rowid", s.tableIdent),
		string(scope.Platform),
		scope.Locale,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		platform TEXT NOT NULL,
		locale TEXT NOT NULL DEFAULT '',
		id TEXT NOT NULL,
		seen_at TIMESTAMP NOT NULL,
		PRIMARY KEY (platform, locale, id)
	)`, s.tableIdent)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sqlite table: %w", err)
	}
	return nil
}

func ensureSQLiteDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") {
		dsn = strings.TrimPrefix(dsn, "file:")
		if idx := strings.IndexRune(dsn, '?'); idx >= 0 {
			dsn = dsn[:idx]
		}
	}
	if dsn == "" || dsn == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var sqliteIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteSQLiteIdentifier(identifier string) (string, error) {
	if !sqliteIdentifierPattern.MatchString(identifier) {
		return "", fmt.Errorf("sqlite table name %q must match %s", identifier, sqliteIdentifierPattern.String())
	}
	return `"` + identifier + `"`, nil
}
