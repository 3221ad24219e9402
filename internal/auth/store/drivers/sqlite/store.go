package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/store/drivers/sqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Pragmas applied to every pooled connection. foreign_keys is per
// connection in SQLite, so it has to ride on the DSN rather than a one-off
// PRAGMA statement.
const defaultPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

var dialect = sqldb.Dialect{
	Name:              "sqlite",
	IsUniqueViolation: isUniqueViolation,
}

type Store struct {
	*sqldb.Store
	dsn string
}

// NewStore opens a SQLite database. dsn is a file path (or ":memory:") with
// optional query parameters; foreign keys and a busy timeout are always on.
func NewStore(dsn string) (*Store, error) {
	dsn = withPragmas(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is its own database.
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}

	return &Store{
		Store: sqldb.NewStore(db, dialect),
		dsn:   dsn,
	}, nil
}

// withPragmas adds what the DSN does not already set. File databases also
// get WAL so readers never block the writer.
func withPragmas(dsn string) string {
	var extra []string
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		extra = append(extra, defaultPragmas)
	}
	if !isMemory(dsn) && !strings.Contains(dsn, "journal_mode") {
		extra = append(extra, "_pragma=journal_mode(WAL)")
	}
	if len(extra) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

func isMemory(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// Without extended result codes only the primary code is set.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
