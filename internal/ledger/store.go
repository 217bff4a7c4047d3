package ledger

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaFS embed.FS

// Ledger is the append-only stack ledger and its current-balance index
// (§4.3), backed by a Postgres connection pool.
type Ledger struct {
	db *sql.DB
}

// Open connects to the relational store and ensures its schema exists.
func Open(connStr string) (*Ledger, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	l := &Ledger{db: db}
	if err := l.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}

	return l, nil
}

// New wraps an already-open database handle, skipping schema initialization.
// Used by tests against a mocked *sql.DB.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// DB exposes the pool so composite operations (internal/actions) can open
// their own externally owned transactions.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

func (l *Ledger) initializeSchema() error {
	log.Info().Msg("initializing ledger schema")

	content, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema file: %w", err)
	}

	for i, stmt := range splitSQLStatements(string(content)) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := l.db.Exec(stmt); err != nil {
			if isIgnorableError(err) {
				log.Debug().Int("statement", i).Err(err).Msg("ignoring expected schema error")
				continue
			}
			return fmt.Errorf("execute schema statement %d: %w", i, err)
		}
	}

	return nil
}

// splitSQLStatements splits a .sql file's content on top-level semicolons,
// tracking single-quoted strings so semicolons inside literals aren't
// treated as statement boundaries.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	escape := false

	for _, ch := range sql {
		current.WriteRune(ch)

		if escape {
			escape = false
			continue
		}

		switch ch {
		case '\\':
			escape = true
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				statements = append(statements, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}

func isIgnorableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"already exists", "duplicate key", "unique constraint"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
