package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect isolates the SQL differences between the supported backends.
type Dialect interface {
	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(config DialectConfig) string

	// RewriteQuery converts `?` placeholders if the driver needs another form.
	RewriteQuery(query string) string

	// ConfigureConnection applies pool settings and session pragmas.
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the embedded migrations directory.
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the DDL of the migrations ledger.
	CreateMigrationsTableQuery() string
}

// DialectConfig holds connection settings.
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
// Question marks inside single-quoted literals are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	var (
		b       strings.Builder
		n       int
		inQuote bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
