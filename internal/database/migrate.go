package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded migrations for the active dialect.
//
//   - A migrations table records applied file names.
//   - Files run in lexical order; applied ones are skipped.
//   - Each file runs in its own transaction, statement by statement.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	dir := path.Join("migrations", db.Dialect.MigrationsSubdir())
	files, err := fs.Glob(migrationsFS, dir+"/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := path.Base(f)
		var done int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations WHERE filename = ?`, name).Scan(&done); err != nil {
			return fmt.Errorf("query migrations: %w", err)
		}
		if done > 0 {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}

		body, err := fs.ReadFile(migrationsFS, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		err = db.InTx(ctx, func(tx *Tx) error {
			for _, stmt := range splitStatements(string(body)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("apply %s: %w", name, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO migrations (filename) VALUES (?)`, name); err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info().Str("migration", name).Str("dialect", db.Dialect.MigrationsSubdir()).Msg("applied")
	}
	return nil
}

// splitStatements cuts a migration into single statements so drivers
// without multi-statement support can run it. Statements end with a
// semicolon at end of line; `--` comment lines are dropped.
func splitStatements(sqlText string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(sqlText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			if s := strings.TrimSpace(cur.String()); s != ";" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
