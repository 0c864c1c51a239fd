// Package schema provisions the hosted store's relational schema.
//
// The same embedded migration files feed three execution channels, tried
// most- to least-capable:
//
//  1. a direct Postgres connection (operator-supplied DSN), driven by
//     golang-migrate with its own version bookkeeping;
//  2. the data API's exec_sql stored procedure, with applied versions
//     recorded in a schema_migrations table;
//  3. the operator's console: the exact SQL is printed with instructions to
//     paste it into the store's query editor.
//
// Every statement carries IF NOT EXISTS / IF EXISTS guards, so re-running
// after partial success is a no-op for already-applied changes regardless of
// channel.
package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one ordered, idempotent schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations returns all up migrations in version order.
func Migrations() ([]Migration, error) {
	entries, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("schema: list migrations: %w", err)
	}

	var ms []Migration
	for _, path := range entries {
		base := strings.TrimSuffix(strings.TrimPrefix(path, "migrations/"), ".up.sql")
		version, name, err := splitName(base)
		if err != nil {
			return nil, err
		}
		body, err := migrationsFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", path, err)
		}
		ms = append(ms, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(ms, func(i, j int) bool { return ms[i].Version < ms[j].Version })
	return ms, nil
}

func splitName(base string) (int, string, error) {
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return 0, "", fmt.Errorf("schema: migration %q lacks a NNNN_name prefix", base)
	}
	version, err := strconv.Atoi(base[:idx])
	if err != nil {
		return 0, "", fmt.Errorf("schema: migration %q has a non-numeric version: %w", base, err)
	}
	return version, base[idx+1:], nil
}
