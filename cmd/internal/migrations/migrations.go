// Package migrations embeds the SQL schema migrations applied by goose.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migrations holds every *.sql migration in this directory.
//
//go:embed *.sql
var Migrations embed.FS

// DefaultSchema is the schema the migrations create.
const DefaultSchema = "estate"

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// UpSQL concatenates the Up sections of all migrations, in version order,
// with DefaultSchema renamed to schema. Integration tests use it to build
// isolated schemas from the real DDL.
//
// schema must be a plain lower-case identifier.
func UpSQL(schema string) (string, error) {
	if !plainIdent(schema) {
		return "", fmt.Errorf("migrations: schema %q is not a plain identifier", schema)
	}

	names, err := fs.Glob(Migrations, "*.sql")
	if err != nil {
		return "", err
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		raw, err := Migrations.ReadFile(name)
		if err != nil {
			return "", err
		}
		up, ok := upSection(string(raw))
		if !ok {
			return "", fmt.Errorf("migrations: %s has no %q section", name, upMarker)
		}
		up = strings.ReplaceAll(up, "SCHEMA IF NOT EXISTS "+DefaultSchema+";", "SCHEMA IF NOT EXISTS "+schema+";")
		up = strings.ReplaceAll(up, DefaultSchema+".", schema+".")
		b.WriteString(up)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func upSection(sql string) (string, bool) {
	_, rest, ok := strings.Cut(sql, upMarker)
	if !ok {
		return "", false
	}
	up, _, _ := strings.Cut(rest, downMarker)
	return strings.TrimSpace(up), true
}

func plainIdent(s string) bool {
	if s == "" || len(s) > 63 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
