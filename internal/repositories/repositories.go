package repositories

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects an insert or update.
	ErrDuplicate = errors.New("duplicate record")
)

// likePattern builds a case-insensitive substring pattern for use with
// LOWER(column) LIKE ? ESCAPE '\'.
func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

// matchAny builds a case-insensitive OR over columns, one placeholder each.
func matchAny(columns ...string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func likeArgs(query string, n int) []interface{} {
	pattern := likePattern(query)
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pattern
	}
	return args
}
