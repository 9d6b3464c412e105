// Package sink writes exported rows to their destination file.
package sink

import (
	"context"
	"path/filepath"
	"strings"

	"gymnasier-export/internal/export"
)

// IsSqlite reports whether path names a database rather than a CSV file.
func IsSqlite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Write replaces the contents of path with rows, as a SQLite table when the
// extension names a database and as CSV otherwise.
func Write(ctx context.Context, path string, rows []export.Row) error {
	if IsSqlite(path) {
		return WriteSqlite(ctx, path, rows)
	}
	return WriteCsv(path, rows)
}
