package sink

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gymnasier-export/internal/ednia"
	"gymnasier-export/internal/export"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// a single connection keeps writers from failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

const insertStudyPath = `insert into study_paths (
    school_name,
    school_location,
    program,
    average_grade,
    flowthrough_rate,
    female_ratio,
    study_path_name,
    compare_number,
    min,
    median,
    admitted,
    travel_time_minutes
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// nullable maps an empty stat to NULL, numeric column affinity turns
// numeric literals back into numbers and keeps anything else as text.
func nullable(s ednia.Stat) any {
	if s == "" {
		return nil
	}
	return s.String()
}

func wrapWriteSqlite(err error) error {
	return fmt.Errorf("write sqlite: %w", err)
}

// WriteSqlite recreates the study_paths table of the database at path and
// fills it with rows in a single transaction.
func WriteSqlite(ctx context.Context, path string, rows []export.Row) error {
	db, err := OpenDB(path)
	if err != nil {
		return wrapWriteSqlite(err)
	}
	defer db.Close()

	err = insertRows(ctx, db, rows)
	if err != nil {
		return wrapWriteSqlite(err)
	}
	return nil
}

func insertRows(ctx context.Context, db *sql.DB, rows []export.Row) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStudyPath)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		var travelTime any
		if minutes, ok := row.TravelTime.Get(); ok {
			travelTime = minutes
		}
		_, err = stmt.ExecContext(
			ctx,
			row.SchoolName,
			row.SchoolLocation,
			row.Program,
			nullable(row.AverageGrade),
			nullable(row.FlowthroughRate),
			nullable(row.FemaleRatio),
			row.StudyPathName,
			nullable(row.CompareNumber),
			nullable(row.Min),
			nullable(row.Median),
			nullable(row.Admitted),
			travelTime,
		)
		if err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}

	return tx.Commit()
}
