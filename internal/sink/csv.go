package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"gymnasier-export/internal/export"
)

func wrapWriteCsv(err error) error {
	return fmt.Errorf("write csv: %w", err)
}

// WriteCsv writes a header line followed by one record per row. Lines end
// in CRLF, which is what spreadsheet tools expect.
func WriteCsv(path string, rows []export.Row) error {
	if dir := filepath.Dir(path); dir != "." {
		err := os.MkdirAll(dir, 0777)
		if err != nil {
			return wrapWriteCsv(err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return wrapWriteCsv(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	err = w.Write(export.Columns)
	if err != nil {
		return wrapWriteCsv(err)
	}
	for _, row := range rows {
		err = w.Write(row.Record())
		if err != nil {
			return wrapWriteCsv(err)
		}
	}
	w.Flush()
	err = w.Error()
	if err != nil {
		return wrapWriteCsv(err)
	}
	return f.Close()
}
