// Package export writes fetched records as a CSV report and a JSON dump.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Sternrassler/sf-bulk-report/internal/fileutil"
	"github.com/Sternrassler/sf-bulk-report/pkg/record"
)

// ErrEmptyInput is returned when there are no records to tabulate or the
// records carry no keys to derive a header from.
var ErrEmptyInput = errors.New("no records to export")

// Header returns the union of all record keys in first-seen order.
func Header(records []record.Record) []string {
	seen := make(map[string]struct{})
	var header []string
	for _, r := range records {
		for _, key := range r.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			header = append(header, key)
		}
	}
	return header
}

// WriteCSV writes a header row followed by one row per record. Columns a
// record lacks are left empty. Rows end with CRLF; line breaks inside a
// field are written unchanged.
func WriteCSV(w io.Writer, records []record.Record) error {
	if len(records) == 0 {
		return ErrEmptyInput
	}

	header := Header(records)
	if len(header) == 0 {
		return ErrEmptyInput
	}

	rw := newRowWriter(w)
	if err := rw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(header))
	for i, r := range records {
		for j, key := range header {
			value, ok := r.Get(key)
			if !ok {
				row[j] = ""
				continue
			}
			cell, err := formatCell(value)
			if err != nil {
				return fmt.Errorf("record %d, column %q: %w", i, key, err)
			}
			row[j] = cell
		}
		if err := rw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	return nil
}

// rowWriter encodes one row at a time and swaps only the row terminator
// for CRLF. csv.Writer.UseCRLF would also rewrite "\n" inside quoted fields.
type rowWriter struct {
	out io.Writer
	buf bytes.Buffer
	cw  *csv.Writer
}

func newRowWriter(w io.Writer) *rowWriter {
	rw := &rowWriter{out: w}
	rw.cw = csv.NewWriter(&rw.buf)
	return rw
}

func (rw *rowWriter) Write(fields []string) error {
	rw.buf.Reset()
	if err := rw.cw.Write(fields); err != nil {
		return err
	}
	rw.cw.Flush()
	if err := rw.cw.Error(); err != nil {
		return err
	}

	line := bytes.TrimSuffix(rw.buf.Bytes(), []byte("\n"))
	if _, err := rw.out.Write(line); err != nil {
		return err
	}
	_, err := io.WriteString(rw.out, "\r\n")
	return err
}

// WriteCSVFile atomically writes the CSV report to path. On ErrEmptyInput
// no file is created.
func WriteCSVFile(path string, records []record.Record) error {
	if len(Header(records)) == 0 {
		return ErrEmptyInput
	}
	return fileutil.Write(path, 0o644, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}

// formatCell renders a record value as a CSV field.
func formatCell(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		// nested objects and arrays
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
