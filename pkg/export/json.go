package export

import (
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/sf-bulk-report/internal/fileutil"
	"github.com/Sternrassler/sf-bulk-report/pkg/record"
)

// MarshalRecords renders records as an indented JSON array. A nil or empty
// slice renders as [].
func MarshalRecords(records []record.Record) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSONFile atomically writes the raw record dump to path.
func WriteJSONFile(path string, records []record.Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(path, data, 0o644)
}
