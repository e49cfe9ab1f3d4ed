package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// ParseCSV reads a header line followed by data rows. Ragged rows are accepted:
// missing trailing cells are treated as absent and extra cells are ignored.
// Blank lines are skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading csv header: %v", ErrMalformed, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if row := zipRow(header, record); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// zipRow pairs header names with values; nil for rows with no content
func zipRow(header, values []string) Row {
	row := make(Row, 0, len(header))
	empty := true
	for i, column := range header {
		if i >= len(values) {
			break
		}
		if strings.TrimSpace(values[i]) != "" {
			empty = false
		}
		row = append(row, Cell{Column: column, Value: values[i]})
	}
	if empty {
		return nil
	}
	return row
}
