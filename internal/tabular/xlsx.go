package tabular

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a workbook. The first row is the header.
func ParseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrMalformed, sheets[0], err)
	}
	if len(grid) == 0 {
		return nil, nil
	}

	header := grid[0]
	rows := make([]Row, 0, len(grid)-1)
	for _, values := range grid[1:] {
		for i := range values {
			values[i] = expandScientific(values[i])
		}
		if row := zipRow(header, values); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// expandScientific rewrites raw numeric cells such as "9.876543210E9" as plain digits
func expandScientific(raw string) string {
	if !strings.ContainsAny(raw, "eE") {
		return raw
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	return formatFloat(f)
}
