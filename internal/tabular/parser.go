package tabular

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than .csv, .xlsx and .xls
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrMalformed is returned when a file cannot be parsed
	ErrMalformed = errors.New("malformed file")
)

// SupportedExtensions lists the accepted upload extensions
var SupportedExtensions = []string{".csv", ".xlsx", ".xls"}

// Extension returns the lower-cased extension of a file name
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsSupported reports whether the file name has an accepted extension
func IsSupported(filename string) bool {
	ext := Extension(filename)
	for _, allowed := range SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ParseFile picks a parser by file extension. Legacy binary .xls workbooks
// are handed to the spreadsheet reader and fail as malformed when it cannot open them.
func ParseFile(filename string, r io.Reader) ([]Row, error) {
	switch Extension(filename) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx", ".xls":
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}
