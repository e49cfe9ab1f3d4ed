// Package tabular turns uploaded CSV and spreadsheet files into canonical contact records.
package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/straye-as/contact-distribution-api/internal/domain"
)

// Cell is one column value of a parsed row
type Cell struct {
	Column string
	Value  any
}

// Row is one parsed data row with its cells in source column order
type Row []Cell

// field is a canonical contact record field
type field int

const (
	fieldNone field = iota
	fieldFirstName
	fieldPhone
	fieldNotes
)

// MatchColumn classifies a source column name. Rules are evaluated in order
// on the lower-cased, trimmed name and the first matching rule wins.
func MatchColumn(column string) string {
	switch matchColumn(column) {
	case fieldFirstName:
		return "firstName"
	case fieldPhone:
		return "phone"
	case fieldNotes:
		return "notes"
	}
	return ""
}

func matchColumn(column string) field {
	key := strings.ToLower(strings.TrimSpace(column))
	switch {
	case strings.Contains(key, "firstname"), strings.Contains(key, "first_name"), key == "name":
		return fieldFirstName
	case strings.Contains(key, "phone"), strings.Contains(key, "mobile"):
		return fieldPhone
	case strings.Contains(key, "notes"), strings.Contains(key, "note"):
		return fieldNotes
	}
	return fieldNone
}

// Normalize maps rows onto contact records. Unmatched columns are ignored.
// Cells are applied in source column order, so when several columns map to the
// same field the last one wins, even when it is empty.
// Rows without both a first name and a phone are dropped silently.
func Normalize(rows []Row) []domain.ContactRecord {
	records := make([]domain.ContactRecord, 0, len(rows))
	for _, row := range rows {
		var rec domain.ContactRecord
		for _, cell := range row {
			target := fieldPtr(&rec, matchColumn(cell.Column))
			if target == nil {
				continue
			}
			*target = ToText(cell.Value)
		}
		if rec.FirstName == "" || rec.Phone == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func fieldPtr(rec *domain.ContactRecord, f field) *string {
	switch f {
	case fieldFirstName:
		return &rec.FirstName
	case fieldPhone:
		return &rec.Phone
	case fieldNotes:
		return &rec.Notes
	}
	return nil
}

// ToText coerces a cell value to trimmed text. Whole floats lose their
// fractional part so numeric phone cells read as digits.
func ToText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
