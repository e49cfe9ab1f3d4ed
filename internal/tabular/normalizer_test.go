package tabular

import (
	"strings"
	"testing"

	"github.com/straye-as/contact-distribution-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_MixedHeaders(t *testing.T) {
	rows := []Row{
		{{Column: "Name", Value: "A"}, {Column: "Mobile", Value: "1"}, {Column: "Note", Value: "x"}},
		{{Column: "first_name", Value: "B"}, {Column: "phone", Value: "2"}},
		{{Column: "Name", Value: "C"}},
	}

	got := Normalize(rows)

	assert.Equal(t, []domain.ContactRecord{
		{FirstName: "A", Phone: "1", Notes: "x"},
		{FirstName: "B", Phone: "2", Notes: ""},
	}, got)
}

func TestMatchColumn(t *testing.T) {
	tests := []struct {
		column string
		want   string
	}{
		{"FirstName", "firstName"},
		{"  customer_first_name ", "firstName"},
		{"NAME", "firstName"},
		{"Full Name", ""},
		{"Phone Number", "phone"},
		{"mobile_no", "phone"},
		{"Notes", "notes"},
		{"note", "notes"},
		{"phone notes", "phone"},
		{"email", ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchColumn(tt.column))
		})
	}
}

func TestNormalize_TrimsAndCoercesValues(t *testing.T) {
	rows := []Row{
		{{Column: "Name", Value: "  Dana "}, {Column: "Phone", Value: 9876543210.0}, {Column: "Notes", Value: nil}},
		{{Column: "Name", Value: "Eli"}, {Column: "Phone", Value: 42}},
		{{Column: "Name", Value: "   "}, {Column: "Phone", Value: "5"}},
		{{Column: "Name", Value: "Fay"}, {Column: "Phone", Value: "  "}},
	}

	got := Normalize(rows)

	assert.Equal(t, []domain.ContactRecord{
		{FirstName: "Dana", Phone: "9876543210"},
		{FirstName: "Eli", Phone: "42"},
	}, got)
}

func TestNormalize_LastMatchingColumnWins(t *testing.T) {
	rows := []Row{
		{
			{Column: "Name", Value: "Gus"},
			{Column: "Phone", Value: "111"},
			{Column: "Mobile", Value: "222"},
		},
		{
			{Column: "Name", Value: "Ana"},
			{Column: "Mobile", Value: "333"},
			{Column: "Work Phone", Value: "444"},
			{Column: "Note", Value: "first"},
			{Column: "Notes", Value: "second"},
		},
	}

	got := Normalize(rows)

	assert.Equal(t, []domain.ContactRecord{
		{FirstName: "Gus", Phone: "222"},
		{FirstName: "Ana", Phone: "444", Notes: "second"},
	}, got)
}

func TestNormalize_EmptyLaterColumnOverwrites(t *testing.T) {
	rows := []Row{
		{
			{Column: "Name", Value: "Gus"},
			{Column: "Phone", Value: "111"},
			{Column: "Mobile", Value: ""},
		},
	}

	assert.Empty(t, Normalize(rows), "an empty trailing phone column leaves the row without a phone")
}

func TestNormalize_PhoneMobileCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("Name,Phone,Mobile\nAna,111,222\n"))
	require.NoError(t, err)

	assert.Equal(t, []domain.ContactRecord{{FirstName: "Ana", Phone: "222"}}, Normalize(rows))
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}

func TestToText(t *testing.T) {
	assert.Equal(t, "", ToText(nil))
	assert.Equal(t, "12.5", ToText(12.5))
	assert.Equal(t, "7", ToText(int64(7)))
	assert.Equal(t, "true", ToText(true))
	assert.Equal(t, "x", ToText(" x "))
}
