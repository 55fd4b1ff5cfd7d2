package csvexport

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeField(t *testing.T) {
	var nilStr *string
	var nilTime *time.Time
	s := "plain"
	date := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"nil string pointer", nilStr, ""},
		{"nil time pointer", nilTime, ""},
		{"plain", "Phacoemulsification", "Phacoemulsification"},
		{"string pointer", &s, "plain"},
		{"quotes", `Dr. "Best" Smith`, `"Dr. ""Best"" Smith"`},
		{"comma", "Smith, John", `"Smith, John"`},
		{"newline", "line one\nline two", "\"line one\nline two\""},
		{"leading space untouched", " x", " x"},
		{"carriage return untouched", "a\rb", "a\rb"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"date", date, "2026-07-01"},
		{"date pointer", &date, "2026-07-01"},
		{"stringer", decimal.RequireFromString("21.50"), "21.5"},
		{"other", []int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeField(tt.in))
		})
	}
}

func TestJoin_HeaderOnly(t *testing.T) {
	assert.Equal(t, "A,B", Join([]string{"A", "B"}, nil))
}

func TestJoin_RoundTrip(t *testing.T) {
	rows := [][]any{
		{`He said "hi"`, "a,b", nil},
		{"multi\nline", 3, "end"},
	}
	out := Join([]string{"One", "Two", "Three"}, rows)
	assert.False(t, strings.HasSuffix(out, "\n"))

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"One", "Two", "Three"},
		{`He said "hi"`, "a,b", ""},
		{"multi\nline", "3", "end"},
	}, records)
}

func TestRow(t *testing.T) {
	assert.Equal(t, `x,"y,z",`, Row("x", "y,z", nil))
}
