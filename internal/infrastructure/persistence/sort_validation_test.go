package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE stock_records;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestResolveSortColumn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty key returns default", "", "created_at"},
		{"plain column", "unit_price", "unit_price"},
		{"derived column", "available", "(physical_stock - reserved_stock)"},
		{"unknown key returns default", "version", "created_at"},
		{"injection returns default", "id; DROP TABLE stock_records;--", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveSortColumn(tt.input, StockSortColumns, "created_at"))
		})
	}
}

func TestStockOrderClause(t *testing.T) {
	assert.Equal(t, "created_at ASC, id ASC", stockOrderClause("", false))
	assert.Equal(t, "(physical_stock - reserved_stock) DESC, id ASC", stockOrderClause("available", true))
}
