package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ResolveSortColumn maps an API sort key to its SQL expression through a
// whitelist. Unknown or empty keys resolve to defaultKey's expression.
func ResolveSortColumn(sortKey string, columns map[string]string, defaultKey string) string {
	if expr, ok := columns[strings.TrimSpace(sortKey)]; ok && sortKey != "" {
		return expr
	}
	return columns[defaultKey]
}

// StockSortColumns maps stock list sort keys to SQL expressions
var StockSortColumns = map[string]string{
	"created_at":     "created_at",
	"updated_at":     "updated_at",
	"physical_stock": "physical_stock",
	"reserved_stock": "reserved_stock",
	"available":      "(physical_stock - reserved_stock)",
	"unit_cost":      "unit_cost",
	"unit_price":     "unit_price",
}

// stockOrderClause builds the ORDER BY clause for stock listings.
// id is appended so pages are stable.
func stockOrderClause(sortKey string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return ResolveSortColumn(sortKey, StockSortColumns, "created_at") + " " + ValidateSortOrder(dir) + ", id ASC"
}
