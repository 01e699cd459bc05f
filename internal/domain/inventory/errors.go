package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/domain/shared"
)

// ShortageLine names one order line that could not be reserved
type ShortageLine struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	ProductID   uuid.UUID `json:"product_id"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// NewInsufficientStockError builds an INSUFFICIENT_STOCK error listing every short line
func NewInsufficientStockError(lines []ShortageLine) *shared.DomainError {
	msg := fmt.Sprintf("Insufficient stock for %d order line(s)", len(lines))
	if len(lines) == 1 {
		l := lines[0]
		msg = fmt.Sprintf("Insufficient stock for product %s: requested %d, available %d", l.ProductID, l.Requested, l.Available)
	}
	return &shared.DomainError{Code: shared.CodeInsufficientStock, Message: msg, Details: lines}
}

// ShortageLines extracts the short lines from an INSUFFICIENT_STOCK error
func ShortageLines(err error) []ShortageLine {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Code != shared.CodeInsufficientStock {
		return nil
	}
	lines, _ := de.Details.([]ShortageLine)
	return lines
}
