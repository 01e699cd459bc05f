package shared

// Pagination is the offset/limit window used by list and audit queries
type Pagination struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize clamps the window to sane bounds
func (p Pagination) Normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// HasMore reports whether rows exist past this window
func (p Pagination) HasMore(total int64) bool {
	return total > int64(p.Offset+p.Limit)
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page Pagination) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{
		Items:   items,
		Total:   total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.HasMore(total),
	}
}
