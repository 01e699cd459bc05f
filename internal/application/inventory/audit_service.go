package inventory

import (
	"context"

	"github.com/handmade/backend/internal/domain/inventory"
	"github.com/handmade/backend/internal/domain/shared"
)

// AuditService queries the append-only audit log
type AuditService struct {
	auditRepo inventory.AuditLogRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo inventory.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Query returns entries newest first with the per-operation summary and
// the total over the whole filtered set
func (s *AuditService) Query(ctx context.Context, q AuditQuery) (*AuditQueryResponse, error) {
	filter := inventory.AuditFilter{
		ProductID: q.ProductID,
		OrderID:   q.OrderID,
		From:      q.From,
		To:        q.To,
	}
	if q.OperationType != "" {
		op := inventory.OperationType(q.OperationType)
		filter.OperationType = &op
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	page := shared.Pagination{Offset: q.Offset, Limit: q.Limit}.Normalize()
	result, err := s.auditRepo.Query(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	resp := &AuditQueryResponse{
		Entries: make([]AuditEntryResponse, len(result.Entries)),
		Summary: result.Summary,
		Total:   result.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.HasMore(result.Total),
	}
	for i := range result.Entries {
		resp.Entries[i] = ToAuditEntryResponse(&result.Entries[i])
	}
	if resp.Summary == nil {
		resp.Summary = map[inventory.OperationType]int64{}
	}
	return resp, nil
}
