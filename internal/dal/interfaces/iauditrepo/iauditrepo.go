package iauditrepo

import (
	"context"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/auditlog"
)

// IAuditRepository is interface for auditor repository.
type IAuditRepository interface {
	LogOrderEvents(ctx context.Context, events []auditlog.OrderEvent) error
}
