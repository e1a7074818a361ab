package iorderrepo

import (
	"context"

	"github.com/google/uuid"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
)

// IOrderRepository is an interface for the order store.
// Update and Delete return order.ErrNotFound when no row matches the id.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, int, error)
	Update(ctx context.Context, id uuid.UUID, patch order.Patch) (order.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
