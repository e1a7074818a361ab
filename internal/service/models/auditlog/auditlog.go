package auditlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
)

// EventType names what happened to an order.
type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// OrderEvent represents an audit log entry for order operations.
type OrderEvent struct {
	Type       EventType    `json:"type"`
	OrderID    uuid.UUID    `json:"order_id"`
	Order      *order.Order `json:"order,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
