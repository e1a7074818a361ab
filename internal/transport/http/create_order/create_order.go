package createorder

import (
	"context"
	"net/http"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	"github.com/phamquangkhanh2999/order-api/internal/transport/http/render"
	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

const maxBodyBytes = 1 << 20

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	op := payloads.CreateOrder

	req := payloads.CreateOrderRequest{}
	if err := payloads.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	if err := payloads.Validate(&req); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	created, err := service.CreateOrder(r.Context(), req.ToModel())
	if err != nil {
		render.Failure(w, r, op, err)
		return
	}

	render.JSON(w, op.SuccessStatus, op.Success(created))
}
