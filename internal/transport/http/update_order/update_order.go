package updateorder

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	"github.com/phamquangkhanh2999/order-api/internal/transport/http/render"
	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

const maxBodyBytes = 1 << 20

type service interface {
	UpdateOrder(ctx context.Context, id string, patch order.Patch) (order.Order, error)
}

// UpdateOrder handles the partial update of the order named by the id path parameter.
func UpdateOrder(w http.ResponseWriter, r *http.Request, service service) {
	op := payloads.UpdateOrder

	req := payloads.UpdateOrderRequest{}
	if err := payloads.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	if err := payloads.Validate(&req); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	updated, err := service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		render.Failure(w, r, op, err)
		return
	}

	render.JSON(w, op.SuccessStatus, op.Success(updated))
}
