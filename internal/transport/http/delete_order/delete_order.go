package deleteorder

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phamquangkhanh2999/order-api/internal/transport/http/render"
	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

type service interface {
	DeleteOrder(ctx context.Context, id string) error
}

func DeleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	op := payloads.DeleteOrder

	if err := service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	render.JSON(w, op.SuccessStatus, op.Success(nil))
}
