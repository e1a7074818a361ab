package listorders

import (
	"context"
	"net/http"

	"github.com/phamquangkhanh2999/order-api/internal/service/models/order"
	"github.com/phamquangkhanh2999/order-api/internal/transport/http/render"
	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

type service interface {
	ListOrders(ctx context.Context, f order.Filter) (order.ListResult, error)
}

// ListOrders handles the list orders request.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	op := payloads.ListOrders

	query := payloads.ListOrdersRequest{}
	if err := payloads.DecodeQuery(r.URL.Query(), &query); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	if err := payloads.Validate(&query); err != nil {
		render.Failure(w, r, op, err)
		return
	}

	res, err := service.ListOrders(r.Context(), query.ToFilter())
	if err != nil {
		render.Failure(w, r, op, err)
		return
	}

	render.JSON(w, op.SuccessStatus, op.Page(res))
}
