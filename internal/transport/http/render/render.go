package render

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/phamquangkhanh2999/order-api/internal/transport/payloads"
)

// JSON writes body with the given status.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// Failure writes the envelope err maps to for op and logs it.
func Failure(w http.ResponseWriter, r *http.Request, op payloads.Operation, err error) {
	appErr, body := op.Failure(err)

	log := slog.Default().With(
		"request_id", middleware.GetReqID(r.Context()),
		"status", appErr.Status,
		"error_code", appErr.ErrorCode,
	)
	if appErr.Status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Warn("Request rejected", "error", err)
	}

	JSON(w, appErr.Status, body)
}
