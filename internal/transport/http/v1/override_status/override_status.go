package overridestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http/v1/httperr"
)

// service is an interface for the service layer.
type service interface {
	OverrideStatus(ctx context.Context, orderID string, status order.Status) error
}

// overrideStatusRequest represents a staff correction: jump the order
// directly to the given status.
type overrideStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Validate validates the override status request.
func (r *overrideStatusRequest) Validate() error {
	return validator.New().Struct(r)
}

type overrideStatusResponse struct {
	ID     string       `json:"id"`
	Status order.Status `json:"status"`
}

// OverrideStatus handles the secondary correction action.
func OverrideStatus(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)

		return
	}

	req := overrideStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for override status", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for override status", "error", err)

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		httperr.Write(w, err)

		return
	}

	if err := service.OverrideStatus(r.Context(), orderID, status); err != nil {
		slog.Error("Error overriding order status", "order_id", orderID, "error", err)
		httperr.Write(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(overrideStatusResponse{ID: orderID, Status: status}); err != nil {
		slog.Error("Error sending response for override status", "error", err)
	}
}
