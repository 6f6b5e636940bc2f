package advancestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/nabilaes48/knockbites-kitchen-board/internal/transport/http/v1/httperr"
)

// service is an interface for the service layer.
type service interface {
	AdvanceStatus(ctx context.Context, orderID string) (order.Status, error)
}

type advanceStatusResponse struct {
	ID     string       `json:"id"`
	Status order.Status `json:"status"`
}

// AdvanceStatus handles the primary-button action: move the order to its
// canonical next lifecycle status.
func AdvanceStatus(w http.ResponseWriter, r *http.Request, service service) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)

		return
	}

	next, err := service.AdvanceStatus(r.Context(), orderID)
	if err != nil {
		slog.Error("Error advancing order status", "order_id", orderID, "error", err)
		httperr.Write(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(advanceStatusResponse{ID: orderID, Status: next}); err != nil {
		slog.Error("Error sending response for advance status", "error", err)
	}
}
