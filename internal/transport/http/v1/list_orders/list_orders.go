package listorders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
)

// service is an interface for the service layer.
type service interface {
	Filtered(status order.Status, orderType order.OrderType) []order.Order
}

// orderResponse is one board row, with the derived display fields attached.
type orderResponse struct {
	ID                  string            `json:"id"`
	OrderNumber         string            `json:"orderNumber"`
	CustomerName        string            `json:"customerName"`
	Type                order.OrderType   `json:"type"`
	Items               []order.OrderItem `json:"items"`
	Status              order.Status      `json:"status"`
	PlacedAt            time.Time         `json:"placedAt"`
	SpecialInstructions string            `json:"specialInstructions,omitempty"`
	EstimatedPrepTime   int               `json:"estimatedPrepTime"`
	MinutesWaiting      int               `json:"minutesWaiting"`
	EstimatedReadyTime  time.Time         `json:"estimatedReadyTime"`
	ActionLabel         string            `json:"actionLabel"`
}

func toResponse(o order.Order, now time.Time) orderResponse {
	return orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerName:        o.CustomerName,
		Type:                o.Type,
		Items:               o.Items,
		Status:              o.Status,
		PlacedAt:            o.PlacedAt,
		SpecialInstructions: o.SpecialInstructions,
		EstimatedPrepTime:   o.EstimatedPrepTime,
		MinutesWaiting:      o.MinutesWaiting(now),
		EstimatedReadyTime:  o.EstimatedReadyTime(),
		ActionLabel:         order.ActionLabel(o.Status, o.Type),
	}
}

// ListOrders handles the board listing request, optionally narrowed by
// status and order type.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := r.URL.Query()

	var status order.Status
	if s := query.Get("status"); s != "" {
		parsed, err := order.ParseStatus(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
		status = parsed
	}

	var orderType order.OrderType
	if s := query.Get("type"); s != "" {
		parsed, err := order.ParseOrderType(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}
		orderType = parsed
	}

	orders := service.Filtered(status, orderType)

	now := time.Now()
	response := make([]orderResponse, len(orders))
	for i, o := range orders {
		response[i] = toResponse(o, now)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error sending response for list orders", "error", err)
	}
}
