package orderstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nabilaes48/knockbites-kitchen-board/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

var (
	// ErrNotFound means the remote store has no such order.
	ErrNotFound = errors.New("order not found")
	// ErrDecode means the response contained at least one malformed record.
	// The whole batch is rejected: partial orders never reach the board.
	ErrDecode = errors.New("malformed order payload")
)

// Client talks to the remote order store over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the order store at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// MustNewClient creates a client configured from viper.
func MustNewClient() *Client {
	baseURL := viper.GetString("orderstore.base_url")
	if baseURL == "" {
		panic("orderstore.base_url is not set in config")
	}

	c := NewClient(baseURL)
	if timeout := viper.GetInt("orderstore.timeout_seconds"); timeout > 0 {
		c.client.Timeout = time.Duration(timeout) * time.Second
	}

	return c
}

// orderPayload is the wire form of an order.
type orderPayload struct {
	ID                  string        `json:"id"`
	OrderNumber         string        `json:"orderNumber"`
	CustomerName        string        `json:"customerName"`
	Type                string        `json:"type"`
	Items               []itemPayload `json:"items"`
	Status              string        `json:"status"`
	PlacedAt            time.Time     `json:"placedAt"`
	SpecialInstructions string        `json:"specialInstructions"`
	EstimatedPrepTime   int           `json:"estimatedPrepTime"`
}

type itemPayload struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Customizations []string `json:"customizations"`
	Notes          string   `json:"notes"`
}

// toModel converts the payload to the domain model, failing closed on any
// field that would violate a model invariant.
func (p orderPayload) toModel() (order.Order, error) {
	if p.ID == "" {
		return order.Order{}, fmt.Errorf("%w: missing order id", ErrDecode)
	}

	status, err := order.ParseStatus(p.Status)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: order %s: status %q", ErrDecode, p.ID, p.Status)
	}

	orderType, err := order.ParseOrderType(p.Type)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: order %s: type %q", ErrDecode, p.ID, p.Type)
	}

	items := make([]order.OrderItem, len(p.Items))
	for i, item := range p.Items {
		if item.Quantity < 1 {
			return order.Order{}, fmt.Errorf("%w: order %s: item %q quantity %d", ErrDecode, p.ID, item.Name, item.Quantity)
		}
		items[i] = order.OrderItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
			Notes:          item.Notes,
		}
	}

	return order.Order{
		ID:                  p.ID,
		OrderNumber:         p.OrderNumber,
		CustomerName:        p.CustomerName,
		Type:                orderType,
		Items:               items,
		Status:              status,
		PlacedAt:            p.PlacedAt,
		SpecialInstructions: p.SpecialInstructions,
		EstimatedPrepTime:   p.EstimatedPrepTime,
	}, nil
}

// FetchOrders returns the full current active-order set for a store.
func (c *Client) FetchOrders(ctx context.Context, storeID string) ([]order.Order, error) {
	ctx, span := otel.Tracer("orderstore").Start(ctx, "Client.FetchOrders")
	defer span.End()

	url := fmt.Sprintf("%s/api/v1/stores/%s/orders", c.baseURL, storeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch orders: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload []orderPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	orders := make([]order.Order, len(payload))
	for i, p := range payload {
		o, err := p.toModel()
		if err != nil {
			return nil, err
		}
		orders[i] = o
	}

	return orders, nil
}

// UpdateOrderStatus writes a status change to the remote store.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error {
	ctx, span := otel.Tracer("orderstore").Start(ctx, "Client.UpdateOrderStatus")
	defer span.End()

	body, err := json.Marshal(map[string]string{"status": status.String()})
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/orders/%s/status", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("update order %s: %w", orderID, ErrNotFound)
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("update order %s: unexpected status %d: %s", orderID, resp.StatusCode, string(respBody))
	}
}
