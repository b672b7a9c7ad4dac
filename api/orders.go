package api

import (
	"context"
	"net/http"

	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
)

// OrderAPI talks to the order endpoints.
type OrderAPI struct {
	session *session.Manager
}

func NewOrderAPI(s *session.Manager) *OrderAPI {
	return &OrderAPI{session: s}
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	UserID        string             `json:"userId"`
	Items         []models.OrderLine `json:"items"`
	PaymentMethod string             `json:"paymentMethod"`
	Address       string             `json:"address"`
}

// Create places an order.
func (o *OrderAPI) Create(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := o.session.DoJSON(ctx, http.MethodPost, "/order/create", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll returns every order; admin dashboards use this.
func (o *OrderAPI) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := o.session.DoJSON(ctx, http.MethodGet, "/order/", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByUser returns the orders placed by one user.
func (o *OrderAPI) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := o.session.DoJSON(ctx, http.MethodGet, "/order/user/"+userID, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order through its fulfilment states.
func (o *OrderAPI) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	var order models.Order
	err := o.session.DoJSON(ctx, http.MethodPut, "/order/update/"+orderID,
		map[string]string{"status": status}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete removes an order.
func (o *OrderAPI) Delete(ctx context.Context, orderID string) error {
	return o.session.DoJSON(ctx, http.MethodDelete, "/order/delete/"+orderID, nil, nil)
}
