// Package api provides typed clients for the storefront REST contract,
// all routed through the session manager's resilient request pipeline.
package api

import (
	"context"
	"net/http"

	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
)

// CartAPI talks to the server-side cart endpoints.
type CartAPI struct {
	session *session.Manager
}

func NewCartAPI(s *session.Manager) *CartAPI {
	return &CartAPI{session: s}
}

type cartAddRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartRemoveRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

type cartClearRequest struct {
	UserID string `json:"userId"`
}

// Add adds quantity of a product to the user's server cart and returns
// the cart as the server now holds it.
func (c *CartAPI) Add(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	var cart models.Cart
	err := c.session.DoJSON(ctx, http.MethodPost, "/cart/add",
		cartAddRequest{UserID: userID, ProductID: productID, Quantity: quantity}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Get fetches the user's server cart.
func (c *CartAPI) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.session.DoJSON(ctx, http.MethodGet, "/cart/"+userID, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Remove deletes a product line from the user's server cart.
func (c *CartAPI) Remove(ctx context.Context, userID, productID string) (*models.Cart, error) {
	var cart models.Cart
	err := c.session.DoJSON(ctx, http.MethodPost, "/cart/remove",
		cartRemoveRequest{UserID: userID, ProductID: productID}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Clear empties the user's server cart.
func (c *CartAPI) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := c.session.DoJSON(ctx, http.MethodPost, "/cart/clear",
		cartClearRequest{UserID: userID}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
