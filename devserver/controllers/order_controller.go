package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	"github.com/Ziroworld/ailav-client/models"
)

// OrderController implements the order endpoints.
type OrderController struct {
	Orders *database.OrderRepository
	Carts  database.CartRepository
}

func NewOrderController(orders *database.OrderRepository, carts database.CartRepository) *OrderController {
	return &OrderController{Orders: orders, Carts: carts}
}

type createOrderRequest struct {
	UserID        string             `json:"userId" binding:"required"`
	Items         []models.OrderLine `json:"items" binding:"required"`
	PaymentMethod string             `json:"paymentMethod"`
	Address       string             `json:"address"`
}

// Create places an order and clears the user's server cart.
func (oc *OrderController) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !ownCart(c, req.UserID) {
		return
	}

	total := 0.0
	for _, line := range req.Items {
		total += line.UnitPrice * float64(line.Quantity)
	}

	order := models.Order{
		ID:     uuid.NewString(),
		UserID: req.UserID,
		Items:  req.Items,
		Total:  total,
		Status: models.OrderStatusPending,
	}
	if err := oc.Orders.Save(c, order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	// Checkout consumes the cart.
	_ = oc.Carts.DeleteCart(c, req.UserID)

	c.JSON(http.StatusCreated, order)
}

// ListAll returns every order; admin only.
func (oc *OrderController) ListAll(c *gin.Context) {
	orders, err := oc.Orders.List(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListByUser returns one user's orders.
func (oc *OrderController) ListByUser(c *gin.Context) {
	userID := c.Param("user_id")
	if !ownCart(c, userID) {
		return
	}
	orders, err := oc.Orders.ListByUser(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateStatus moves an order through its fulfilment states; admin only.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	order, err := oc.Orders.Get(c, c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	order.Status = req.Status
	if err := oc.Orders.Save(c, *order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete removes an order; admin only.
func (oc *OrderController) Delete(c *gin.Context) {
	if err := oc.Orders.Delete(c, c.Param("order_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

// UserController implements the admin user endpoints.
type UserController struct {
	Users database.UserRepository
}

func NewUserController(users database.UserRepository) *UserController {
	return &UserController{Users: users}
}

// List returns all users; admin only.
func (uc *UserController) List(c *gin.Context) {
	users, err := uc.Users.List(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// Update modifies name/email on a user record.
func (uc *UserController) Update(c *gin.Context) {
	userID := c.Param("user_id")
	if c.GetString(middleware.CtxRole) != "admin" && c.GetString(middleware.CtxUserID) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	user, err := uc.Users.FindByID(c, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if err := uc.Users.Update(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes a user; admin only.
func (uc *UserController) Delete(c *gin.Context) {
	if err := uc.Users.Delete(c, c.Param("user_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
