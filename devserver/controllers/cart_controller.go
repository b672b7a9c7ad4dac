package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	"github.com/Ziroworld/ailav-client/logger"
	"github.com/Ziroworld/ailav-client/models"
)

// CartController implements the server-side cart endpoints. The cart a
// mutation returns is always the full post-mutation state, so clients
// can adopt it verbatim.
type CartController struct {
	Repo    database.CartRepository
	Catalog *database.CatalogRepository
}

func NewCartController(repo database.CartRepository, catalog *database.CatalogRepository) *CartController {
	return &CartController{Repo: repo, Catalog: catalog}
}

type cartAddRequest struct {
	UserID    string `json:"userId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type cartRemoveRequest struct {
	UserID    string `json:"userId" binding:"required"`
	ProductID string `json:"productId" binding:"required"`
}

type cartClearRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// ownCart rejects callers operating on someone else's cart (admins may
// touch any cart).
func ownCart(c *gin.Context, userID string) bool {
	if c.GetString(middleware.CtxRole) == "admin" {
		return true
	}
	if c.GetString(middleware.CtxUserID) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your cart"})
		return false
	}
	return true
}

// GetCart returns the current cart for a user
func (cc *CartController) GetCart(c *gin.Context) {
	userID := c.Param("user_id")
	if !ownCart(c, userID) {
		return
	}

	cart, err := cc.Repo.GetCart(c, userID)
	if err != nil {
		logger.Error(c, "failed to get cart", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{Items: []models.CartLine{}}
	}

	c.JSON(http.StatusOK, cart)
}

// AddItem adds or updates an item in the cart
func (cc *CartController) AddItem(c *gin.Context) {
	var req cartAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !ownCart(c, req.UserID) {
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := cc.Catalog.GetProduct(c, req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	cart, _ := cc.Repo.GetCart(c, req.UserID)
	if cart == nil {
		cart = &models.Cart{Items: []models.CartLine{}}
	}

	if i := cart.Find(req.ProductID); i >= 0 {
		cart.Items[i].Quantity += req.Quantity
	} else {
		cart.Items = append(cart.Items, models.CartLine{
			ProductID:    product.ID,
			ProductName:  product.Name,
			UnitPrice:    product.Price,
			Quantity:     req.Quantity,
			ProductImage: product.ImageURL,
		})
	}

	if err := cc.Repo.SaveCart(c, req.UserID, cart); err != nil {
		logger.Error(c, "failed to save cart", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes a specific item from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	var req cartRemoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !ownCart(c, req.UserID) {
		return
	}

	cart, _ := cc.Repo.GetCart(c, req.UserID)
	if cart == nil {
		cart = &models.Cart{Items: []models.CartLine{}}
		c.JSON(http.StatusOK, cart)
		return
	}

	newItems := []models.CartLine{}
	for _, item := range cart.Items {
		if item.ProductID != req.ProductID {
			newItems = append(newItems, item)
		}
	}
	cart.Items = newItems

	if err := cc.Repo.SaveCart(c, req.UserID, cart); err != nil {
		logger.Error(c, "failed to update cart", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// ClearCart removes all items from the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	var req cartClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if !ownCart(c, req.UserID) {
		return
	}

	if err := cc.Repo.DeleteCart(c, req.UserID); err != nil {
		logger.Error(c, "failed to clear cart", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, models.Cart{Items: []models.CartLine{}})
}
