package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/models"
)

// CatalogController implements the product and category endpoints.
type CatalogController struct {
	Catalog *database.CatalogRepository
}

func NewCatalogController(catalog *database.CatalogRepository) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

// ListProducts returns the full catalogue.
func (cc *CatalogController) ListProducts(c *gin.Context) {
	products, err := cc.Catalog.ListProducts(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product.
func (cc *CatalogController) GetProduct(c *gin.Context) {
	product, err := cc.Catalog.GetProduct(c, c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// SaveProduct creates a product.
func (cc *CatalogController) SaveProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := cc.Catalog.SaveProduct(c, product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct replaces a product.
func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	product.ID = c.Param("product_id")
	if _, err := cc.Catalog.GetProduct(c, product.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err := cc.Catalog.SaveProduct(c, product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product.
func (cc *CatalogController) DeleteProduct(c *gin.Context) {
	if err := cc.Catalog.DeleteProduct(c, c.Param("product_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// ListCategories returns all categories.
func (cc *CatalogController) ListCategories(c *gin.Context) {
	categories, err := cc.Catalog.ListCategories(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// SaveCategory creates a category.
func (cc *CatalogController) SaveCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if err := cc.Catalog.SaveCategory(c, category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save category"})
		return
	}
	c.JSON(http.StatusOK, category)
}
