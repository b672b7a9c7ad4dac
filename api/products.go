package api

import (
	"context"
	"net/http"

	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
)

// ProductAPI talks to the product catalogue endpoints.
type ProductAPI struct {
	session *session.Manager
}

func NewProductAPI(s *session.Manager) *ProductAPI {
	return &ProductAPI{session: s}
}

// List returns the full catalogue.
func (p *ProductAPI) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := p.session.DoJSON(ctx, http.MethodGet, "/product/findall", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Get fetches a single product.
func (p *ProductAPI) Get(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := p.session.DoJSON(ctx, http.MethodGet, "/product/"+productID, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Create adds a product to the catalogue.
func (p *ProductAPI) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	var created models.Product
	if err := p.session.DoJSON(ctx, http.MethodPost, "/product/save", product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces a product's fields.
func (p *ProductAPI) Update(ctx context.Context, product models.Product) (*models.Product, error) {
	var updated models.Product
	if err := p.session.DoJSON(ctx, http.MethodPut, "/product/"+product.ID, product, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a product.
func (p *ProductAPI) Delete(ctx context.Context, productID string) error {
	return p.session.DoJSON(ctx, http.MethodDelete, "/product/"+productID, nil, nil)
}

// CategoryAPI talks to the category endpoints.
type CategoryAPI struct {
	session *session.Manager
}

func NewCategoryAPI(s *session.Manager) *CategoryAPI {
	return &CategoryAPI{session: s}
}

// List returns all categories.
func (c *CategoryAPI) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.session.DoJSON(ctx, http.MethodGet, "/category/findall", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Create adds a category.
func (c *CategoryAPI) Create(ctx context.Context, category models.Category) (*models.Category, error) {
	var created models.Category
	if err := c.session.DoJSON(ctx, http.MethodPost, "/category/save", category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
