package database

import (
	"context"
	"errors"
	"sync"

	"github.com/Ziroworld/ailav-client/models"
)

// ErrProductNotFound is returned when no product matches the lookup.
var ErrProductNotFound = errors.New("product not found")

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// CatalogRepository stores products and categories. The devserver only
// ships an in-memory implementation; the catalogue is fixture data.
type CatalogRepository struct {
	mu         sync.RWMutex
	products   map[string]models.Product
	categories map[string]models.Category
	order      []string // product insertion order for stable listings
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		products:   make(map[string]models.Product),
		categories: make(map[string]models.Category),
	}
}

func (r *CatalogRepository) SaveProduct(_ context.Context, p models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = p
	return nil
}

func (r *CatalogRepository) GetProduct(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *CatalogRepository) ListProducts(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *CatalogRepository) DeleteProduct(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *CatalogRepository) SaveCategory(_ context.Context, c models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = c
	return nil
}

func (r *CatalogRepository) ListCategories(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

// OrderRepository stores orders in memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	seq    []string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]models.Order)}
}

func (r *OrderRepository) Save(_ context.Context, o models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; !exists {
		r.seq = append(r.seq, o.ID)
	}
	r.orders[o.ID] = o
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (r *OrderRepository) List(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0, len(r.seq))
	for _, id := range r.seq {
		if o, ok := r.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Order
	for _, id := range r.seq {
		if o, ok := r.orders[id]; ok && o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	for i, oid := range r.seq {
		if oid == id {
			r.seq = append(r.seq[:i], r.seq[i+1:]...)
			break
		}
	}
	return nil
}
