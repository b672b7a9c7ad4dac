package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ziroworld/ailav-client/models"
)

// CartRepository stores one cart per user id.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, userID string, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

// RedisCartRepository keeps carts in Redis with a TTL, one JSON value
// per user.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *RedisCartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(userID)).Result()
	if err == redis.Nil {
		// No cart found
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCartRepository) SaveCart(ctx context.Context, userID string, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(userID), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.getKey(userID)).Err()
}

// MemoryCartRepository is the in-process fallback used by tests and
// standalone runs.
type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*models.Cart
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string]*models.Cart)}
}

func (m *MemoryCartRepository) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	out := models.Cart{Items: make([]models.CartLine, len(cart.Items))}
	copy(out.Items, cart.Items)
	return &out, nil
}

func (m *MemoryCartRepository) SaveCart(_ context.Context, userID string, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := models.Cart{Items: make([]models.CartLine, len(cart.Items))}
	copy(stored.Items, cart.Items)
	m.carts[userID] = &stored
	return nil
}

func (m *MemoryCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
