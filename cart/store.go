// Package cart presents a single cart abstraction over two storage
// modes: a guest cart persisted to the local database while the session
// is unauthenticated, and the server-held cart once it is. The switch
// between them is the one-time merge that runs at login.
package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Ziroworld/ailav-client/api"
	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
	"github.com/Ziroworld/ailav-client/storage"
)

// cartMode is the tagged variant the store's operations switch on.
// Exactly one mode is active at any instant.
type cartMode interface {
	modeName() string
}

// guestMode: the cart lives in the local durable store.
type guestMode struct{}

func (guestMode) modeName() string { return "guest" }

// boundMode: the cart is the server's copy for userID; the in-memory
// cart is a cache of the last response.
type boundMode struct {
	userID string
}

func (boundMode) modeName() string { return "bound" }

// Config configures a Store.
type Config struct {
	Session *session.Manager
	Storage *storage.GuestCartStore
	Logger  *zap.Logger
}

// Store owns the cart. The mutex is held for the whole of every
// operation, including the login merge, so no cart mutation can overlap
// a half-finished merge.
type Store struct {
	sess *session.Manager
	db   *storage.GuestCartStore
	api  *api.CartAPI
	log  *zap.Logger

	mu       sync.Mutex
	mode     cartMode
	cart     models.Cart
	hydrated bool // guest cart loaded from durable storage since last mode switch
}

// NewStore creates a Store in guest mode and registers its merge and
// reset hooks with the session manager.
func NewStore(cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		sess: cfg.Session,
		db:   cfg.Storage,
		api:  api.NewCartAPI(cfg.Session),
		log:  log,
		mode: guestMode{},
	}
	cfg.Session.OnLogin(s.merge)
	cfg.Session.OnLogout(s.reset)
	return s
}

// Items returns a snapshot of the current cart. In guest mode the
// durable store is consulted on the first read after startup or logout.
func (s *Store) Items() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureGuestLoaded()
	return snapshot(s.cart)
}

// Mode reports "guest" or "bound".
func (s *Store) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.modeName()
}

// AddItem adds quantity of product to the cart. In bound mode the
// server's returned cart replaces the in-memory copy; in guest mode the
// line list is mutated locally and the whole cart persisted.
func (s *Store) AddItem(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode := s.mode.(type) {
	case boundMode:
		updated, err := s.api.Add(ctx, mode.userID, product.ID, quantity)
		if err != nil {
			return err
		}
		s.cart = *updated
		return nil

	default:
		s.ensureGuestLoaded()
		// Mutate a copy; memory adopts it only once the durable write
		// has succeeded, so the two never diverge.
		next := snapshot(s.cart)
		if i := next.Find(product.ID); i >= 0 {
			next.Items[i].Quantity += quantity
		} else {
			next.Items = append(next.Items, models.CartLine{
				ProductID:    product.ID,
				ProductName:  product.Name,
				UnitPrice:    product.Price,
				Quantity:     quantity,
				ProductImage: product.ImageURL,
			})
		}
		if err := s.db.Save(&next); err != nil {
			return err
		}
		s.cart = next
		return nil
	}
}

// RemoveItem deletes the line for productID.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode := s.mode.(type) {
	case boundMode:
		updated, err := s.api.Remove(ctx, mode.userID, productID)
		if err != nil {
			return err
		}
		s.cart = *updated
		return nil

	default:
		s.ensureGuestLoaded()
		next := models.Cart{Items: make([]models.CartLine, 0, len(s.cart.Items))}
		for _, line := range s.cart.Items {
			if line.ProductID != productID {
				next.Items = append(next.Items, line)
			}
		}
		if err := s.db.Save(&next); err != nil {
			return err
		}
		s.cart = next
		return nil
	}
}

// ClearCart empties the cart. In guest mode the durable entry is
// deleted as well.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode := s.mode.(type) {
	case boundMode:
		updated, err := s.api.Clear(ctx, mode.userID)
		if err != nil {
			return err
		}
		s.cart = *updated
		return nil

	default:
		if err := s.db.Delete(); err != nil {
			return err
		}
		s.cart = models.Cart{Items: []models.CartLine{}}
		s.hydrated = true
		return nil
	}
}

// Refresh re-fetches the authoritative cart: the server copy in bound
// mode, the durable store in guest mode.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode := s.mode.(type) {
	case boundMode:
		fetched, err := s.api.Get(ctx, mode.userID)
		if err != nil {
			return err
		}
		s.cart = *fetched
		return nil

	default:
		s.hydrated = false
		s.ensureGuestLoaded()
		return nil
	}
}

// reset is the logout hook: the in-memory cart empties immediately and
// the store returns to guest mode. Durable storage is consulted again
// on the next read, so a guest cart that was never merged reappears.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = guestMode{}
	s.cart = models.Cart{Items: []models.CartLine{}}
	s.hydrated = false
}

// ensureGuestLoaded hydrates the in-memory cart from durable storage.
// Callers must hold mu and be in guest mode.
func (s *Store) ensureGuestLoaded() {
	if s.hydrated {
		return
	}
	if _, ok := s.mode.(guestMode); !ok {
		return
	}
	s.hydrated = true

	stored, err := s.db.Load()
	if err != nil {
		s.log.Warn("failed to load guest cart, starting empty", zap.Error(err))
		s.cart = models.Cart{Items: []models.CartLine{}}
		return
	}
	if stored == nil {
		s.cart = models.Cart{Items: []models.CartLine{}}
		return
	}
	s.cart = *stored
}

func snapshot(c models.Cart) models.Cart {
	out := models.Cart{Items: make([]models.CartLine, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}
