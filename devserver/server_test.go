package devserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ziroworld/ailav-client/api"
	"github.com/Ziroworld/ailav-client/cart"
	"github.com/Ziroworld/ailav-client/config"
	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/logger"
	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
	"github.com/Ziroworld/ailav-client/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTests()
}

// sdk bundles a full client stack pointed at a devserver instance.
type sdk struct {
	mgr   *session.Manager
	store *cart.Store
	db    *storage.GuestCartStore
}

func newSDK(t *testing.T) *sdk {
	t.Helper()

	users := database.NewMemoryUserRepository()
	_, err := SeedUser(users, "Alice", "alice@ailav.dev", "secret123", "customer")
	require.NoError(t, err)

	engine := New(config.ServerConfig{
		Env:         "test",
		JWTSecret:   "end-to-end-secret",
		CORSOrigins: "http://localhost:5173",
		CartTTL:     time.Hour,
	}, Options{Users: users})
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	db, err := storage.Open(filepath.Join(t.TempDir(), "guestcart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr := session.NewManager(session.Config{BaseURL: ts.URL + "/api/v3"})
	t.Cleanup(mgr.Close)

	return &sdk{
		mgr:   mgr,
		store: cart.NewStore(cart.Config{Session: mgr, Storage: db}),
		db:    db,
	}
}

func (s *sdk) findProduct(t *testing.T, ctx context.Context, id string) models.Product {
	t.Helper()
	products, err := api.NewProductAPI(s.mgr).List(ctx)
	require.NoError(t, err)
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("product %s not in catalogue", id)
	return models.Product{}
}

// The whole storefront journey: browse as a guest, fill a cart, log in
// and watch it merge into the server cart, keep shopping, then place an
// order that consumes the cart.
func TestGuestToCheckoutJourney(t *testing.T) {
	s := newSDK(t)
	ctx := context.Background()

	// Browse anonymously. The catalogue is public.
	mug := s.findProduct(t, ctx, "p-mug")
	espresso := s.findProduct(t, ctx, "p-espresso")

	// Fill the guest cart; it lands in durable storage.
	require.NoError(t, s.store.AddItem(ctx, mug, 2))
	assert.Equal(t, "guest", s.store.Mode())
	stored, err := s.db.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.TotalQuantity())

	// Log in. The merge transfers the guest cart and adopts the
	// server's copy, with lines enriched from the catalogue.
	user, err := s.mgr.Login(ctx, session.Credentials{Email: "alice@ailav.dev", Password: "secret123"})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "bound", s.store.Mode())

	merged := s.store.Items()
	require.Len(t, merged.Items, 1)
	assert.Equal(t, "Stoneware Mug", merged.Items[0].ProductName)
	assert.Equal(t, 12.00, merged.Items[0].UnitPrice)
	assert.Equal(t, 2, merged.Items[0].Quantity)

	stored, err = s.db.Load()
	require.NoError(t, err)
	assert.Nil(t, stored, "guest cart consumed by the merge")

	// Keep shopping while authenticated. These calls go through the
	// anti-forgery handshake transparently.
	require.NoError(t, s.store.AddItem(ctx, espresso, 1))
	require.NoError(t, s.store.AddItem(ctx, espresso, 1))
	current := s.store.Items()
	require.Len(t, current.Items, 2)
	assert.Equal(t, 2, current.Items[current.Find("p-espresso")].Quantity)

	// Check out. The server clears the cart as part of order creation.
	var lines []models.OrderLine
	for _, item := range current.Items {
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	order, err := api.NewOrderAPI(s.mgr).Create(ctx, api.CreateOrderRequest{
		UserID:        user.ID,
		Items:         lines,
		PaymentMethod: "card",
		Address:       "42 Roast Street",
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 2*12.00+2*18.50, order.Total, 0.001)

	require.NoError(t, s.store.Refresh(ctx))
	assert.Empty(t, s.store.Items().Items)

	orders, err := api.NewOrderAPI(s.mgr).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	// Log out. Nothing guest-side survives a completed journey.
	s.mgr.Logout(ctx)
	assert.Equal(t, "guest", s.store.Mode())
	assert.Empty(t, s.store.Items().Items)
}

// An access token that dies mid-session is refreshed behind the
// caller's back using the cookie, without surfacing an error.
func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	users := database.NewMemoryUserRepository()
	_, err := SeedUser(users, "Alice", "alice@ailav.dev", "secret123", "customer")
	require.NoError(t, err)

	engine := New(config.ServerConfig{
		Env:         "test",
		JWTSecret:   "end-to-end-secret",
		CORSOrigins: "http://localhost:5173",
		CartTTL:     time.Hour,
	}, Options{Users: users, AccessTTL: time.Second})
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	mgr := session.NewManager(session.Config{BaseURL: ts.URL + "/api/v3"})
	t.Cleanup(mgr.Close)
	ctx := context.Background()

	user, err := mgr.Login(ctx, session.Credentials{Email: "alice@ailav.dev", Password: "secret123"})
	require.NoError(t, err)

	// Let the access token lapse. jwt exp has second granularity, so
	// wait past a full boundary.
	time.Sleep(2100 * time.Millisecond)

	cartAPI := api.NewCartAPI(mgr)
	fetched, err := cartAPI.Get(ctx, user.ID)
	require.NoError(t, err, "expired token recovered via refresh cookie")
	assert.Empty(t, fetched.Items)
}

// Bootstrap restores a session from the refresh cookie alone, the way a
// reopened app does.
func TestBootstrapRestoresSession(t *testing.T) {
	users := database.NewMemoryUserRepository()
	_, err := SeedUser(users, "Alice", "alice@ailav.dev", "secret123", "customer")
	require.NoError(t, err)

	engine := New(config.ServerConfig{
		Env:         "test",
		JWTSecret:   "end-to-end-secret",
		CORSOrigins: "http://localhost:5173",
		CartTTL:     time.Hour,
	}, Options{Users: users})
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	mgr := session.NewManager(session.Config{BaseURL: ts.URL + "/api/v3"})
	t.Cleanup(mgr.Close)
	ctx := context.Background()

	_, err = mgr.Login(ctx, session.Credentials{Email: "alice@ailav.dev", Password: "secret123"})
	require.NoError(t, err)

	// A second manager sharing the same cookie jar stands in for the
	// reopened app: it has the refresh cookie but no access token.
	restarted := session.NewManager(session.Config{
		BaseURL:    ts.URL + "/api/v3",
		HTTPClient: mgr.HTTPClient(),
	})
	user, err := restarted.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Name)
}
