package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ziroworld/ailav-client/errors"
	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
	"github.com/Ziroworld/ailav-client/storage"
)

// fakeStorefront is a scripted backend holding one server-side cart.
type fakeStorefront struct {
	mu               sync.Mutex
	cart             models.Cart
	failAdds         map[string]bool // productIds whose add calls return 500
	loginOmitsUser   bool            // login responds with the token only
	currentUserFails bool
	addCalls         int
	getCalls         int
}

func (f *fakeStorefront) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if f.loginOmitsUser {
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "t1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "t1",
			"user":        models.User{ID: "u1", Email: "alice@example.com"},
		})
	})
	mux.HandleFunc("/auth/currentuser", func(w http.ResponseWriter, r *http.Request) {
		if f.currentUserFails {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "profile store down"})
			return
		}
		json.NewEncoder(w).Encode(models.User{ID: "u1", Email: "alice@example.com", Name: "Alice"})
	})
	mux.HandleFunc("/auth/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"csrfToken": "csrf-ok"})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	mux.HandleFunc("/cart/add", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    string `json:"userId"`
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		defer f.mu.Unlock()
		f.addCalls++
		if f.failAdds[req.ProductID] {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to save cart"})
			return
		}
		if i := f.cart.Find(req.ProductID); i >= 0 {
			f.cart.Items[i].Quantity += req.Quantity
		} else {
			f.cart.Items = append(f.cart.Items, models.CartLine{
				ProductID: req.ProductID, Quantity: req.Quantity,
			})
		}
		json.NewEncoder(w).Encode(f.cart)
	})

	mux.HandleFunc("/cart/remove", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID string `json:"productId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.cart.Items[:0]
		for _, line := range f.cart.Items {
			if line.ProductID != req.ProductID {
				kept = append(kept, line)
			}
		}
		f.cart.Items = kept
		json.NewEncoder(w).Encode(f.cart)
	})

	mux.HandleFunc("/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cart = models.Cart{Items: []models.CartLine{}}
		json.NewEncoder(w).Encode(f.cart)
	})

	mux.HandleFunc("/cart/u1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.getCalls++
		json.NewEncoder(w).Encode(f.cart)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

type fixture struct {
	backend *fakeStorefront
	mgr     *session.Manager
	store   *Store
	db      *storage.GuestCartStore
}

func newFixture(t *testing.T, backend *fakeStorefront, guestItems []models.CartLine) *fixture {
	t.Helper()
	ts := backend.server(t)

	db, err := storage.Open(filepath.Join(t.TempDir(), "guestcart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if guestItems != nil {
		require.NoError(t, db.Save(&models.Cart{Items: guestItems}))
	}

	mgr := session.NewManager(session.Config{BaseURL: ts.URL})
	t.Cleanup(mgr.Close)

	return &fixture{
		backend: backend,
		mgr:     mgr,
		store:   NewStore(Config{Session: mgr, Storage: db}),
		db:      db,
	}
}

func (f *fixture) login(t *testing.T) error {
	t.Helper()
	_, err := f.mgr.Login(context.Background(), session.Credentials{Email: "alice@example.com", Password: "x"})
	return err
}

func guestLines() []models.CartLine {
	return []models.CartLine{
		{ProductID: "A", ProductName: "Widget", UnitPrice: 9.99, Quantity: 2},
		{ProductID: "B", ProductName: "Gadget", UnitPrice: 4.50, Quantity: 1},
	}
}

func TestMergeTransfersGuestCart(t *testing.T) {
	backend := &fakeStorefront{}
	f := newFixture(t, backend, guestLines())

	require.NoError(t, f.login(t))

	assert.Equal(t, "bound", f.store.Mode())
	assert.Equal(t, 2, backend.addCalls, "one add per guest line")

	// The adopted cart is exactly what the server reports.
	cart := f.store.Items()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items[cart.Find("A")].Quantity)
	assert.Equal(t, 1, cart.Items[cart.Find("B")].Quantity)

	// Durable storage is gone only after every add succeeded.
	stored, err := f.db.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMergeKeepsGuestCartOnFailure(t *testing.T) {
	backend := &fakeStorefront{failAdds: map[string]bool{"B": true}}
	f := newFixture(t, backend, guestLines())

	err := f.login(t)

	var mergeErr *apperrors.MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Contains(t, mergeErr.Failed, "B")
	assert.Len(t, mergeErr.Failed, 1)

	// Nothing destructive happened: the full original guest cart is
	// still stored.
	stored, loadErr := f.db.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, stored)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, 1, stored.Items[1].Quantity)

	// The store still binds to whatever the server holds.
	assert.Equal(t, "bound", f.store.Mode())
	cart := f.store.Items()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "A", cart.Items[0].ProductID)
}

func TestMergeSkipsAddsForEmptyGuestCart(t *testing.T) {
	backend := &fakeStorefront{cart: models.Cart{Items: []models.CartLine{{ProductID: "C", Quantity: 1}}}}
	f := newFixture(t, backend, nil)

	require.NoError(t, f.login(t))

	assert.Equal(t, 0, backend.addCalls)
	assert.Equal(t, 1, backend.getCalls, "straight to the authoritative fetch")
	cart := f.store.Items()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "C", cart.Items[0].ProductID)
}

func TestMergeNotAttemptedWhenLoginResolvesNoUser(t *testing.T) {
	// A token-only login response with an unresolvable profile must
	// come back as a plain error; the merge never runs and the guest
	// cart is untouched.
	backend := &fakeStorefront{loginOmitsUser: true, currentUserFails: true}
	f := newFixture(t, backend, guestLines())

	err := f.login(t)

	require.Error(t, err)
	assert.Equal(t, "guest", f.store.Mode())
	assert.Equal(t, 0, backend.addCalls)

	stored, loadErr := f.db.Load()
	require.NoError(t, loadErr)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 2)
}

func TestLogoutAfterMerge(t *testing.T) {
	backend := &fakeStorefront{}
	f := newFixture(t, backend, guestLines())
	require.NoError(t, f.login(t))

	f.mgr.Logout(context.Background())

	assert.Equal(t, "guest", f.store.Mode())
	// The guest cart was consumed by the merge; nothing reappears.
	assert.Empty(t, f.store.Items().Items)
}

func TestLogoutAfterFailedMergeRestoresGuestCart(t *testing.T) {
	backend := &fakeStorefront{failAdds: map[string]bool{"B": true}}
	f := newFixture(t, backend, guestLines())
	require.Error(t, f.login(t))

	f.mgr.Logout(context.Background())

	// The durable entry was preserved, so the guest cart comes back on
	// the next read.
	assert.Equal(t, "guest", f.store.Mode())
	cart := f.store.Items()
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "A", cart.Items[0].ProductID)
}

func TestBoundOperationsAdoptServerState(t *testing.T) {
	backend := &fakeStorefront{}
	f := newFixture(t, backend, nil)
	require.NoError(t, f.login(t))
	ctx := context.Background()

	require.NoError(t, f.store.AddItem(ctx, productA, 2))
	require.NoError(t, f.store.AddItem(ctx, productA, 1))
	cart := f.store.Items()
	require.Len(t, cart.Items, 1, "server merges repeated adds into one line")
	assert.Equal(t, 3, cart.Items[0].Quantity)

	require.NoError(t, f.store.RemoveItem(ctx, "A"))
	assert.Empty(t, f.store.Items().Items)

	require.NoError(t, f.store.AddItem(ctx, productB, 1))
	require.NoError(t, f.store.ClearCart(ctx))
	assert.Empty(t, f.store.Items().Items)
}
