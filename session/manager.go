// Package session owns the access credential lifecycle: login, logout,
// the cached CSRF token, and the resilient request pipeline every
// authenticated API call goes through.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/Ziroworld/ailav-client/errors"
	"github.com/Ziroworld/ailav-client/models"
)

// State of the session manager.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

// LoginHook runs synchronously after a successful login, before Login
// returns. The cart store registers its merge here so no cart operation
// can observe a half-merged state.
type LoginHook func(ctx context.Context, user *models.User) error

// LogoutHook runs synchronously when the session is torn down.
type LogoutHook func()

// Config configures a Manager.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api/v3".
	BaseURL string
	// HTTPClient is optional; a client with a fresh cookie jar is
	// created when nil. The jar is what carries the HTTP-only refresh
	// cookie between calls.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Manager is the single owner of the access token, the cached CSRF
// token and the resolved user. No other component writes this state.
type Manager struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger

	mu          sync.Mutex
	state       State
	accessToken string
	csrfToken   string
	user        *models.User

	// refreshGroup collapses concurrent refresh attempts into one
	// in-flight call.
	refreshGroup singleflight.Group

	loginHooks  []LoginHook
	logoutHooks []LogoutHook
}

// NewManager creates a Manager in the Unauthenticated state.
func NewManager(cfg Config) *Manager {
	client := cfg.HTTPClient
	if client == nil {
		jar, _ := cookiejar.New(nil)
		client = &http.Client{Timeout: 10 * time.Second, Jar: jar}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		baseURL: cfg.BaseURL,
		client:  client,
		log:     log,
		state:   StateUnauthenticated,
	}
}

// OnLogin registers a hook that runs after every successful login.
func (m *Manager) OnLogin(hook LoginHook) {
	m.loginHooks = append(m.loginHooks, hook)
}

// OnLogout registers a hook that runs on every logout.
func (m *Manager) OnLogout(hook LogoutHook) {
	m.logoutHooks = append(m.logoutHooks, hook)
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a live access token is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken != ""
}

// CurrentUser returns the resolved user profile, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// HTTPClient exposes the underlying client, whose cookie jar holds the
// refresh cookie. Sharing it lets another Manager resume the session.
func (m *Manager) HTTPClient() *http.Client {
	return m.client
}

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

// Login authenticates with the backend. On success the access token is
// stored, any stale CSRF token is dropped, the user profile is resolved
// via the currentuser endpoint, and login hooks (the cart merge) run
// before Login returns.
//
// A non-nil user with a non-nil error means login itself succeeded but
// a hook failed; callers surface the hook error without treating the
// session as unauthenticated.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*models.User, error) {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body loginResponse
	if err := decodeBody(resp, &body); err != nil {
		return nil, err
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.accessToken = body.AccessToken
	m.csrfToken = "" // force a fresh CSRF token for the next mutating call
	m.user = body.User
	m.mu.Unlock()

	// Resolve the full profile. A failure here is reported but does not
	// roll back the login as long as the login response itself carried
	// the user.
	fetched, fetchErr := m.fetchCurrentUser(ctx)
	if fetchErr != nil {
		m.log.Warn("failed to resolve user profile after login", zap.Error(fetchErr))
	} else {
		m.mu.Lock()
		m.user = fetched
		m.mu.Unlock()
	}

	user := m.CurrentUser()
	if user == nil {
		// A token without an identity is unusable: the hooks and every
		// cart call need the user id.
		m.purge()
		if fetchErr != nil {
			return nil, fmt.Errorf("resolving user after login: %w", fetchErr)
		}
		return nil, fmt.Errorf("login response carried no user")
	}
	for _, hook := range m.loginHooks {
		if err := hook(ctx, user); err != nil {
			return user, err
		}
	}
	return user, nil
}

// Logout purges both tokens and the user immediately. A best-effort
// server-side invalidation is issued but its outcome does not affect
// correctness.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	wasAuthed := m.accessToken != ""
	m.state = StateUnauthenticated
	m.accessToken = ""
	m.csrfToken = ""
	m.user = nil
	m.mu.Unlock()

	if wasAuthed {
		if resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/logout", nil); err == nil {
			resp.Body.Close()
		}
	}

	for _, hook := range m.logoutHooks {
		hook()
	}
}

// Bootstrap attempts to restore a session at startup using the
// browser-held refresh credential in the cookie jar. It returns the
// resolved user, (nil, nil) when no session is stored, or an error when
// restoration failed for any other reason (backend unreachable,
// malformed response).
func (m *Manager) Bootstrap(ctx context.Context) (*models.User, error) {
	token, err := m.refreshAccessToken(ctx)
	if err != nil {
		var apiErr *apperrors.Error
		if errors.As(err, &apiErr) &&
			(apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
			// No usable refresh cookie; the caller starts logged out.
			return nil, nil
		}
		return nil, err
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.accessToken = token
	m.csrfToken = ""
	m.mu.Unlock()

	user, err := m.fetchCurrentUser(ctx)
	if err != nil {
		m.purge()
		return nil, err
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	for _, hook := range m.loginHooks {
		if err := hook(ctx, user); err != nil {
			return user, err
		}
	}
	return user, nil
}

// Close tears the manager down, purging all in-memory credentials.
func (m *Manager) Close() {
	m.purge()
}

// purge drops all session state without running hooks.
func (m *Manager) purge() {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.accessToken = ""
	m.csrfToken = ""
	m.user = nil
	m.mu.Unlock()
}

func (m *Manager) fetchCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := m.DoJSON(ctx, http.MethodGet, "/auth/currentuser", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
