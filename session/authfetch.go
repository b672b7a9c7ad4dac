package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/Ziroworld/ailav-client/errors"
)

// CSRFHeader is the header mutating requests carry the anti-forgery
// token in.
const CSRFHeader = "X-Csrf-Token"

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Do is the single choke point for authenticated API calls. It attaches
// the bearer token, ensures a CSRF token for mutating methods, and
// handles the two retryable failure classes:
//
//   - 401: one silent refresh, then one retry. A failed refresh or a
//     second 401 purges the session and returns ErrSessionExpired.
//   - 403 on a mutating method: one forced CSRF refetch, then one
//     retry. A second 403 returns ErrForbidden.
//
// Each failure class retries at most once per call, so a logical
// request costs at most three round trips. Network-level errors are
// returned untouched with no retry.
//
// The caller owns the returned response body. Statuses other than the
// two handled above are returned as-is.
func (m *Manager) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	mutating := isMutating(method)

	if mutating {
		if err := m.ensureCSRFToken(ctx, false); err != nil {
			return nil, err
		}
	}

	resp, err := m.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		token, refreshErr := m.refreshShared(ctx)
		if refreshErr != nil {
			m.purge()
			m.log.Info("silent refresh failed", zap.String("path", path), zap.Error(refreshErr))
			return nil, apperrors.ErrSessionExpired.With(refreshErr)
		}

		m.mu.Lock()
		m.state = StateAuthenticated
		m.accessToken = token
		m.mu.Unlock()

		resp, err = m.send(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Retried call is still unauthorized; give up rather than
			// looping on refresh.
			resp.Body.Close()
			m.purge()
			return nil, apperrors.ErrSessionExpired
		}
	}

	if resp.StatusCode == http.StatusForbidden && mutating {
		resp.Body.Close()

		if err := m.ensureCSRFToken(ctx, true); err != nil {
			return nil, err
		}

		resp, err = m.send(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, apperrors.ErrForbidden
		}
	}

	return resp, nil
}

// DoJSON issues the request through Do and decodes a 2xx response body
// into out. Error statuses are converted into *apperrors.Error values
// built from the response body. A nil out discards the body.
func (m *Manager) DoJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := m.Do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()
		return nil
	}
	return decodeBody(resp, out)
}

// send performs a single attempt with the current credentials attached.
func (m *Manager) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	m.mu.Lock()
	if m.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.accessToken)
	}
	if isMutating(method) && m.csrfToken != "" {
		req.Header.Set(CSRFHeader, m.csrfToken)
	}
	m.mu.Unlock()

	return m.client.Do(req)
}

// ensureCSRFToken makes sure a CSRF token is cached, fetching one from
// the backend when absent or when force is set. The caller's request is
// suspended until the token is available.
func (m *Manager) ensureCSRFToken(ctx context.Context, force bool) error {
	m.mu.Lock()
	cached := m.csrfToken
	m.mu.Unlock()
	if cached != "" && !force {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/auth/csrf-token", nil)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.accessToken)
	}
	m.mu.Unlock()

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		m.mu.Lock()
		m.csrfToken = ""
		m.mu.Unlock()
		return statusError(resp)
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return err
	}

	m.mu.Lock()
	m.csrfToken = body.CSRFToken
	m.mu.Unlock()
	return nil
}

// refreshShared collapses concurrent refresh attempts into a single
// in-flight call so simultaneous 401s do not race each other.
func (m *Manager) refreshShared(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.mu.Lock()
		m.state = StateRefreshing
		m.mu.Unlock()
		return m.refreshAccessToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refreshAccessToken exchanges the HTTP-only refresh cookie held in the
// jar for a new access token.
func (m *Manager) refreshAccessToken(ctx context.Context) (string, error) {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/refresh-token", nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		err := statusError(resp)
		return "", err
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}
	return body.AccessToken, nil
}

// rawJSON issues a request outside the authenticated pipeline. Used for
// login, refresh and the other anonymous auth endpoints.
func (m *Manager) rawJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if len(payload) > 0 {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return m.client.Do(req)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return data, nil
	}
}

func decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// statusError converts an error response into an *apperrors.Error,
// using the backend's error message when one is present.
func statusError(resp *http.Response) *apperrors.Error {
	defer resp.Body.Close()

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(raw, &body) == nil {
			msg = body.Error
			if msg == "" {
				msg = body.Message
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperrors.New(resp.StatusCode, msg, nil)
}
