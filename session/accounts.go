package session

import (
	"context"
	"net/http"

	"github.com/Ziroworld/ailav-client/models"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates a new account. It does not log the user in.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body struct {
		User *models.User `json:"user"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return nil, err
	}
	return body.User, nil
}

// RequestOTP asks the backend to mail a one-time password-reset code.
func (m *Manager) RequestOTP(ctx context.Context, email string) error {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/request-otp", map[string]string{"email": email})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	resp.Body.Close()
	return nil
}

// VerifyOTP checks a one-time code and returns the user id to use with
// ResetPassword.
func (m *Manager) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := decodeBody(resp, &body); err != nil {
		return "", err
	}
	return body.UserID, nil
}

// ResetPassword sets a new password after OTP verification.
func (m *Manager) ResetPassword(ctx context.Context, userID, newPassword, email string) error {
	resp, err := m.rawJSON(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"userId":      userID,
		"newPassword": newPassword,
		"email":       email,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	resp.Body.Close()
	return nil
}
