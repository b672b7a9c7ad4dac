package api

import (
	"context"
	"net/http"

	"github.com/Ziroworld/ailav-client/models"
	"github.com/Ziroworld/ailav-client/session"
)

// UserAPI talks to the user management endpoints backing the admin
// users dashboard.
type UserAPI struct {
	session *session.Manager
}

func NewUserAPI(s *session.Manager) *UserAPI {
	return &UserAPI{session: s}
}

// List returns all users.
func (u *UserAPI) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := u.session.DoJSON(ctx, http.MethodGet, "/users/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update modifies a user's profile fields.
func (u *UserAPI) Update(ctx context.Context, userID string, fields map[string]any) (*models.User, error) {
	var user models.User
	if err := u.session.DoJSON(ctx, http.MethodPut, "/users/"+userID, fields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user account.
func (u *UserAPI) Delete(ctx context.Context, userID string) error {
	return u.session.DoJSON(ctx, http.MethodDelete, "/users/"+userID, nil, nil)
}
