package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	dsmodels "github.com/Ziroworld/ailav-client/devserver/models"
	"github.com/Ziroworld/ailav-client/devserver/services"
	"github.com/Ziroworld/ailav-client/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTests()
}

type authFixture struct {
	users  *database.MemoryUserRepository
	tokens *services.TokenService
	router *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := database.NewMemoryUserRepository()
	tokens := services.NewTokenService("test-secret", 15*time.Minute)
	csrf := services.NewCSRFService(time.Hour)
	ctrl := NewAuthController(users, tokens, csrf)

	router := gin.New()
	router.POST("/auth/login", ctrl.Login)
	router.POST("/auth/register", ctrl.Register)
	router.POST("/auth/refresh-token", ctrl.RefreshToken)
	router.POST("/auth/logout", ctrl.Logout)
	router.GET("/auth/csrf-token", ctrl.CSRFToken)
	router.GET("/auth/currentuser", middleware.RequireAuth(tokens), ctrl.CurrentUser)
	router.POST("/auth/request-otp", ctrl.RequestOTP)
	router.POST("/auth/verify-otp", ctrl.VerifyOTP)
	router.POST("/auth/reset-password", ctrl.ResetPassword)

	return &authFixture{users: users, tokens: tokens, router: router}
}

func (f *authFixture) seedUser(t *testing.T, email, password string) *dsmodels.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &dsmodels.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    email,
		Password: string(hashed),
		Role:     "customer",
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *authFixture) postJSON(path, payload string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func refreshCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range recorder.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	t.Fatal("no refresh_token cookie in response")
	return nil
}

func TestLoginController(t *testing.T) {
	t.Run("Success - 200 OK", func(t *testing.T) {
		// Arrange
		f := newAuthFixture(t)
		f.seedUser(t, "test@example.com", "password123")

		// Act
		recorder := f.postJSON("/auth/login", `{"email": "test@example.com", "password": "password123"}`)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var body struct {
			AccessToken string `json:"accessToken"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.NotEmpty(t, body.AccessToken)
		_, err := f.tokens.ValidateToken(body.AccessToken, "access")
		assert.NoError(t, err)

		cookie := refreshCookie(t, recorder)
		assert.True(t, cookie.HttpOnly)
		_, err = f.tokens.ValidateToken(cookie.Value, "refresh")
		assert.NoError(t, err)
	})

	t.Run("Failure - Wrong Password - 401 Unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, "test@example.com", "password123")

		recorder := f.postJSON("/auth/login", `{"email": "test@example.com", "password": "wrongpassword"}`)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Invalid credentials")
	})

	t.Run("Failure - Unknown Email - 401 Unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.postJSON("/auth/login", `{"email": "nobody@example.com", "password": "password123"}`)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Failure - Bad Request Body - 400 Bad Request", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.postJSON("/auth/login", `{"email": "test@example.com"}`) // missing password

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestRegisterController(t *testing.T) {
	t.Run("Success - 201 Created", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.postJSON("/auth/register", `{"name": "Bob", "email": "bob@example.com", "password": "hunter22"}`)

		assert.Equal(t, http.StatusCreated, recorder.Code)

		stored, err := f.users.FindByEmail(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "customer", stored.Role, "role defaults to customer")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")))
	})

	t.Run("Failure - Duplicate Email - 409 Conflict", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, "bob@example.com", "hunter22")

		recorder := f.postJSON("/auth/register", `{"name": "Bob", "email": "bob@example.com", "password": "hunter22"}`)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestRefreshTokenController(t *testing.T) {
	t.Run("Success - Rotates Cookie", func(t *testing.T) {
		f := newAuthFixture(t)
		f.seedUser(t, "test@example.com", "password123")
		login := f.postJSON("/auth/login", `{"email": "test@example.com", "password": "password123"}`)
		require.Equal(t, http.StatusOK, login.Code)

		recorder := f.postJSON("/auth/refresh-token", "", refreshCookie(t, login))

		assert.Equal(t, http.StatusOK, recorder.Code)
		var body struct {
			AccessToken string `json:"accessToken"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		_, err := f.tokens.ValidateToken(body.AccessToken, "access")
		assert.NoError(t, err)
		refreshCookie(t, recorder) // a fresh cookie was set
	})

	t.Run("Failure - No Cookie - 401 Unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)

		recorder := f.postJSON("/auth/refresh-token", "")

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Failure - Access Token In Cookie - 401 Unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, "test@example.com", "password123")
		pair, err := f.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
		require.NoError(t, err)

		recorder := f.postJSON("/auth/refresh-token", "",
			&http.Cookie{Name: "refresh_token", Value: pair.AccessToken})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestCurrentUserController(t *testing.T) {
	t.Run("Success - Resolves Bearer Subject", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.seedUser(t, "test@example.com", "password123")
		pair, err := f.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
		require.NoError(t, err)

		req, _ := http.NewRequest(http.MethodGet, "/auth/currentuser", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		recorder := httptest.NewRecorder()
		f.router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "test@example.com")
		assert.NotContains(t, recorder.Body.String(), user.Password, "password hash never leaves the server")
	})

	t.Run("Failure - No Bearer - 401 Unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)

		req, _ := http.NewRequest(http.MethodGet, "/auth/currentuser", nil)
		recorder := httptest.NewRecorder()
		f.router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "test@example.com", "oldpassword")
	ctx := context.Background()

	// Request a code. The response never reveals account existence.
	recorder := f.postJSON("/auth/request-otp", `{"email": "test@example.com"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	unknown := f.postJSON("/auth/request-otp", `{"email": "nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, recorder.Body.String(), unknown.Body.String())

	stored, err := f.users.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.OTPCode, 6)

	// A wrong code is rejected.
	bad := f.postJSON("/auth/verify-otp", `{"email": "test@example.com", "otp": "000000x"}`)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)

	// The right code yields the user id for the reset call.
	verify := f.postJSON("/auth/verify-otp",
		`{"email": "test@example.com", "otp": "`+stored.OTPCode+`"}`)
	require.Equal(t, http.StatusOK, verify.Code)
	var verified struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(verify.Body.Bytes(), &verified))
	assert.Equal(t, user.ID.String(), verified.UserID)

	reset := f.postJSON("/auth/reset-password",
		`{"userId": "`+verified.UserID+`", "newPassword": "newpassword"}`)
	require.Equal(t, http.StatusOK, reset.Code)

	// The code is single-use and the new password works.
	reused := f.postJSON("/auth/verify-otp",
		`{"email": "test@example.com", "otp": "`+stored.OTPCode+`"}`)
	assert.Equal(t, http.StatusUnauthorized, reused.Code)

	login := f.postJSON("/auth/login", `{"email": "test@example.com", "password": "newpassword"}`)
	assert.Equal(t, http.StatusOK, login.Code)
}
