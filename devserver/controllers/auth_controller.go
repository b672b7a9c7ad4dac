package controllers

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/devserver/middleware"
	dsmodels "github.com/Ziroworld/ailav-client/devserver/models"
	"github.com/Ziroworld/ailav-client/devserver/services"
	"github.com/Ziroworld/ailav-client/logger"
	"go.uber.org/zap"
)

const refreshCookieName = "refresh_token"

// AuthController implements the auth endpoints of the storefront
// contract: login, register, refresh, csrf-token, currentuser, and the
// OTP password-reset flow.
type AuthController struct {
	Users  database.UserRepository
	Tokens *services.TokenService
	CSRF   *services.CSRFService
}

func NewAuthController(users database.UserRepository, tokens *services.TokenService, csrf *services.CSRFService) *AuthController {
	return &AuthController{Users: users, Tokens: tokens, CSRF: csrf}
}

// Struct to represent the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Struct for user registration
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// Login handles user authentication and token issuance. The refresh
// token travels only in an HTTP-only cookie; the access token only in
// the response body.
func (ac *AuthController) Login(c *gin.Context) {
	var loginReq LoginRequest
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	user, err := ac.Users.FindByEmail(c, loginReq.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginReq.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	pair, err := ac.Tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
	if err != nil {
		logger.Error(c, "failed to generate token pair", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetCookie(refreshCookieName, pair.RefreshToken, 604800, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// Register creates a new account.
func (ac *AuthController) Register(c *gin.Context) {
	var registerReq RegisterRequest
	if err := c.ShouldBindJSON(&registerReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	role := registerReq.Role
	if role == "" {
		role = "customer"
	}
	newUser := dsmodels.User{
		ID:       uuid.New(),
		Name:     registerReq.Name,
		Email:    registerReq.Email,
		Password: string(hashedPassword),
		Role:     role,
	}

	if err := ac.Users.Create(c, &newUser); err != nil {
		if err == database.ErrEmailTaken {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		logger.Error(c, "failed to create user", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"user":    newUser,
	})
}

// RefreshToken exchanges the refresh cookie for a new access token and
// rotates the refresh cookie.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found"})
		return
	}

	claims, err := ac.Tokens.ValidateToken(refreshToken, "refresh")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	sub, _ := claims["sub"].(string)
	user, err := ac.Users.FindByID(c, sub)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return
	}

	pair, err := ac.Tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.SetCookie(refreshCookieName, pair.RefreshToken, 604800, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}

// Logout clears the refresh cookie. Access tokens simply expire.
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CSRFToken issues a fresh anti-forgery token.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrfToken": ac.CSRF.Issue()})
}

// CurrentUser resolves the profile of the bearer token's subject.
func (ac *AuthController) CurrentUser(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	user, err := ac.Users.FindByID(c, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// RequestOTP generates a one-time password-reset code. The fixture has
// no mailer; the code is written to the log instead.
func (ac *AuthController) RequestOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	user, err := ac.Users.FindByEmail(c, req.Email)
	if err != nil {
		// Do not reveal whether the account exists.
		c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a code has been sent"})
		return
	}

	user.OTPCode = generateRandomCode(6)
	user.OTPExpiry = time.Now().Add(10 * time.Minute)
	if err := ac.Users.Update(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store code"})
		return
	}

	logger.Info(c, "password reset code issued",
		zap.String("email", user.Email), zap.String("otp", user.OTPCode))
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a code has been sent"})
}

// VerifyOTP checks a reset code and returns the user id for
// ResetPassword.
func (ac *AuthController) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	user, err := ac.Users.FindByEmail(c, req.Email)
	if err != nil || user.OTPCode == "" || user.OTPCode != req.OTP || time.Now().After(user.OTPExpiry) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": user.ID.String(), "message": "Code verified"})
}

// ResetPassword sets a new password after OTP verification.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
		Email       string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	user, err := ac.Users.FindByID(c, req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user.Password = string(hashed)
	user.OTPCode = ""
	if err := ac.Users.Update(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func generateRandomCode(n int) string {
	code := ""
	for i := 0; i < n; i++ {
		code += fmt.Sprintf("%d", rand.Intn(10))
	}
	return code
}
