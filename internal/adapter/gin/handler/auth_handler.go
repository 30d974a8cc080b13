package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portunus/internal/usecase/user"
	"portunus/pkg/security"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	uc     user.Usecase
	tokens *security.TokenManager
	log    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc user.Usecase, tokens *security.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, tokens: tokens, log: log}
}

// RegisterRequest represents the HTTP request body for self-registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the HTTP request body for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// Register handles POST /v1/auth/register. Self-registered accounts are never administrators.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, h.log, "register", err)
		return
	}

	c.JSON(http.StatusCreated, IDResponse{ID: resp.ID})
}

// Login handles POST /v1/auth/login. Username may also be an email address.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.uc.Authenticate(c.Request.Context(), user.AuthenticateRequest{
		Identifier: req.Username,
		Password:   req.Password,
	})
	if err != nil {
		handleError(c, h.log, "login", err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(resp.User.ID, resp.User.IsAdmin)
	if err != nil {
		handleError(c, h.log, "login", err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        toUserResponse(resp.User),
	})
}
