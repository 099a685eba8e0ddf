package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docboard/config"
	"docboard/internal/dto"
	"docboard/internal/service"
	"docboard/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler authentication endpoints.
type AuthHandler struct {
	authSvc      service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates an AuthHandler; a nil server config means non-secure cookies.
func NewAuthHandler(authSvc service.AuthService, srv *config.ServerConfig) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if srv != nil {
		h.cookieSecure = srv.CookieSecure
	}
	return h
}

// Register self-service sign-up
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresIn)
	response.OK(c, result)
}

// RefreshToken rotates the token pair. The refresh token comes from the body
// or, failing that, the refresh_token cookie.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		response.BadRequest(c, 10001, "refresh_token is required")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresIn)
	response.OK(c, result)
}

// Logout revokes the access token and, when supplied, the refresh token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)
	refresh := req.RefreshToken
	if refresh == "" {
		refresh, _ = c.Cookie(refreshCookieName)
	}

	jti, exp := tokenMeta(c)
	if err := h.authSvc.Logout(c.Request.Context(), jti, exp, refresh); err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, "", -1)
	response.OK(c, nil)
}

// GetCurrentUser
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// setRefreshCookie maxAge < 0 deletes the cookie.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, "", h.cookieSecure, true)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "invalid email or password")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, 11002, "refresh token is invalid or revoked")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11003, "email already registered")
	case errors.Is(err, service.ErrOldPasswordWrong):
		response.BadRequest(c, 11004, "old password is incorrect")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "user not found")
	default:
		handleCommonError(c, err)
	}
}
