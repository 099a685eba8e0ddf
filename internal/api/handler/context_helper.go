package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docboard/internal/service"
	pkgerrors "docboard/pkg/errors"
	"docboard/pkg/response"
)

// MustGetUserID reads the user_id injected by JWTAuth.
// On failure it writes 401 and returns false; callers just return.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole reads the role injected by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// mustGetCaller reads both user_id and role.
func mustGetCaller(c *gin.Context) (string, string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", "", false
	}
	return userID, role, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "unauthenticated")
		return "", false
	}
	return s, true
}

// tokenMeta jti and expiry of the current access token; zero values when absent.
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

func badRequest(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid parameters", err.Error())
}

// handleCommonError maps errors shared by every module; unknown errors become 500.
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "permission denied")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "record was modified by someone else, reload and retry")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 10007, "invalid date, expected YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidRange):
		response.BadRequest(c, 10008, "invalid date range")
	case errors.Is(err, service.ErrDateInPast):
		response.BadRequest(c, 10009, "date is in the past")
	case errors.Is(err, service.ErrDateTooFar):
		response.BadRequest(c, 10010, "date is beyond the booking horizon")
	case errors.Is(err, service.ErrDoctorNotFound):
		response.NotFound(c, 13001, "doctor not found")
	case errors.Is(err, service.ErrPatientNotFound):
		response.NotFound(c, 13101, "patient not found")
	default:
		response.InternalError(c)
	}
}
