package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/api/middleware"
	"infoex/backend/internal/model"
	"infoex/backend/internal/service"
	pkgerrors "infoex/backend/pkg/errors"
	"infoex/backend/pkg/response"
)

const msgInvalidParams = "parámetros inválidos"

// MustGetUserID reads user_id set by JWTAuth.
// On failure it writes a 401 and returns false; the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "no autenticado")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "no autenticado")
		return "", false
	}
	return s, true
}

// MustGetCaller the authenticated identity as a service.Caller
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role, err := model.ParseRole(c.GetString(middleware.CtxRole))
	if err != nil {
		response.Unauthorized(c, 10002, "no autenticado")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID: userID,
		Role:   role,
		UnitID: c.GetString(middleware.CtxUnitID),
	}, true
}

// bindFailed writes the generic 400 for a binding error
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, msgInvalidParams, err.Error())
}

// handleCommonError maps the shared error taxonomy. It reports false when err is none of them.
func handleCommonError(c *gin.Context, err error) bool {
	var (
		ve *pkgerrors.ValidationError
		ce *pkgerrors.ConflictError
		ne *pkgerrors.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, ve.Message, ve.Field)
	case errors.As(err, &ce):
		response.Conflict(c, 10008, ce.Reason)
	case errors.As(err, &ne):
		response.NotFound(c, 10007, ne.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, err.Error())
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, err.Error())
	default:
		return false
	}
	return true
}
