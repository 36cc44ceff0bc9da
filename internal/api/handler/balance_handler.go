package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/service"
	"infoex/backend/pkg/response"
)

// BalanceHandler leave and comp-day balances
type BalanceHandler struct {
	balanceSvc service.BalanceService
}

// NewBalanceHandler builds a BalanceHandler
func NewBalanceHandler(balanceSvc service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// Mine
// GET /api/v1/balances/me?year=
func (h *BalanceHandler) Mine(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.forUser(c, caller, caller.UserID)
}

// ForUser
// GET /api/v1/balances/users/:id?year=
func (h *BalanceHandler) ForUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.forUser(c, caller, c.Param("id"))
}

func (h *BalanceHandler) forUser(c *gin.Context, caller service.Caller, userID string) {
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	snap, err := h.balanceSvc.ForUser(c.Request.Context(), caller, userID, q.Year)
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, snap)
}

// ForUnit rollup for every member of a unit
// GET /api/v1/balances/units/:id?year=
func (h *BalanceHandler) ForUnit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.balanceSvc.ForUnit(c.Request.Context(), caller, c.Param("id"), q.Year)
	if err != nil {
		h.handleBalanceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *BalanceHandler) handleBalanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 32001, err.Error())
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 32002, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
