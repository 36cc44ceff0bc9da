package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/balance"
	"infoex/backend/internal/dto"
	"infoex/backend/internal/service"
	pkgerrors "infoex/backend/pkg/errors"
	"infoex/backend/pkg/response"
)

// LeaveHandler worker-facing leave and comp-day requests
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler builds a LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// Request asks for a V, AP or H day
// POST /api/v1/leave/requests
func (h *LeaveHandler) Request(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.LeaveRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.leaveSvc.Request(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.Created(c, record)
}

// Cancel
// DELETE /api/v1/leave/requests/:id
func (h *LeaveHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.leaveSvc.Cancel(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListMine
// GET /api/v1/leave/requests/me?year=
func (h *LeaveHandler) ListMine(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.leaveSvc.ListMine(c.Request.Context(), caller, q.Year)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, result)
}

// Calendar iCalendar feed of the caller's leave days
// GET /api/v1/leave/calendar.ics
func (h *LeaveHandler) Calendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.leaveSvc.Calendar(c.Request.Context(), caller)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="dias_libres.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// handleLeaveError maps intake rejections to distinct codes so clients can tell them apart
func (h *LeaveHandler) handleLeaveError(c *gin.Context, err error) {
	var ce *pkgerrors.ConflictError
	switch {
	case errors.Is(err, service.ErrLeaveNotFound):
		response.NotFound(c, 31001, err.Error())
	case errors.Is(err, service.ErrLeaveNotOwned):
		response.Forbidden(c, 31002, err.Error())
	case errors.Is(err, service.ErrLeaveInPast):
		response.BadRequest(c, 31003, err.Error())
	case errors.Is(err, service.ErrNotALeaveRecord):
		response.BadRequest(c, 31004, err.Error())
	case errors.As(err, &ce):
		response.Conflict(c, leaveConflictCode(ce.Reason), ce.Reason)
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}

func leaveConflictCode(reason string) int {
	switch reason {
	case balance.MsgOvertimeLogged:
		return 31005
	case balance.MsgLeaveExists:
		return 31006
	case balance.MsgNoCompDays:
		return 31007
	default:
		return 31008
	}
}
