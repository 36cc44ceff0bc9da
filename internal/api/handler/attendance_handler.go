package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/service"
	pkgerrors "infoex/backend/pkg/errors"
	"infoex/backend/pkg/response"
)

// AttendanceHandler shift-leader data entry and attendance history
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler builds an AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// UpsertEntry replaces the day record of one worker
// PUT /api/v1/attendance/entries
func (h *AttendanceHandler) UpsertEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.DayEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	record, err := h.attendanceSvc.UpsertEntry(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, record)
}

// DeleteEntry
// DELETE /api/v1/attendance/entries/:id
func (h *AttendanceHandler) DeleteEntry(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.attendanceSvc.DeleteEntry(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetRoster station members with their record for one day
// GET /api/v1/attendance/roster?station_id=&date=
func (h *AttendanceHandler) GetRoster(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var q dto.RosterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	roster, err := h.attendanceSvc.GetRoster(c.Request.Context(), caller, &q)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, roster)
}

// SubmitRoster writes the whole station day in one transaction
// POST /api/v1/attendance/roster
func (h *AttendanceHandler) SubmitRoster(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SubmitRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.attendanceSvc.SubmitRoster(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMine the caller's own history
// GET /api/v1/attendance/me?from=&to=
func (h *AttendanceHandler) ListMine(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.list(c, caller, caller.UserID)
}

// ListForUser
// GET /api/v1/attendance/users/:id?from=&to=
func (h *AttendanceHandler) ListForUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	h.list(c, caller, c.Param("id"))
}

func (h *AttendanceHandler) list(c *gin.Context, caller service.Caller, userID string) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	records, err := h.attendanceSvc.ListForUser(c.Request.Context(), caller, userID, &q)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// handleAttendanceError maps attendance module errors
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	var ce *pkgerrors.ConflictError
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		response.NotFound(c, 30001, err.Error())
	case errors.Is(err, service.ErrNotStationMember):
		response.BadRequest(c, 30002, err.Error())
	case errors.Is(err, service.ErrDuplicateRosterEntry):
		response.BadRequest(c, 30003, err.Error())
	case errors.As(err, &ce):
		response.Error(c, http.StatusConflict, 30004, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, err.Error())
	case errors.Is(err, service.ErrStationNotFound):
		response.NotFound(c, 21002, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
