package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/service"
	"infoex/backend/pkg/response"
)

// UnitHandler HTTP surface for units and stations
type UnitHandler struct {
	unitSvc service.UnitService
}

// NewUnitHandler builds a UnitHandler
func NewUnitHandler(unitSvc service.UnitService) *UnitHandler {
	return &UnitHandler{unitSvc: unitSvc}
}

// ListUnits
// GET /api/v1/units
func (h *UnitHandler) ListUnits(c *gin.Context) {
	var req dto.UnitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	units, err := h.unitSvc.ListUnits(c.Request.Context(), &req)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": units})
}

// GetUnit
// GET /api/v1/units/:id
func (h *UnitHandler) GetUnit(c *gin.Context) {
	unit, err := h.unitSvc.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, unit)
}

// CreateUnit
// POST /api/v1/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	unit, err := h.unitSvc.CreateUnit(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, unit)
}

// UpdateUnit
// PUT /api/v1/units/:id
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	unit, err := h.unitSvc.UpdateUnit(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, unit)
}

// DeleteUnit
// DELETE /api/v1/units/:id
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unitSvc.DeleteUnit(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListStations
// GET /api/v1/units/:id/stations
func (h *UnitHandler) ListStations(c *gin.Context) {
	stations, err := h.unitSvc.ListStations(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, gin.H{"list": stations})
}

// CreateStation
// POST /api/v1/stations
func (h *UnitHandler) CreateStation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	station, err := h.unitSvc.CreateStation(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.Created(c, station)
}

// UpdateStation
// PUT /api/v1/stations/:id
func (h *UnitHandler) UpdateStation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	station, err := h.unitSvc.UpdateStation(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, station)
}

// DeleteStation
// DELETE /api/v1/stations/:id
func (h *UnitHandler) DeleteStation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.unitSvc.DeleteStation(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleUnitError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleUnitError maps unit module errors
func (h *UnitHandler) handleUnitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnitNotFound):
		response.NotFound(c, 21001, err.Error())
	case errors.Is(err, service.ErrStationNotFound):
		response.NotFound(c, 21002, err.Error())
	case errors.Is(err, service.ErrUnitNameExists):
		response.Conflict(c, 21003, err.Error())
	case errors.Is(err, service.ErrStationNameExists):
		response.Conflict(c, 21004, err.Error())
	case errors.Is(err, service.ErrUnitHasMembers):
		response.Conflict(c, 21005, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
