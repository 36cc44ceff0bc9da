package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/service"
	"infoex/backend/pkg/response"
)

// DraftHandler server-side roster wizard drafts
type DraftHandler struct {
	draftSvc service.DraftService
}

// NewDraftHandler builds a DraftHandler
func NewDraftHandler(draftSvc service.DraftService) *DraftHandler {
	return &DraftHandler{draftSvc: draftSvc}
}

// Load
// GET /api/v1/drafts/roster?station_id=&date=
func (h *DraftHandler) Load(c *gin.Context) {
	caller, q, ok := h.bind(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.Load(c.Request.Context(), caller, q)
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// Save
// PUT /api/v1/drafts/roster?station_id=&date=
func (h *DraftHandler) Save(c *gin.Context) {
	caller, q, ok := h.bind(c)
	if !ok {
		return
	}

	var req dto.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	draft, err := h.draftSvc.Save(c.Request.Context(), caller, q, &req)
	if err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// Clear
// DELETE /api/v1/drafts/roster?station_id=&date=
func (h *DraftHandler) Clear(c *gin.Context) {
	caller, q, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.draftSvc.Clear(c.Request.Context(), caller, q); err != nil {
		h.handleDraftError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *DraftHandler) bind(c *gin.Context) (service.Caller, *dto.DraftQuery, bool) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return service.Caller{}, nil, false
	}
	var q dto.DraftQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return service.Caller{}, nil, false
	}
	return caller, &q, true
}

func (h *DraftHandler) handleDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDraftUnavailable):
		response.ServiceUnavailable(c, 33001, err.Error())
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 33002, err.Error())
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
