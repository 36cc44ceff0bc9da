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

// SystemConfigHandler leave and comp-day policy settings
type SystemConfigHandler struct {
	configSvc service.SystemConfigService
}

// NewSystemConfigHandler builds a SystemConfigHandler
func NewSystemConfigHandler(configSvc service.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{configSvc: configSvc}
}

// GetConfig
// GET /api/v1/system-config
func (h *SystemConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configSvc.Get(c.Request.Context())
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, cfg)
}

// UpdateConfig
// PUT /api/v1/system-config
func (h *SystemConfigHandler) UpdateConfig(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateSystemConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	cfg, err := h.configSvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleConfigError(c, err)
		return
	}

	response.OK(c, cfg)
}

func (h *SystemConfigHandler) handleConfigError(c *gin.Context, err error) {
	var ve *pkgerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, 35001, ve.Message, ve.Field)
	default:
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
	}
}
