package handler

import (
	"infoex/backend/config"
	"infoex/backend/internal/service"
)

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Unit         *UnitHandler
	Attendance   *AttendanceHandler
	Leave        *LeaveHandler
	Balance      *BalanceHandler
	SystemConfig *SystemConfigHandler
	Export       *ExportHandler
	Draft        *DraftHandler
}

// NewHandler builds the Handler aggregate
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		User:         NewUserHandler(svc.User),
		Unit:         NewUnitHandler(svc.Unit),
		Attendance:   NewAttendanceHandler(svc.Attendance),
		Leave:        NewLeaveHandler(svc.Leave),
		Balance:      NewBalanceHandler(svc.Balance),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
		Export:       NewExportHandler(svc.Export),
		Draft:        NewDraftHandler(svc.Draft),
	}
}
