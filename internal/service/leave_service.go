package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/balance"
	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
	pkgerrors "infoex/backend/pkg/errors"
	"infoex/backend/pkg/metrics"
)

// ── leave errors ──

var (
	ErrLeaveNotFound   = pkgerrors.NotFound("solicitud", "")
	ErrLeaveNotOwned   = errors.New("solo puedes cancelar tus propias solicitudes")
	ErrLeaveInPast     = errors.New("no se puede cancelar un día libre ya pasado")
	ErrNotALeaveRecord = errors.New("el registro no es un día libre")
)

// LeaveService worker self-service: request and cancel days off
type LeaveService interface {
	Request(ctx context.Context, caller Caller, req *dto.LeaveRequestBody) (*dto.AttendanceRecordResponse, error)
	Cancel(ctx context.Context, caller Caller, recordID string) error
	ListMine(ctx context.Context, caller Caller, year int) (*dto.LeaveListResponse, error)
	Calendar(ctx context.Context, caller Caller) ([]byte, error)
}

type leaveService struct {
	cfg    *config.Config
	repo   *repository.Repository
	policy PolicySource
	logger *zap.Logger
	now    func() time.Time
}

// NewLeaveService builds a LeaveService
func NewLeaveService(cfg *config.Config, repo *repository.Repository, policy PolicySource, logger *zap.Logger) LeaveService {
	return &leaveService{
		cfg:    cfg,
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Request ──────────────────────

// Request records a V, AP or H day for the caller. The user row is locked for the whole
// check-then-write so two requests for the same person cannot both pass the guard.
func (s *leaveService) Request(ctx context.Context, caller Caller, req *dto.LeaveRequestBody) (*dto.AttendanceRecordResponse, error) {
	if !caller.Role.CanRequestLeave() {
		return nil, ErrNoPermission
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	code, err := model.ParseAttendanceCode(strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil || !code.IsLeave() {
		metrics.LeaveRequests.WithLabelValues(req.Code, "invalid").Inc()
		return nil, pkgerrors.Validation("code", "el código debe ser V, AP o H")
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	var saved *model.AttendanceRecord
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		user, err := tx.User.LockByID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		day, err := tx.Attendance.ListByUserAndDate(ctx, user.UserID, date)
		if err != nil {
			return err
		}
		history, err := tx.Attendance.ListByUser(ctx, user.UserID)
		if err != nil {
			return err
		}
		ot, err := balance.ComputeOvertimeBalance(history, policy.CompDayThreshold)
		if err != nil {
			return err
		}

		if err := balance.CheckLeaveRequest(day, code, ot.CompDaysAvailable); err != nil {
			return err
		}

		// a plain workday without overtime becomes the leave day; cancelling restores it
		if len(day) == 1 {
			rec := day[0]
			rec.ReplaceWithLeave(code)
			rec.UpdatedBy = &caller.UserID
			if err := tx.Attendance.Update(ctx, &rec); err != nil {
				return err
			}
			saved = &rec
			return nil
		}

		rec := &model.AttendanceRecord{
			UserID:     user.UserID,
			WorkDate:   date,
			Code:       code,
			UnitID:     user.UnitID,
			StationID:  user.StationID,
			Source:     model.SourceRequest,
			RecordedBy: &caller.UserID,
			BaseModel:  model.BaseModel{CreatedBy: &caller.UserID, UpdatedBy: &caller.UserID},
		}
		if err := tx.Attendance.Create(ctx, rec); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkgerrors.Conflict(balance.MsgLeaveExists)
			}
			return err
		}
		saved = rec
		return nil
	})

	metrics.LeaveRequests.WithLabelValues(string(code), leaveOutcome(err)).Inc()
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrConflict) && !errors.Is(err, pkgerrors.ErrValidation) {
			s.logger.Error("leave request failed",
				zap.String("user_id", caller.UserID), zap.String("date", req.Date), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("leave requested",
		zap.String("user_id", caller.UserID),
		zap.String("date", date.Format(model.DateLayout)),
		zap.String("code", string(code)),
	)

	resp := toRecordResponse(saved)
	return &resp, nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel removes the caller's leave day. A leave written over a shift-leader entry puts that entry back.
func (s *leaveService) Cancel(ctx context.Context, caller Caller, recordID string) error {
	rec, err := s.repo.Attendance.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLeaveNotFound
		}
		return err
	}
	if rec.UserID != caller.UserID {
		return ErrLeaveNotOwned
	}
	if !rec.Code.IsLeave() {
		return ErrNotALeaveRecord
	}
	if !s.cfg.Policy.AllowPastLeaveCancels && model.DateOf(rec.WorkDate).Before(today(s.cfg, s.now)) {
		return ErrLeaveInPast
	}

	code, restored := rec.Code, rec.ReplacedEntry()
	if restored {
		rec.RestoreEntry()
		rec.UpdatedBy = &caller.UserID
		err = s.repo.Attendance.Update(ctx, rec)
	} else {
		err = s.repo.Attendance.Delete(ctx, recordID)
	}
	if err != nil {
		s.logger.Error("cancel leave failed", zap.String("record_id", recordID), zap.Error(err))
		return err
	}

	s.logger.Info("leave cancelled",
		zap.String("user_id", caller.UserID),
		zap.String("date", rec.WorkDate.Format(model.DateLayout)),
		zap.String("code", string(code)),
		zap.Bool("restored", restored),
	)
	return nil
}

// ────────────────────── ListMine ──────────────────────

func (s *leaveService) ListMine(ctx context.Context, caller Caller, year int) (*dto.LeaveListResponse, error) {
	if year == 0 {
		year = today(s.cfg, s.now).Year()
	}
	from, to := balance.YearBounds(year)

	records, err := s.repo.Attendance.ListByUserRange(ctx, caller.UserID, from, to)
	if err != nil {
		return nil, err
	}

	resp := &dto.LeaveListResponse{Year: year, Items: make([]dto.AttendanceRecordResponse, 0)}
	for i := range records {
		if records[i].Code.IsLeave() {
			resp.Items = append(resp.Items, toRecordResponse(&records[i]))
		}
	}
	return resp, nil
}

// ────────────────────── Calendar ──────────────────────

// Calendar the caller's leave days as an iCalendar feed of all-day events
func (s *leaveService) Calendar(ctx context.Context, caller Caller) ([]byte, error) {
	user, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	records, err := s.repo.Attendance.ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//infoex//asistencia//ES")
	cal.SetXWRCalName(fmt.Sprintf("Días libres de %s", user.Name))

	stamp := s.now().UTC()
	for i := range records {
		r := &records[i]
		if !r.Code.IsLeave() {
			continue
		}
		day := model.DateOf(r.WorkDate)
		event := cal.AddEvent(r.RecordID + "@infoex")
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(r.Code.Label())
	}

	return []byte(cal.Serialize()), nil
}

// leaveOutcome metric label for an intake attempt
func leaveOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, pkgerrors.ErrConflict):
		return "conflict"
	case errors.Is(err, pkgerrors.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
