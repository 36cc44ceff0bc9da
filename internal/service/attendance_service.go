package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

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

// ── attendance errors ──

var (
	ErrRecordNotFound       = pkgerrors.NotFound("registro", "")
	ErrNotStationMember     = errors.New("el usuario no pertenece a la caseta")
	ErrDuplicateRosterEntry = errors.New("un mismo usuario aparece varias veces en el parte")
)

// AttendanceService shift-leader data entry. Writing a day replaces whatever the day held.
type AttendanceService interface {
	UpsertEntry(ctx context.Context, caller Caller, req *dto.DayEntryRequest) (*dto.AttendanceRecordResponse, error)
	SubmitRoster(ctx context.Context, caller Caller, req *dto.SubmitRosterRequest) (*dto.SubmitRosterResponse, error)
	DeleteEntry(ctx context.Context, caller Caller, recordID string) error
	ListForUser(ctx context.Context, caller Caller, userID string, q *dto.DateRangeQuery) ([]dto.AttendanceRecordResponse, error)
	GetRoster(ctx context.Context, caller Caller, q *dto.RosterQuery) (*dto.RosterResponse, error)
}

type attendanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	policy PolicySource
	drafts DraftStore
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService builds an AttendanceService; drafts may be nil
func NewAttendanceService(
	cfg *config.Config,
	repo *repository.Repository,
	policy PolicySource,
	drafts DraftStore,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		cfg:    cfg,
		repo:   repo,
		policy: policy,
		drafts: drafts,
		logger: logger,
		now:    time.Now,
	}
}

// dayInput one day's values as typed in the form
type dayInput struct {
	Code          string
	EntryTime     string
	ExitTime      string
	OvertimeHours dto.HoursInput
	StationID     *string
}

// ────────────────────── UpsertEntry ──────────────────────

func (s *attendanceService) UpsertEntry(ctx context.Context, caller Caller, req *dto.DayEntryRequest) (*dto.AttendanceRecordResponse, error) {
	caller, err := currentCaller(ctx, s.repo.User, caller)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanRecordAttendance() {
		return nil, ErrNoPermission
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	in := dayInput{
		Code:          req.Code,
		EntryTime:     req.EntryTime,
		ExitTime:      req.ExitTime,
		OvertimeHours: req.OvertimeHours,
		StationID:     req.StationID,
	}

	var saved *model.AttendanceRecord
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		rec, err := s.writeDay(ctx, tx, caller, req.UserID, date, in, policy)
		saved = rec
		return err
	})
	if err != nil {
		metrics.AttendanceEntries.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	metrics.AttendanceEntries.WithLabelValues("saved").Inc()
	resp := toRecordResponse(saved)
	return &resp, nil
}

// ────────────────────── SubmitRoster ──────────────────────

func (s *attendanceService) SubmitRoster(ctx context.Context, caller Caller, req *dto.SubmitRosterRequest) (*dto.SubmitRosterResponse, error) {
	caller, err := currentCaller(ctx, s.repo.User, caller)
	if err != nil {
		return nil, err
	}
	if !caller.Role.CanRecordAttendance() {
		return nil, ErrNoPermission
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	station, err := s.repo.Station.GetByID(ctx, req.StationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUnit(station.UnitID) {
		return nil, ErrNoPermission
	}

	members, err := s.repo.User.ListByStation(ctx, station.StationID)
	if err != nil {
		s.logger.Error("list station members failed", zap.String("station_id", station.StationID), zap.Error(err))
		return nil, err
	}
	memberNames := make(map[string]string, len(members))
	for i := range members {
		memberNames[members[i].UserID] = members[i].Name
	}

	seen := make(map[string]bool, len(req.Entries))
	for _, e := range req.Entries {
		if seen[e.UserID] {
			return nil, ErrDuplicateRosterEntry
		}
		seen[e.UserID] = true
		if _, ok := memberNames[e.UserID]; !ok {
			return nil, ErrNotStationMember
		}
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	// stable lock order across concurrent submits
	entries := make([]dto.RosterEntry, len(req.Entries))
	copy(entries, req.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })

	saved := make([]model.AttendanceRecord, 0, len(entries))
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, e := range entries {
			in := dayInput{
				Code:          e.Code,
				EntryTime:     e.EntryTime,
				ExitTime:      e.ExitTime,
				OvertimeHours: e.OvertimeHours,
				StationID:     &station.StationID,
			}
			rec, err := s.writeDay(ctx, tx, caller, e.UserID, date, in, policy)
			if err != nil {
				return withMember(err, memberNames[e.UserID])
			}
			saved = append(saved, *rec)
		}
		return nil
	})
	if err != nil {
		metrics.AttendanceEntries.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}
	metrics.AttendanceEntries.WithLabelValues("saved").Add(float64(len(saved)))

	if s.drafts != nil {
		if err := s.drafts.DeleteDraft(ctx, draftKey(caller.UserID, station.StationID, req.Date)); err != nil {
			s.logger.Warn("clear roster draft failed", zap.Error(err))
		}
	}

	s.logger.Info("roster submitted",
		zap.String("station_id", station.StationID),
		zap.String("date", req.Date),
		zap.Int("entries", len(saved)),
		zap.String("by", caller.UserID),
	)

	return &dto.SubmitRosterResponse{
		Date:    date.Format(model.DateLayout),
		Saved:   len(saved),
		Records: toRecordResponses(saved),
	}, nil
}

// ────────────────────── DeleteEntry ──────────────────────

func (s *attendanceService) DeleteEntry(ctx context.Context, caller Caller, recordID string) error {
	caller, err := currentCaller(ctx, s.repo.User, caller)
	if err != nil {
		return err
	}
	if !caller.Role.CanRecordAttendance() {
		return ErrNoPermission
	}

	rec, err := s.repo.Attendance.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}

	target, err := s.repo.User.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !caller.CanAccessUser(target) {
		return ErrNoPermission
	}

	if err := s.repo.Attendance.Delete(ctx, recordID); err != nil {
		s.logger.Error("delete attendance record failed", zap.String("record_id", recordID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListForUser ──────────────────────

func (s *attendanceService) ListForUser(ctx context.Context, caller Caller, userID string, q *dto.DateRangeQuery) ([]dto.AttendanceRecordResponse, error) {
	target, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUser(target) {
		return nil, ErrNoPermission
	}

	from, to := balance.YearBounds(today(s.cfg, s.now).Year())
	if q.From != "" {
		if from, err = parseDate("from", q.From); err != nil {
			return nil, err
		}
	}
	if q.To != "" {
		if to, err = parseDate("to", q.To); err != nil {
			return nil, err
		}
	}
	if to.Before(from) {
		return nil, pkgerrors.Validation("to", "la fecha final es anterior a la inicial")
	}

	records, err := s.repo.Attendance.ListByUserRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("list attendance failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toRecordResponses(records), nil
}

// ────────────────────── GetRoster ──────────────────────

func (s *attendanceService) GetRoster(ctx context.Context, caller Caller, q *dto.RosterQuery) (*dto.RosterResponse, error) {
	if !caller.Role.CanRecordAttendance() {
		return nil, ErrNoPermission
	}

	date, err := parseDate("date", q.Date)
	if err != nil {
		return nil, err
	}

	station, err := s.repo.Station.GetByID(ctx, q.StationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUnit(station.UnitID) {
		return nil, ErrNoPermission
	}

	members, err := s.repo.User.ListByStation(ctx, station.StationID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for i := range members {
		ids = append(ids, members[i].UserID)
	}

	records, err := s.repo.Attendance.ListByUsersRange(ctx, ids, date, date)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byUser[records[i].UserID] = &records[i]
	}

	resp := &dto.RosterResponse{
		Station: dto.StationBrief{ID: station.StationID, UnitID: station.UnitID, Name: station.Name},
		Date:    date.Format(model.DateLayout),
		Members: make([]dto.RosterMember, 0, len(members)),
	}
	for i := range members {
		m := dto.RosterMember{User: toUserResponse(&members[i])}
		if rec, ok := byUser[members[i].UserID]; ok {
			r := toRecordResponse(rec)
			m.Record = &r
		}
		resp.Members = append(resp.Members, m)
	}
	return resp, nil
}

// ── internal helpers ──

// writeDay validates one day's input and stores it as the target's only record for that date
func (s *attendanceService) writeDay(
	ctx context.Context,
	tx *repository.Repository,
	caller Caller,
	userID string,
	date time.Time,
	in dayInput,
	policy balance.Policy,
) (*model.AttendanceRecord, error) {
	code, err := model.ParseAttendanceCode(in.Code)
	if err != nil {
		return nil, pkgerrors.Validation("code", "código no válido; usa JR, TH, TC, B, V, AP o H")
	}
	entry, err := parseClock("entry_time", in.EntryTime)
	if err != nil {
		return nil, err
	}
	exit, err := parseClock("exit_time", in.ExitTime)
	if err != nil {
		return nil, err
	}
	hours, err := balance.ParseOvertimeHours(string(in.OvertimeHours), s.cfg.Policy.LenientOvertimeInput)
	if err != nil {
		return nil, err
	}

	target, err := tx.User.LockByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUser(target) {
		return nil, ErrNoPermission
	}

	stationID := in.StationID
	if stationID == nil {
		stationID = target.StationID
	}

	record := &model.AttendanceRecord{
		UserID:        target.UserID,
		WorkDate:      date,
		Code:          code,
		EntryTime:     entry,
		ExitTime:      exit,
		OvertimeHours: hours,
		UnitID:        target.UnitID,
		StationID:     stationID,
		Source:        model.SourceEntry,
		RecordedBy:    &caller.UserID,
		BaseModel:     model.BaseModel{CreatedBy: &caller.UserID, UpdatedBy: &caller.UserID},
	}
	if err := balance.CheckDayEntry(record); err != nil {
		return nil, err
	}

	if code == model.CodeCompDay {
		history, err := tx.Attendance.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		// the day being replaced does not count
		others := history[:0:0]
		for _, r := range history {
			if !model.DateOf(r.WorkDate).Equal(date) {
				others = append(others, r)
			}
		}
		ot, err := balance.ComputeOvertimeBalance(others, policy.CompDayThreshold)
		if err != nil {
			return nil, err
		}
		if ot.CompDaysAvailable <= 0 {
			return nil, pkgerrors.Conflict(balance.MsgNoCompDays)
		}
	}

	if err := tx.Attendance.Upsert(ctx, record); err != nil {
		s.logger.Error("upsert attendance record failed",
			zap.String("user_id", userID), zap.String("date", date.Format(model.DateLayout)), zap.Error(err))
		return nil, err
	}
	return record, nil
}

// withMember prefixes rule violations with the member's name so the wizard can point at the row
func withMember(err error, name string) error {
	if name == "" {
		return err
	}
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		return pkgerrors.Validation(ve.Field, fmt.Sprintf("%s: %s", name, ve.Message))
	}
	var ce *pkgerrors.ConflictError
	if errors.As(err, &ce) {
		return pkgerrors.Conflict(fmt.Sprintf("%s: %s", name, ce.Reason))
	}
	return err
}

// outcomeOf metric label for a failed write
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		return "invalid"
	case errors.Is(err, pkgerrors.ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNoPermission):
		return "forbidden"
	default:
		return "error"
	}
}
