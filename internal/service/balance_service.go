package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/balance"
	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
)

// BalanceService balances are recomputed from records on every call
type BalanceService interface {
	ForUser(ctx context.Context, caller Caller, userID string, year int) (*dto.BalanceSnapshotResponse, error)
	ForUnit(ctx context.Context, caller Caller, unitID string, year int) (*dto.UnitBalanceResponse, error)
}

type balanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	policy PolicySource
	logger *zap.Logger
	now    func() time.Time
}

// NewBalanceService builds a BalanceService
func NewBalanceService(cfg *config.Config, repo *repository.Repository, policy PolicySource, logger *zap.Logger) BalanceService {
	return &balanceService{
		cfg:    cfg,
		repo:   repo,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── ForUser ──────────────────────

func (s *balanceService) ForUser(ctx context.Context, caller Caller, userID string, year int) (*dto.BalanceSnapshotResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUser(user) {
		return nil, ErrNoPermission
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.ListByUser(ctx, user.UserID)
	if err != nil {
		s.logger.Error("load attendance history failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	snap, err := balance.Compute(records, policy, s.resolveYear(year))
	if err != nil {
		return nil, err
	}
	resp := toSnapshotResponse(user, snap)
	return &resp, nil
}

// ────────────────────── ForUnit ──────────────────────

func (s *balanceService) ForUnit(ctx context.Context, caller Caller, unitID string, year int) (*dto.UnitBalanceResponse, error) {
	unit, err := s.repo.Unit.GetByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}
	if !caller.CanAccessUnit(unit.UnitID) {
		return nil, ErrNoPermission
	}

	policy, err := s.policy.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	year = s.resolveYear(year)

	members, err := s.repo.User.ListByUnit(ctx, unit.UnitID)
	if err != nil {
		return nil, err
	}
	snaps, err := snapshotsFor(ctx, s.repo, members, policy, year)
	if err != nil {
		s.logger.Error("compute unit balances failed", zap.String("unit_id", unitID), zap.Error(err))
		return nil, err
	}

	resp := &dto.UnitBalanceResponse{
		Unit:    dto.UnitBrief{ID: unit.UnitID, Name: unit.Name},
		Year:    year,
		Members: make([]dto.BalanceSnapshotResponse, 0, len(members)),
	}
	for i := range members {
		resp.Members = append(resp.Members, toSnapshotResponse(&members[i], snaps[members[i].UserID]))
	}
	return resp, nil
}

func (s *balanceService) resolveYear(year int) int {
	if year == 0 {
		return today(s.cfg, s.now).Year()
	}
	return year
}

// snapshotsFor loads the members' histories in one query and computes each balance
func snapshotsFor(
	ctx context.Context,
	repo *repository.Repository,
	members []model.User,
	policy balance.Policy,
	year int,
) (map[string]balance.Snapshot, error) {
	ids := make([]string, 0, len(members))
	for i := range members {
		ids = append(ids, members[i].UserID)
	}

	records, err := repo.Attendance.ListByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]model.AttendanceRecord, len(members))
	for _, r := range records {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	out := make(map[string]balance.Snapshot, len(members))
	for _, id := range ids {
		snap, err := balance.Compute(byUser[id], policy, year)
		if err != nil {
			return nil, err
		}
		out[id] = snap
	}
	return out, nil
}

func toSnapshotResponse(user *model.User, snap balance.Snapshot) dto.BalanceSnapshotResponse {
	return dto.BalanceSnapshotResponse{
		UserID: user.UserID,
		Name:   user.Name,
		Overtime: dto.OvertimeBalanceResponse{
			TotalOvertimeHours:     snap.Overtime.TotalOvertimeHours.InexactFloat64(),
			CompDaysEarned:         snap.Overtime.CompDaysEarned,
			CompDaysConsumed:       snap.Overtime.CompDaysConsumed,
			CompDaysAvailable:      snap.Overtime.CompDaysAvailable,
			HoursTowardNextCompDay: snap.Overtime.HoursTowardNextCompDay.InexactFloat64(),
		},
		Leave: dto.LeaveBalanceResponse{
			Year:              snap.Leave.Year,
			VacationUsed:      snap.Leave.VacationUsed,
			VacationRemaining: snap.Leave.VacationRemaining,
			PersonalUsed:      snap.Leave.PersonalUsed,
			PersonalRemaining: snap.Leave.PersonalRemaining,
		},
	}
}
