package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
	"infoex/backend/pkg/jwt"
	pkgredis "infoex/backend/pkg/redis"
)

// Service aggregate of every business service
type Service struct {
	Auth         AuthService
	User         UserService
	Unit         UnitService
	Attendance   AttendanceService
	Leave        LeaveService
	Balance      BalanceService
	SystemConfig SystemConfigService
	Export       ExportService
	Draft        DraftService
}

// NewService wires the services. rdb may be nil: token revocation is then skipped
// and drafts report ErrDraftUnavailable.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		drafts    DraftStore
	)
	if rdb != nil {
		blacklist = rdb
		drafts = rdb
	}

	sysCfg := NewSystemConfigService(cfg, repo, logger)
	balanceSvc := NewBalanceService(cfg, repo, sysCfg, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Unit:         NewUnitService(repo, logger),
		Attendance:   NewAttendanceService(cfg, repo, sysCfg, drafts, logger),
		Leave:        NewLeaveService(cfg, repo, sysCfg, logger),
		Balance:      balanceSvc,
		SystemConfig: sysCfg,
		Export:       NewExportService(cfg, repo, sysCfg, logger),
		Draft:        NewDraftService(cfg, drafts, logger),
	}
}

// TokenBlacklist revoked access tokens, keyed by JTI
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// DraftStore opaque wizard drafts with expiry
type DraftStore interface {
	SaveDraft(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	LoadDraft(ctx context.Context, key string) ([]byte, error)
	DeleteDraft(ctx context.Context, key string) error
}

// ── caller scope ──

// Caller the authenticated user on whose behalf a call runs
type Caller struct {
	UserID string
	Role   model.Role
	UnitID string
}

// CanAccessUser admin sees everyone, jr their unit, bf only themselves
func (c Caller) CanAccessUser(target *model.User) bool {
	switch c.Role {
	case model.RoleAdmin:
		return true
	case model.RoleJR:
		return target.UserID == c.UserID || (c.UnitID != "" && target.UnitRef() == c.UnitID)
	case model.RoleBF:
		return target.UserID == c.UserID
	case model.RolePending:
		return false
	default:
		return false
	}
}

// CanAccessUnit admin any unit, jr their own
func (c Caller) CanAccessUnit(unitID string) bool {
	switch c.Role {
	case model.RoleAdmin:
		return true
	case model.RoleJR:
		return c.UnitID != "" && c.UnitID == unitID
	case model.RoleBF, model.RolePending:
		return false
	default:
		return false
	}
}

// currentCaller reloads a shift leader's role and unit from the user row. Access tokens carry the
// unit as of login, so a leader moved to another unit would otherwise keep writing to the old one.
func currentCaller(ctx context.Context, users repository.UserRepository, c Caller) (Caller, error) {
	if c.Role != model.RoleJR {
		return c, nil
	}
	u, err := users.GetByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Caller{}, ErrNoPermission
		}
		return Caller{}, err
	}
	c.Role = u.Role
	c.UnitID = u.UnitRef()
	return c, nil
}

// today the current calendar date in the deployment timezone
func today(cfg *config.Config, now func() time.Time) time.Time {
	return model.DateOf(now().In(cfg.Server.Location()))
}
