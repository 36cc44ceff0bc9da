package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"infoex/backend/config"
	"infoex/backend/internal/balance"
	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/internal/repository"
)

// PolicySource yields the leave policy currently in force
type PolicySource interface {
	CurrentPolicy(ctx context.Context) (balance.Policy, error)
}

// SystemConfigService policy settings
type SystemConfigService interface {
	PolicySource
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService builds a SystemConfigService
func NewSystemConfigService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{cfg: cfg, repo: repo, logger: logger}
}

// ────────────────────── CurrentPolicy ──────────────────────

// CurrentPolicy reads the system_config row; a missing row falls back to the policy section of the config file
func (s *systemConfigService) CurrentPolicy(ctx context.Context) (balance.Policy, error) {
	row, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fallbackPolicy(), nil
		}
		s.logger.Error("load system config failed", zap.Error(err))
		return balance.Policy{}, err
	}
	return balance.Policy{
		CompDayThreshold: row.CompDayThreshold,
		VacationQuota:    row.VacationQuota,
		PersonalQuota:    row.PersonalQuota,
	}, nil
}

func (s *systemConfigService) fallbackPolicy() balance.Policy {
	return balance.Policy{
		CompDayThreshold: decimal.NewFromFloat(s.cfg.Policy.CompDayThreshold).Round(2),
		VacationQuota:    s.cfg.Policy.VacationQuota,
		PersonalQuota:    s.cfg.Policy.PersonalQuota,
	}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	row, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.toResponse(s.fallbackPolicy(), ""), nil
		}
		s.logger.Error("load system config failed", zap.Error(err))
		return nil, err
	}
	return s.toResponse(balance.Policy{
		CompDayThreshold: row.CompDayThreshold,
		VacationQuota:    row.VacationQuota,
		PersonalQuota:    row.PersonalQuota,
	}, formatTimestamp(row.UpdatedAt)), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	policy, err := s.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	if req.CompDayThreshold != nil {
		policy.CompDayThreshold = decimal.NewFromFloat(*req.CompDayThreshold).Round(2)
	}
	if req.VacationQuota != nil {
		policy.VacationQuota = *req.VacationQuota
	}
	if req.PersonalQuota != nil {
		policy.PersonalQuota = *req.PersonalQuota
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	row := &model.SystemConfig{
		Singleton:        true,
		CompDayThreshold: policy.CompDayThreshold,
		VacationQuota:    policy.VacationQuota,
		PersonalQuota:    policy.PersonalQuota,
		BaseModel:        model.BaseModel{UpdatedBy: &callerID},
	}
	if err := s.repo.SystemConfig.Update(ctx, row); err != nil {
		s.logger.Error("update system config failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("leave policy updated",
		zap.String("by", callerID),
		zap.String("comp_day_threshold", policy.CompDayThreshold.String()),
		zap.Int("vacation_quota", policy.VacationQuota),
		zap.Int("personal_quota", policy.PersonalQuota),
	)

	return s.Get(ctx)
}

func (s *systemConfigService) toResponse(p balance.Policy, updatedAt string) *dto.SystemConfigResponse {
	return &dto.SystemConfigResponse{
		CompDayThreshold:     p.CompDayThreshold.InexactFloat64(),
		VacationQuota:        p.VacationQuota,
		PersonalQuota:        p.PersonalQuota,
		LenientOvertimeInput: s.cfg.Policy.LenientOvertimeInput,
		UpdatedAt:            updatedAt,
	}
}
