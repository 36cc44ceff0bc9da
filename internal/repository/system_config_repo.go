package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"infoex/backend/internal/model"
)

// SystemConfigRepository policy row data access
type SystemConfigRepository interface {
	Get(ctx context.Context) (*model.SystemConfig, error)
	Update(ctx context.Context, cfg *model.SystemConfig) error
}

type systemConfigRepo struct {
	db *gorm.DB
}

// NewSystemConfigRepo builds a SystemConfigRepository
func NewSystemConfigRepo(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepo{db: db}
}

func (r *systemConfigRepo) Get(ctx context.Context) (*model.SystemConfig, error) {
	var cfg model.SystemConfig
	err := r.db.WithContext(ctx).Where("singleton = ?", true).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *systemConfigRepo) Update(ctx context.Context, cfg *model.SystemConfig) error {
	cfg.Singleton = true
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "singleton"}},
			DoUpdates: clause.AssignmentColumns([]string{"comp_day_threshold", "vacation_quota", "personal_quota", "updated_at", "updated_by"}),
		}).
		Create(cfg).Error
}
