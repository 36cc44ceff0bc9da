package repository

import (
	"context"

	"gorm.io/gorm"

	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

// UnitRepository unit data access
type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	GetByID(ctx context.Context, id string) (*model.Unit, error)
	GetByName(ctx context.Context, name string) (*model.Unit, error)
	List(ctx context.Context, includeInactive bool) ([]model.Unit, error)
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountMembers(ctx context.Context, unitID string) (int64, error)
}

type unitRepo struct {
	db *gorm.DB
}

// NewUnitRepo builds a UnitRepository
func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) Create(ctx context.Context, unit *model.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Preload("Stations", "is_active = ?", true).
		Where("unit_id = ?", id).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) GetByName(ctx context.Context, name string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepo) List(ctx context.Context, includeInactive bool) ([]model.Unit, error) {
	var units []model.Unit
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&units).Error
	return units, err
}

func (r *unitRepo) Update(ctx context.Context, unit *model.Unit) error {
	oldVersion := unit.Version
	result := r.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("unit_id = ? AND version = ?", unit.UnitID, oldVersion).
		Updates(map[string]interface{}{
			"name":        unit.Name,
			"description": unit.Description,
			"is_active":   unit.IsActive,
			"updated_by":  unit.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	unit.Version = oldVersion + 1
	return nil
}

func (r *unitRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Unit{}).
		Where("unit_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *unitRepo) CountMembers(ctx context.Context, unitID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	return count, err
}
