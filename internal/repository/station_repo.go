package repository

import (
	"context"

	"gorm.io/gorm"

	"infoex/backend/internal/model"
)

// StationRepository station data access
type StationRepository interface {
	Create(ctx context.Context, station *model.Station) error
	GetByID(ctx context.Context, id string) (*model.Station, error)
	GetByName(ctx context.Context, unitID, name string) (*model.Station, error)
	ListByUnit(ctx context.Context, unitID string) ([]model.Station, error)
	Update(ctx context.Context, station *model.Station) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type stationRepo struct {
	db *gorm.DB
}

// NewStationRepo builds a StationRepository
func NewStationRepo(db *gorm.DB) StationRepository {
	return &stationRepo{db: db}
}

func (r *stationRepo) Create(ctx context.Context, station *model.Station) error {
	return r.db.WithContext(ctx).Create(station).Error
}

func (r *stationRepo) GetByID(ctx context.Context, id string) (*model.Station, error) {
	var station model.Station
	err := r.db.WithContext(ctx).
		Where("station_id = ?", id).
		First(&station).Error
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepo) GetByName(ctx context.Context, unitID, name string) (*model.Station, error) {
	var station model.Station
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND name = ?", unitID, name).
		First(&station).Error
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (r *stationRepo) ListByUnit(ctx context.Context, unitID string) ([]model.Station, error) {
	var stations []model.Station
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("name ASC").
		Find(&stations).Error
	return stations, err
}

func (r *stationRepo) Update(ctx context.Context, station *model.Station) error {
	return r.db.WithContext(ctx).
		Model(&model.Station{}).
		Where("station_id = ?", station.StationID).
		Updates(map[string]interface{}{
			"name":       station.Name,
			"is_active":  station.IsActive,
			"updated_by": station.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *stationRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Station{}).
		Where("station_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
