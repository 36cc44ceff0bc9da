package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every table repository
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Unit         UnitRepository
	Station      StationRepository
	Attendance   AttendanceRepository
	SystemConfig SystemConfigRepository
}

// NewRepository builds the aggregate over one connection pool (or one transaction)
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Unit:         NewUnitRepo(db),
		Station:      NewStationRepo(db),
		Attendance:   NewAttendanceRepo(db),
		SystemConfig: NewSystemConfigRepo(db),
	}
}

// Transaction runs fn with every repository bound to the same database transaction.
// A Repository assembled by hand (no db) runs fn against itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
