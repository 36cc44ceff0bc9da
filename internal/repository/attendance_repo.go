package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"infoex/backend/internal/model"
)

// AttendanceRepository attendance record data access. Records are hard deleted.
type AttendanceRepository interface {
	Create(ctx context.Context, record *model.AttendanceRecord) error
	// Upsert inserts the record or replaces the one already stored for (user_id, work_date)
	Upsert(ctx context.Context, record *model.AttendanceRecord) error
	Update(ctx context.Context, record *model.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]model.AttendanceRecord, error)
	ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]model.AttendanceRecord, error)
	ListByUsersRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo builds an AttendanceRepository
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepo) Upsert(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "work_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "entry_time", "exit_time", "overtime_hours",
				"unit_id", "station_id", "source", "recorded_by",
				"previous_code", "previous_entry_time", "previous_exit_time",
				"updated_at", "updated_by",
			}),
		}).
		Create(record).Error
}

func (r *attendanceRepo) Update(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("record_id = ?", record.RecordID).
		Updates(map[string]interface{}{
			"code":           record.Code,
			"entry_time":     record.EntryTime,
			"exit_time":      record.ExitTime,
			"overtime_hours": record.OvertimeHours,
			"unit_id":        record.UnitID,
			"station_id":     record.StationID,
			"source":         record.Source,
			"recorded_by":    record.RecordedBy,
			"updated_by":     record.UpdatedBy,
			"updated_at":     gorm.Expr("NOW()"),

			"previous_code":       record.PreviousCode,
			"previous_entry_time": record.PreviousEntryTime,
			"previous_exit_time":  record.PreviousExitTime,
		}).Error
}

func (r *attendanceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Delete(&model.AttendanceRecord{}).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) ListByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("work_date ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date = ?", userID, date.Format(model.DateLayout)).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date BETWEEN ? AND ?", userID, from.Format(model.DateLayout), to.Format(model.DateLayout)).
		Order("work_date ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByUsers(ctx context.Context, userIDs []string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	if len(userIDs) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id, work_date ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByUsersRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	if len(userIDs) == 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND work_date BETWEEN ? AND ?", userIDs, from.Format(model.DateLayout), to.Format(model.DateLayout)).
		Order("user_id, work_date ASC").
		Find(&records).Error
	return records, err
}
