package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record sources
const (
	SourceEntry   = "entry"   // written by a shift leader or admin
	SourceRequest = "request" // written by the worker's own leave request
)

// AttendanceRecord attendance_records: at most one row per (user_id, work_date)
type AttendanceRecord struct {
	RecordID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	UserID        string          `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_user_day,priority:1" json:"user_id"`
	WorkDate      time.Time       `gorm:"type:date;not null;uniqueIndex:uq_attendance_user_day,priority:2" json:"work_date"`
	Code          AttendanceCode  `gorm:"type:varchar(4);not null;default:''"            json:"code"`
	EntryTime     *string         `gorm:"type:time"                                      json:"entry_time,omitempty"`
	ExitTime      *string         `gorm:"type:time"                                      json:"exit_time,omitempty"`
	OvertimeHours decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"           json:"overtime_hours"`
	UnitID        *string         `gorm:"type:uuid"                                      json:"unit_id,omitempty"`
	StationID     *string         `gorm:"type:uuid"                                      json:"station_id,omitempty"`
	Source        string          `gorm:"type:varchar(10);not null;default:'entry'"      json:"source"`
	RecordedBy    *string         `gorm:"type:uuid"                                      json:"recorded_by,omitempty"`

	// the shift-leader entry a leave request replaced; nil when the request inserted the row
	PreviousCode      *AttendanceCode `gorm:"type:varchar(4)" json:"-"`
	PreviousEntryTime *string         `gorm:"type:time"       json:"-"`
	PreviousExitTime  *string         `gorm:"type:time"       json:"-"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName table name
func (AttendanceRecord) TableName() string { return "attendance_records" }

// HasOvertime overtime strictly positive
func (r *AttendanceRecord) HasOvertime() bool {
	return r.OvertimeHours.IsPositive()
}

// ReplacedEntry the leave was written over an existing workday record
func (r *AttendanceRecord) ReplacedEntry() bool {
	return r.PreviousCode != nil
}

// ReplaceWithLeave turns a workday into a leave day, keeping what it replaced for a later restore
func (r *AttendanceRecord) ReplaceWithLeave(code AttendanceCode) {
	prev := r.Code
	r.PreviousCode = &prev
	r.PreviousEntryTime = r.EntryTime
	r.PreviousExitTime = r.ExitTime
	r.Code = code
	r.EntryTime = nil
	r.ExitTime = nil
	r.Source = SourceRequest
}

// RestoreEntry undoes ReplaceWithLeave
func (r *AttendanceRecord) RestoreEntry() {
	if r.PreviousCode == nil {
		return
	}
	r.Code = *r.PreviousCode
	r.EntryTime = r.PreviousEntryTime
	r.ExitTime = r.PreviousExitTime
	r.Source = SourceEntry
	r.PreviousCode = nil
	r.PreviousEntryTime = nil
	r.PreviousExitTime = nil
}

// DateLayout wire format for work dates
const DateLayout = "2006-01-02"

// DateOf truncates t to a calendar date in UTC, the form work dates are stored and compared in
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
