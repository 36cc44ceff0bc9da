package dto

import (
	"encoding/json"
	"strings"
)

// HoursInput overtime exactly as typed in the form. Accepts a JSON number
// or a string ("2,5"); parsing happens in the service.
type HoursInput string

// UnmarshalJSON keeps the raw text of numbers and strings
func (h *HoursInput) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*h = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*h = HoursInput(s)
		return nil
	}
	*h = HoursInput(raw)
	return nil
}

// ── shift-leader entry ──

// DayEntryRequest one record for (user, date); replaces whatever the day held
type DayEntryRequest struct {
	UserID        string     `json:"user_id"        binding:"required,uuid"`
	Date          string     `json:"date"           binding:"required,datetime=2006-01-02"`
	Code          string     `json:"code"           binding:"omitempty,max=4"`
	EntryTime     string     `json:"entry_time"     binding:"omitempty,datetime=15:04"`
	ExitTime      string     `json:"exit_time"      binding:"omitempty,datetime=15:04"`
	OvertimeHours HoursInput `json:"overtime_hours"`
	StationID     *string    `json:"station_id"     binding:"omitempty,uuid"`
}

// RosterEntry one member's line in the roster wizard
type RosterEntry struct {
	UserID        string     `json:"user_id"        binding:"required,uuid"`
	Code          string     `json:"code"           binding:"omitempty,max=4"`
	EntryTime     string     `json:"entry_time"     binding:"omitempty,datetime=15:04"`
	ExitTime      string     `json:"exit_time"      binding:"omitempty,datetime=15:04"`
	OvertimeHours HoursInput `json:"overtime_hours"`
}

// SubmitRosterRequest final submit of the roster wizard
type SubmitRosterRequest struct {
	StationID string        `json:"station_id" binding:"required,uuid"`
	Date      string        `json:"date"       binding:"required,datetime=2006-01-02"`
	Entries   []RosterEntry `json:"entries"    binding:"required,min=1,dive"`
}

// RosterQuery station and day
type RosterQuery struct {
	StationID string `form:"station_id" binding:"required,uuid"`
	Date      string `form:"date"       binding:"required,datetime=2006-01-02"`
}

// DateRangeQuery inclusive date range; both ends optional
type DateRangeQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// AttendanceRecordResponse one stored day
type AttendanceRecordResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Date          string  `json:"date"`
	Code          string  `json:"code"`
	Label         string  `json:"label"`
	EntryTime     string  `json:"entry_time,omitempty"`
	ExitTime      string  `json:"exit_time,omitempty"`
	OvertimeHours float64 `json:"overtime_hours"`
	UnitID        string  `json:"unit_id,omitempty"`
	StationID     string  `json:"station_id,omitempty"`
	Source        string  `json:"source"`
	RecordedBy    string  `json:"recorded_by,omitempty"`
	UpdatedAt     string  `json:"updated_at"`
}

// RosterMember one station member and the record held for the day, if any
type RosterMember struct {
	User   UserResponse              `json:"user"`
	Record *AttendanceRecordResponse `json:"record,omitempty"`
}

// RosterResponse a station's day
type RosterResponse struct {
	Station StationBrief   `json:"station"`
	Date    string         `json:"date"`
	Members []RosterMember `json:"members"`
}

// SubmitRosterResponse records written by a roster submit
type SubmitRosterResponse struct {
	Date    string                     `json:"date"`
	Saved   int                        `json:"saved"`
	Records []AttendanceRecordResponse `json:"records"`
}
