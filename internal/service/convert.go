package service

import (
	"strings"
	"time"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

// ── conversion helpers shared by services ──

func toUserResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 user.UserID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               string(user.Role),
		MustChangePassword: user.MustChangePassword,
		Version:            user.Version,
	}
	if user.Unit != nil {
		resp.Unit = &dto.UnitBrief{ID: user.Unit.UnitID, Name: user.Unit.Name}
	}
	if user.Station != nil {
		resp.Station = &dto.StationBrief{ID: user.Station.StationID, UnitID: user.Station.UnitID, Name: user.Station.Name}
	}
	return resp
}

func toRecordResponse(r *model.AttendanceRecord) dto.AttendanceRecordResponse {
	return dto.AttendanceRecordResponse{
		ID:            r.RecordID,
		UserID:        r.UserID,
		Date:          r.WorkDate.Format(model.DateLayout),
		Code:          string(r.Code),
		Label:         r.Code.Label(),
		EntryTime:     clockValue(r.EntryTime),
		ExitTime:      clockValue(r.ExitTime),
		OvertimeHours: r.OvertimeHours.InexactFloat64(),
		UnitID:        deref(r.UnitID),
		StationID:     deref(r.StationID),
		Source:        r.Source,
		RecordedBy:    deref(r.RecordedBy),
		UpdatedAt:     formatTimestamp(r.UpdatedAt),
	}
}

func toRecordResponses(records []model.AttendanceRecord) []dto.AttendanceRecordResponse {
	out := make([]dto.AttendanceRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out
}

// parseDate reads a YYYY-MM-DD value into a UTC calendar date
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, pkgerrors.Validation(field, "fecha inválida, usa el formato AAAA-MM-DD")
	}
	return model.DateOf(d), nil
}

// parseClock validates an optional HH:MM value
func parseClock(field, s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return nil, pkgerrors.Validation(field, "hora inválida, usa el formato HH:MM")
	}
	return &s, nil
}

// clockValue trims the seconds postgres appends to time columns
func clockValue(p *string) string {
	if p == nil {
		return ""
	}
	if len(*p) > 5 {
		return (*p)[:5]
	}
	return *p
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
