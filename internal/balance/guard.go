package balance

import (
	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

// Rejection messages shown to the worker
const (
	MsgOvertimeLogged    = "ya hay horas extra registradas ese día; no se puede solicitar un día libre"
	MsgLeaveExists       = "ya existe una solicitud de día libre para esa fecha"
	MsgNoCompDays        = "no tienes días de compensación (H) disponibles"
	MsgLeaveWithOvertime = "un día de vacaciones, asuntos propios o compensación no puede llevar horas extra"
)

// CheckLeaveRequest the intake rules for a new leave request on one day.
// existing holds every record already stored for that (user, date); compDaysAvailable
// is the requester's current balance and only matters for H.
func CheckLeaveRequest(existing []model.AttendanceRecord, code model.AttendanceCode, compDaysAvailable int) error {
	if !code.IsLeave() {
		return pkgerrors.Validation("code", "el código debe ser V, AP o H")
	}

	for i := range existing {
		if existing[i].HasOvertime() {
			return pkgerrors.Conflict(MsgOvertimeLogged)
		}
	}
	for i := range existing {
		if existing[i].Code.IsLeave() {
			return pkgerrors.Conflict(MsgLeaveExists)
		}
	}

	if code == model.CodeCompDay && compDaysAvailable <= 0 {
		return pkgerrors.Conflict(MsgNoCompDays)
	}

	return nil
}

// CheckDayEntry the per-record invariant for a shift-leader entry: leave codes carry no overtime
func CheckDayEntry(record *model.AttendanceRecord) error {
	if record.OvertimeHours.IsNegative() {
		return pkgerrors.Validation("overtime_hours", "no puede ser negativo")
	}
	if record.Code.IsLeave() && record.HasOvertime() {
		return pkgerrors.Validation("overtime_hours", MsgLeaveWithOvertime)
	}
	return nil
}
