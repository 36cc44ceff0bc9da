// Package balance derives overtime comp-day and annual leave counters from a
// worker's attendance records. Everything here is pure: no I/O, no shared state,
// the same input always yields the same output.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"infoex/backend/internal/model"
	pkgerrors "infoex/backend/pkg/errors"
)

// Policy comp-day threshold and annual quotas
type Policy struct {
	CompDayThreshold decimal.Decimal
	VacationQuota    int
	PersonalQuota    int
}

// DefaultPolicy the deployed values: 3.15 h per comp day, 22 vacation days, 7 personal days
func DefaultPolicy() Policy {
	return Policy{
		CompDayThreshold: decimal.RequireFromString("3.15"),
		VacationQuota:    22,
		PersonalQuota:    7,
	}
}

// Validate threshold and quotas must be positive
func (p Policy) Validate() error {
	if !p.CompDayThreshold.IsPositive() {
		return pkgerrors.Validation("comp_day_threshold", "debe ser mayor que cero")
	}
	if p.VacationQuota <= 0 {
		return pkgerrors.Validation("vacation_quota", "debe ser mayor que cero")
	}
	if p.PersonalQuota <= 0 {
		return pkgerrors.Validation("personal_quota", "debe ser mayor que cero")
	}
	return nil
}

// OvertimeBalance overtime accumulation and comp-day entitlement
type OvertimeBalance struct {
	TotalOvertimeHours     decimal.Decimal
	CompDaysEarned         int
	CompDaysConsumed       int
	CompDaysAvailable      int
	HoursTowardNextCompDay decimal.Decimal
}

// LeaveBalance annual vacation and personal-day consumption
type LeaveBalance struct {
	Year              int
	VacationUsed      int
	VacationRemaining int
	PersonalUsed      int
	PersonalRemaining int
}

// Snapshot both balances for one worker; recomputed on every request, never stored
type Snapshot struct {
	Overtime OvertimeBalance
	Leave    LeaveBalance
}

// ComputeOvertimeBalance sums positive overtime across records and converts it into comp days.
// Records coded H consume one comp day each regardless of their overtime value.
func ComputeOvertimeBalance(records []model.AttendanceRecord, threshold decimal.Decimal) (OvertimeBalance, error) {
	if !threshold.IsPositive() {
		return OvertimeBalance{}, pkgerrors.Validation("comp_day_threshold", "debe ser mayor que cero")
	}

	total := decimal.Zero
	consumed := 0
	for i := range records {
		r := &records[i]
		if r.OvertimeHours.IsPositive() {
			total = total.Add(r.OvertimeHours)
		}
		if r.Code == model.CodeCompDay {
			consumed++
		}
	}

	// floor, never round: 3.14 h against a 3.15 h threshold earns nothing
	earned := total.Div(threshold).Floor()
	remainder := total.Sub(earned.Mul(threshold))
	if remainder.IsNegative() {
		remainder = decimal.Zero
	}

	earnedDays := int(earned.IntPart())
	available := earnedDays - consumed
	if available < 0 {
		available = 0
	}

	return OvertimeBalance{
		TotalOvertimeHours:     total,
		CompDaysEarned:         earnedDays,
		CompDaysConsumed:       consumed,
		CompDaysAvailable:      available,
		HoursTowardNextCompDay: remainder.Round(2),
	}, nil
}

// ComputeLeaveBalance counts V and AP records dated within the calendar year and subtracts them from the quotas.
// Remaining balances never go below zero.
func ComputeLeaveBalance(records []model.AttendanceRecord, year, vacationQuota, personalQuota int) (LeaveBalance, error) {
	if vacationQuota <= 0 {
		return LeaveBalance{}, pkgerrors.Validation("vacation_quota", "debe ser mayor que cero")
	}
	if personalQuota <= 0 {
		return LeaveBalance{}, pkgerrors.Validation("personal_quota", "debe ser mayor que cero")
	}

	from, to := YearBounds(year)

	var vacation, personal int
	for i := range records {
		r := &records[i]
		d := model.DateOf(r.WorkDate)
		if d.Before(from) || d.After(to) {
			continue
		}
		switch r.Code {
		case model.CodeVacation:
			vacation++
		case model.CodePersonal:
			personal++
		}
	}

	return LeaveBalance{
		Year:              year,
		VacationUsed:      vacation,
		VacationRemaining: clampZero(vacationQuota - vacation),
		PersonalUsed:      personal,
		PersonalRemaining: clampZero(personalQuota - personal),
	}, nil
}

// Compute runs both calculators under one policy. Overtime is accumulated over the whole
// history; leave is counted for the given year only.
func Compute(records []model.AttendanceRecord, policy Policy, year int) (Snapshot, error) {
	if err := policy.Validate(); err != nil {
		return Snapshot{}, err
	}

	ot, err := ComputeOvertimeBalance(records, policy.CompDayThreshold)
	if err != nil {
		return Snapshot{}, err
	}
	lv, err := ComputeLeaveBalance(records, year, policy.VacationQuota, policy.PersonalQuota)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Overtime: ot, Leave: lv}, nil
}

// YearBounds first and last calendar day of year, inclusive
func YearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
