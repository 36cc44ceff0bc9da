package dto

// ── balances ──

// OvertimeBalanceResponse overtime accumulation and comp days
type OvertimeBalanceResponse struct {
	TotalOvertimeHours     float64 `json:"total_overtime_hours"`
	CompDaysEarned         int     `json:"comp_days_earned"`
	CompDaysConsumed       int     `json:"comp_days_consumed"`
	CompDaysAvailable      int     `json:"comp_days_available"`
	HoursTowardNextCompDay float64 `json:"hours_toward_next_comp_day"`
}

// LeaveBalanceResponse yearly leave consumption
type LeaveBalanceResponse struct {
	Year              int `json:"year"`
	VacationUsed      int `json:"vacation_used"`
	VacationRemaining int `json:"vacation_remaining"`
	PersonalUsed      int `json:"personal_used"`
	PersonalRemaining int `json:"personal_remaining"`
}

// BalanceSnapshotResponse both balances for one worker
type BalanceSnapshotResponse struct {
	UserID   string                  `json:"user_id"`
	Name     string                  `json:"name"`
	Overtime OvertimeBalanceResponse `json:"overtime"`
	Leave    LeaveBalanceResponse    `json:"leave"`
}

// UnitBalanceResponse per-member rollup for a unit
type UnitBalanceResponse struct {
	Unit    UnitBrief                 `json:"unit"`
	Year    int                       `json:"year"`
	Members []BalanceSnapshotResponse `json:"members"`
}
