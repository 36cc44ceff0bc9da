package dto

// ── system config ──

// UpdateSystemConfigRequest partial policy update
type UpdateSystemConfigRequest struct {
	CompDayThreshold *float64 `json:"comp_day_threshold" binding:"omitempty,gt=0,lte=24"`
	VacationQuota    *int     `json:"vacation_quota"     binding:"omitempty,min=1,max=366"`
	PersonalQuota    *int     `json:"personal_quota"     binding:"omitempty,min=1,max=366"`
}

// SystemConfigResponse effective policy
type SystemConfigResponse struct {
	CompDayThreshold     float64 `json:"comp_day_threshold"`
	VacationQuota        int     `json:"vacation_quota"`
	PersonalQuota        int     `json:"personal_quota"`
	LenientOvertimeInput bool    `json:"lenient_overtime_input"`
	UpdatedAt            string  `json:"updated_at,omitempty"`
}

// ── export ──

// ExportAttendanceQuery monthly workbook parameters; zero year/month mean the current one
type ExportAttendanceQuery struct {
	UnitID string `form:"unit_id" binding:"required,uuid"`
	Year   int    `form:"year"    binding:"omitempty,min=2000,max=2100"`
	Month  int    `form:"month"   binding:"omitempty,min=1,max=12"`
}
