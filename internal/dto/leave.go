package dto

// ── leave ──

// LeaveRequestBody a worker's request for one day off
type LeaveRequestBody struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
	Code string `json:"code" binding:"required,oneof=V AP H v ap h"`
}

// YearQuery calendar year; zero means the current year
type YearQuery struct {
	Year int `form:"year" binding:"omitempty,min=2000,max=2100"`
}

// LeaveListResponse leave days of one year
type LeaveListResponse struct {
	Year  int                        `json:"year"`
	Items []AttendanceRecordResponse `json:"items"`
}
