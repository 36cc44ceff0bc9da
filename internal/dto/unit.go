package dto

// ── units and stations ──

// CreateUnitRequest new unit
type CreateUnitRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateUnitRequest partial update guarded by version
type UpdateUnitRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// UnitListRequest list parameters
type UnitListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// UnitResponse unit detail
type UnitResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	IsActive    bool              `json:"is_active"`
	MemberCount int64             `json:"member_count"`
	Version     int               `json:"version"`
	Stations    []StationResponse `json:"stations,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// CreateStationRequest new station inside a unit
type CreateStationRequest struct {
	UnitID string `json:"unit_id" binding:"required,uuid"`
	Name   string `json:"name"    binding:"required,min=1,max=100"`
}

// UpdateStationRequest partial update
type UpdateStationRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=1,max=100"`
	IsActive *bool   `json:"is_active"`
}

// StationResponse station detail
type StationResponse struct {
	ID       string `json:"id"`
	UnitID   string `json:"unit_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
