package dto

// ── users ──

// UserListRequest list filters
type UserListRequest struct {
	PaginationRequest
	Role      string `form:"role"       binding:"omitempty,oneof=admin jr bf pending"`
	UnitID    string `form:"unit_id"    binding:"omitempty,uuid"`
	StationID string `form:"station_id" binding:"omitempty,uuid"`
	Keyword   string `form:"keyword"    binding:"omitempty,max=50"`
}

// CreateUserRequest admin-created account
type CreateUserRequest struct {
	Name      string  `json:"name"       binding:"required,min=2,max=100"`
	Email     string  `json:"email"      binding:"required,email"`
	Role      string  `json:"role"       binding:"required,oneof=admin jr bf pending"`
	UnitID    *string `json:"unit_id"    binding:"omitempty,uuid"`
	StationID *string `json:"station_id" binding:"omitempty,uuid"`
}

// CreateUserResponse created account plus its one-time password
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
}

// UpdateUserRequest partial update guarded by version
type UpdateUserRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	UnitID    *string `json:"unit_id"    binding:"omitempty,uuid"`
	StationID *string `json:"station_id" binding:"omitempty,uuid"`
	Version   int     `json:"version"    binding:"required,min=1"`
}

// AssignRoleRequest role change
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin jr bf pending"`
}

// ResetPasswordResponse reset result
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse spreadsheet import result
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
	Created []CreatedUser     `json:"created,omitempty"`
}

// ImportUserError row-level error
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CreatedUser imported account and its one-time password
type CreatedUser struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}
