package dto

// ── auth responses ──

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"` // also set as an HttpOnly cookie
	ExpiresIn    int          `json:"expires_in"`              // access token lifetime in seconds
	User         UserResponse `json:"user"`
	RememberMe   bool         `json:"-"` // refresh cookie lifetime
}

// RegisterResponse sign-up result
type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ── users ──

// UserResponse user without credentials
type UserResponse struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Role               string        `json:"role"`
	Unit               *UnitBrief    `json:"unit,omitempty"`
	Station            *StationBrief `json:"station,omitempty"`
	MustChangePassword bool          `json:"must_change_password"`
	Version            int           `json:"version"`
}

// UserDetailResponse GET /auth/me and GET /users/:id
type UserDetailResponse struct {
	UserResponse
	CreatedAt string `json:"created_at"`
}

// UnitBrief unit reference
type UnitBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StationBrief station reference
type StationBrief struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id"`
	Name   string `json:"name"`
}

// ── pagination ──

// PaginationRequest common paging parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
