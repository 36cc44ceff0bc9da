package dto

// ── roster drafts ──

// DraftQuery identifies a draft
type DraftQuery struct {
	StationID string `form:"station_id" binding:"required,uuid"`
	Date      string `form:"date"       binding:"required,datetime=2006-01-02"`
}

// SaveDraftRequest wizard state to keep between sessions
type SaveDraftRequest struct {
	Step    int           `json:"step"    binding:"min=0,max=10"`
	Entries []RosterEntry `json:"entries" binding:"dive"`
}

// RosterDraft stored wizard state
type RosterDraft struct {
	StationID string        `json:"station_id"`
	Date      string        `json:"date"`
	Step      int           `json:"step"`
	Entries   []RosterEntry `json:"entries"`
	SavedAt   string        `json:"saved_at"`
}
