package model

// User users table
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               Role    `gorm:"type:varchar(20);not null;default:'pending'"    json:"role"`
	UnitID             *string `gorm:"type:uuid"                                      json:"unit_id,omitempty"`
	StationID          *string `gorm:"type:uuid"                                      json:"station_id,omitempty"`
	MustChangePassword bool    `gorm:"not null;default:false"                         json:"must_change_password"`
	VersionedModel

	Unit    *Unit    `gorm:"foreignKey:UnitID;references:UnitID"       json:"unit,omitempty"`
	Station *Station `gorm:"foreignKey:StationID;references:StationID" json:"station,omitempty"`
}

// TableName table name
func (User) TableName() string { return "users" }

// UnitRef unit id or empty
func (u *User) UnitRef() string {
	if u.UnitID == nil {
		return ""
	}
	return *u.UnitID
}

// StationRef station id or empty
func (u *User) StationRef() string {
	if u.StationID == nil {
		return ""
	}
	return *u.StationID
}
