package model

// Unit "unidad": organisational grouping of stations and workers
type Unit struct {
	UnitID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	Stations []Station `gorm:"foreignKey:UnitID;references:UnitID" json:"stations,omitempty"`
}

// TableName table name
func (Unit) TableName() string { return "units" }

// Station "caseta": lookout or base a crew works from
type Station struct {
	StationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"station_id"`
	UnitID    string `gorm:"type:uuid;not null"                             json:"unit_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	Unit *Unit `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
}

// TableName table name
func (Station) TableName() string { return "stations" }
