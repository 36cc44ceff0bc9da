package model

import "github.com/shopspring/decimal"

// SystemConfig system_config: single strongly-typed row holding leave policy
type SystemConfig struct {
	Singleton        bool            `gorm:"primaryKey;default:true"               json:"-"`
	CompDayThreshold decimal.Decimal `gorm:"type:numeric(5,2);not null;default:3.15" json:"comp_day_threshold"`
	VacationQuota    int             `gorm:"not null;default:22"                   json:"vacation_quota"`
	PersonalQuota    int             `gorm:"not null;default:7"                    json:"personal_quota"`
	BaseModel
}

// TableName table name
func (SystemConfig) TableName() string { return "system_config" }
