package db

import (
	"time"

	"github.com/AhmadShamli/DarkEye/common"
)

// camera a single camera record
type camera struct {
	common.CameraConfig
}

// TableName hard code table name
func (camera) TableName() string {
	return "cameras"
}

// setting a single key/value settings entry
type setting struct {
	// Key settings key
	Key string `gorm:"column:key;primaryKey" validate:"required"`
	// Value settings value, stored as text
	Value     string `gorm:"column:value;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName hard code table name
func (setting) TableName() string {
	return "settings"
}
