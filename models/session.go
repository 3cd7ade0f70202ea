package models

import "time"

// SessionRecord is the persisted operator session (user + bearer token).
type SessionRecord struct {
	Profile   string    `gorm:"primaryKey;type:varchar(64)"`
	UserJSON  string    `gorm:"type:text"`
	Token     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// SavedVehicle is one locally bookmarked vehicle id.
type SavedVehicle struct {
	Profile   string    `gorm:"primaryKey;type:varchar(64)"`
	VehicleID string    `gorm:"primaryKey;type:varchar(64)"`
	SavedAt   time.Time `gorm:"autoCreateTime;index"`
}
