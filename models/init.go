package models

import "gorm.io/gorm"

// Migrate creates the local tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SessionRecord{}, &SavedVehicle{})
}
