package models

import "time"

// Setting is a user-configurable key/value pair. Numeric and time values are stored as text.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Key       string    `gorm:"size:50;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"size:200;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All returns every model that the application migrates.
func All() []interface{} {
	return []interface{}{&CheckIn{}, &PushSubscription{}, &Setting{}}
}
