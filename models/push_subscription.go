package models

import "time"

// PushSubscription stores a browser push subscription exactly as the client sent it.
// Digest is the SHA-256 of Payload and carries the uniqueness constraint, since TEXT
// columns cannot be uniquely indexed on every backend.
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Payload   string    `gorm:"column:subscription_json;type:text;not null" json:"subscription_json"`
	Digest    string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
