package models

import "time"

// DateLayout is the storage format of CheckIn.Date. Lexical order equals calendar order.
const DateLayout = "2006-01-02"

// CheckIn is the outcome of one calendar day. Date is the natural key: at most one row per day.
type CheckIn struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"size:10;uniqueIndex;not null" json:"date"`
	Passed      bool      `gorm:"not null" json:"passed"`
	AmountSaved float64   `gorm:"not null" json:"amount_saved"`
	Note        string    `gorm:"size:200;not null" json:"note"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// DateKey formats t as the calendar day it falls on in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
