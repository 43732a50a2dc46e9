package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/snackstopper/models"
	"github.com/cppla/snackstopper/utils"
)

const (
	// DefaultHistoryLimit is the number of days returned by RecentHistory when no limit is given.
	DefaultHistoryLimit = 30
	maxNoteRunes        = 200
)

// Stats summarizes the whole check-in history.
type Stats struct {
	Streak         int     `json:"streak"`
	TotalSaved     float64 `json:"total_saved"`
	TotalDays      int     `json:"total_days"`
	DaysPassed     int     `json:"days_passed"`
	CheckedInToday bool    `json:"checked_in_today"`
	TodayPassed    *bool   `json:"today_passed"`
}

// Ledger records one check-in per calendar day and derives aggregates from them.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a Ledger backed by db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// RecordCheckIn upserts the check-in for date. A passed day is credited with averageAmount,
// a failed day with nothing. Submitting the same date again overwrites the earlier outcome.
func (l *Ledger) RecordCheckIn(ctx context.Context, date string, passed bool, averageAmount float64, note string) (*models.CheckIn, error) {
	amount := 0.0
	if passed {
		amount = averageAmount
	}

	rec := models.CheckIn{
		Date:        date,
		Passed:      passed,
		AmountSaved: amount,
		Note:        cleanNote(note),
	}

	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"passed", "amount_saved", "note", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("upsert check-in %s: %w", date, err)
	}

	// Re-read: on conflict the inserted row's primary key is not reported back.
	var out models.CheckIn
	if err := l.db.WithContext(ctx).Where("date = ?", date).First(&out).Error; err != nil {
		return nil, fmt.Errorf("load check-in %s: %w", date, err)
	}

	checkInsRecorded.WithLabelValues(strconv.FormatBool(passed)).Inc()
	return &out, nil
}

// ComputeStats loads every record and summarizes it relative to today.
func (l *Ledger) ComputeStats(ctx context.Context, today string) (*Stats, error) {
	var records []models.CheckIn
	if err := l.db.WithContext(ctx).Order("date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load check-ins: %w", err)
	}
	stats := Summarize(records, today)
	return &stats, nil
}

// RecentHistory returns up to limit records, newest first.
func (l *Ledger) RecentHistory(ctx context.Context, limit int) ([]models.CheckIn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records := []models.CheckIn{}
	if err := l.db.WithContext(ctx).Order("date DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return records, nil
}

// HasCheckIn reports whether date already has a record.
func (l *Ledger) HasCheckIn(ctx context.Context, date string) (bool, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&models.CheckIn{}).Where("date = ?", date).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count check-ins for %s: %w", date, err)
	}
	return n > 0, nil
}

// Summarize computes Stats from records ordered newest first.
//
// The streak counts existing records only: a day without a record does not end it,
// only a recorded failure does.
func Summarize(records []models.CheckIn, today string) Stats {
	var s Stats
	counting := true
	total := 0.0
	for i := range records {
		rec := &records[i]
		if counting {
			if rec.Passed {
				s.Streak++
			} else {
				counting = false
			}
		}
		if rec.Passed {
			s.DaysPassed++
		}
		total += rec.AmountSaved
		if rec.Date == today {
			passed := rec.Passed
			s.CheckedInToday = true
			s.TodayPassed = &passed
		}
	}
	s.TotalDays = len(records)
	s.TotalSaved = math.Round(total*100) / 100
	return s
}

func cleanNote(note string) string {
	note = utils.SanitizeText(note)
	if r := []rune(note); len(r) > maxNoteRunes {
		note = string(r[:maxNoteRunes])
	}
	return note
}
