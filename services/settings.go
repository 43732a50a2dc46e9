package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/snackstopper/models"
)

// Settings keys understood by the application.
const (
	KeyReminderTime  = "reminder_time"
	KeyAverageAmount = "average_amount"
)

var (
	ErrInvalidReminderTime = errors.New("reminder time must be HH:MM in 24-hour format")
	ErrInvalidAmount       = errors.New("average amount must be a non-negative number")
)

// ReminderTime is a wall-clock time of day.
type ReminderTime struct {
	Hour   int
	Minute int
}

func (t ReminderTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseReminderTime accepts "H:MM" or "HH:MM" with hour 0-23 and minute 0-59.
func ParseReminderTime(s string) (ReminderTime, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hs) < 1 || len(hs) > 2 || len(ms) != 2 {
		return ReminderTime{}, fmt.Errorf("%w: %q", ErrInvalidReminderTime, s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return ReminderTime{}, fmt.Errorf("%w: %q", ErrInvalidReminderTime, s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return ReminderTime{}, fmt.Errorf("%w: %q", ErrInvalidReminderTime, s)
	}
	return ReminderTime{Hour: h, Minute: m}, nil
}

// ParseAmount parses a decimal money amount.
func ParseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return f, nil
}

// SettingsStore persists user-configurable key/value settings.
type SettingsStore struct {
	db                  *gorm.DB
	defaultReminderTime string
	defaultAmount       float64
}

// NewSettingsStore creates a store whose typed getters fall back to the given defaults.
func NewSettingsStore(db *gorm.DB, defaultReminderTime string, defaultAverageAmount float64) *SettingsStore {
	return &SettingsStore{
		db:                  db,
		defaultReminderTime: defaultReminderTime,
		defaultAmount:       defaultAverageAmount,
	}
}

// Get returns the stored value for key, or def when the key was never written.
func (s *SettingsStore) Get(ctx context.Context, key, def string) (string, error) {
	var st models.Setting
	err := s.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return st.Value, nil
}

// Set writes value under key, replacing any previous value.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("store setting %s: %w", key, err)
	}
	return nil
}

// ReminderTimeValue returns the raw reminder_time setting or the configured default.
func (s *SettingsStore) ReminderTimeValue(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyReminderTime, s.defaultReminderTime)
}

// ReminderTime returns the parsed reminder time.
func (s *SettingsStore) ReminderTime(ctx context.Context) (ReminderTime, error) {
	raw, err := s.ReminderTimeValue(ctx)
	if err != nil {
		return ReminderTime{}, err
	}
	return ParseReminderTime(raw)
}

// DefaultReminderTime returns the process-wide fallback reminder time.
func (s *SettingsStore) DefaultReminderTime() (ReminderTime, error) {
	return ParseReminderTime(s.defaultReminderTime)
}

// AverageAmount returns the amount credited for every passed day.
func (s *SettingsStore) AverageAmount(ctx context.Context) (float64, error) {
	raw, err := s.Get(ctx, KeyAverageAmount, "")
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return s.defaultAmount, nil
	}
	return ParseAmount(raw)
}
