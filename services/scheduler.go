package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderScheduler owns the single daily reminder entry. It is either idle (nothing
// registered) or armed at one time of day; re-arming replaces the previous entry.
type ReminderScheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	job      func()
	settings *SettingsStore
	log      *zap.Logger

	entry   cron.EntryID
	at      ReminderTime
	armed   bool
	running bool
}

// NewReminderScheduler creates an idle scheduler that runs job in loc.
func NewReminderScheduler(settings *SettingsStore, loc *time.Location, job func(), log *zap.Logger) *ReminderScheduler {
	cl := cronLogger{log.Sugar()}
	return &ReminderScheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		job:      job,
		settings: settings,
		log:      log,
	}
}

// Arm registers the daily job at t, replacing whatever was armed before. On error the
// previous entry stays in place.
func (s *ReminderScheduler) Arm(t ReminderTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(fmt.Sprintf("%d %d * * *", t.Minute, t.Hour), s.job)
	if err != nil {
		return fmt.Errorf("register reminder at %s: %w", t, err)
	}
	if s.armed {
		s.cron.Remove(s.entry)
	}
	s.entry, s.at, s.armed = id, t, true
	s.log.Info("daily reminder armed", zap.String("at", t.String()))
	return nil
}

// Current returns the armed time; ok is false while idle.
func (s *ReminderScheduler) Current() (t ReminderTime, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.at, s.armed
}

// ScheduleReminder re-reads reminder_time from settings and arms it. Safe to call any
// number of times.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context) error {
	t, err := s.settings.ReminderTime(ctx)
	if err != nil {
		return err
	}
	return s.Arm(t)
}

// Next returns the next fire time, or the zero time when idle or not started.
func (s *ReminderScheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Start runs the scheduler in its own goroutine.
func (s *ReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Start()
	s.running = true
}

// Stop halts scheduling; the returned context is done once a running job has finished.
// Stopping an idle scheduler is a no-op.
func (s *ReminderScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.cron.Stop()
}

// Running reports whether Start was called without a later Stop.
func (s *ReminderScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
