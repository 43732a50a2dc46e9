package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const reminderTimeout = 2 * time.Minute

// ReminderOutcome reports what one run of the reminder job did.
type ReminderOutcome struct {
	Skipped bool `json:"skipped"`
	DispatchResult
}

// Reminder is the daily job: nag every subscriber unless today is already checked in.
type Reminder struct {
	ledger     *Ledger
	subs       *SubscriptionStore
	dispatcher *Dispatcher
	creds      VAPIDCredentials
	message    string
	clock      Clock
	log        *zap.Logger
}

// NewReminder wires the reminder job.
func NewReminder(ledger *Ledger, subs *SubscriptionStore, dispatcher *Dispatcher, creds VAPIDCredentials, message string, clock Clock, log *zap.Logger) *Reminder {
	return &Reminder{
		ledger:     ledger,
		subs:       subs,
		dispatcher: dispatcher,
		creds:      creds,
		message:    message,
		clock:      clock,
		log:        log,
	}
}

// Run executes the job once. With force set, the already-checked-in guard is bypassed.
func (r *Reminder) Run(ctx context.Context, force bool) (ReminderOutcome, error) {
	today := r.clock.Today()
	if !force {
		done, err := r.ledger.HasCheckIn(ctx, today)
		if err != nil {
			return ReminderOutcome{}, err
		}
		if done {
			remindersSkipped.Inc()
			return ReminderOutcome{Skipped: true}, nil
		}
	}

	subs, err := r.subs.All(ctx)
	if err != nil {
		return ReminderOutcome{}, err
	}
	remindersFired.Inc()
	return ReminderOutcome{DispatchResult: r.dispatcher.Dispatch(ctx, r.message, subs, r.creds)}, nil
}

// SendDailyReminder is the scheduled entry point. It has no caller to report to, so every
// outcome is logged.
func (r *Reminder) SendDailyReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
	defer cancel()

	out, err := r.Run(ctx, false)
	switch {
	case err != nil:
		r.log.Error("daily reminder failed", zap.Error(err))
	case out.Skipped:
		r.log.Info("daily reminder skipped, already checked in today")
	default:
		r.log.Info("daily reminder sent",
			zap.Int("sent", out.Sent), zap.Int("failed", out.Failed), zap.Int("pruned", out.Pruned))
	}
}
