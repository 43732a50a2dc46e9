package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkInsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snackstopper_checkins_recorded_total", Help: "Check-ins stored, by outcome",
	}, []string{"passed"})
	remindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snackstopper_reminders_fired_total", Help: "Daily reminder jobs that dispatched notifications",
	})
	remindersSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snackstopper_reminders_skipped_total", Help: "Daily reminder jobs skipped because today was already checked in",
	})
	pushSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snackstopper_push_sent_total", Help: "Push notifications accepted by a push service",
	})
	pushFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snackstopper_push_failed_total", Help: "Push notifications that failed and were skipped",
	})
	pushPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snackstopper_push_pruned_total", Help: "Subscriptions deleted because the endpoint is gone",
	})
)
