package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

// SettingsController reads and updates the user settings.
type SettingsController struct {
	settings  *services.SettingsStore
	scheduler *services.ReminderScheduler
}

// NewSettingsController creates a new SettingsController instance.
func NewSettingsController(settings *services.SettingsStore, scheduler *services.ReminderScheduler) *SettingsController {
	return &SettingsController{settings: settings, scheduler: scheduler}
}

// GetSettings returns the effective reminder time and average amount.
func (s *SettingsController) GetSettings(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	reminderTime, err := s.settings.ReminderTimeValue(rctx)
	if err != nil {
		utils.L().Error("load reminder time", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load settings")
		return
	}
	avg, err := s.settings.AverageAmount(rctx)
	if err != nil {
		utils.L().Error("load average amount", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load settings")
		return
	}
	utils.Success(ctx, gin.H{
		"reminder_time":  reminderTime,
		"average_amount": avg,
	})
}

// UpdateSettings validates and stores the submitted keys. A new reminder time re-arms the
// daily reminder immediately.
func (s *SettingsController) UpdateSettings(ctx *gin.Context) {
	var req struct {
		ReminderTime  *string      `json:"reminder_time"`
		AverageAmount *json.Number `json:"average_amount"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	var reminderTime string
	if req.ReminderTime != nil {
		t, err := services.ParseReminderTime(*req.ReminderTime)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40041, err.Error())
			return
		}
		reminderTime = t.String()
	}
	var amount string
	if req.AverageAmount != nil {
		if _, err := services.ParseAmount(req.AverageAmount.String()); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40042, err.Error())
			return
		}
		amount = req.AverageAmount.String()
	}

	rctx := ctx.Request.Context()
	if reminderTime != "" {
		if err := s.settings.Set(rctx, services.KeyReminderTime, reminderTime); err != nil {
			utils.L().Error("store reminder time", zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to store settings")
			return
		}
		if err := s.scheduler.ScheduleReminder(rctx); err != nil {
			utils.L().Error("reschedule reminder", zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to reschedule reminder")
			return
		}
	}
	if amount != "" {
		if err := s.settings.Set(rctx, services.KeyAverageAmount, amount); err != nil {
			utils.L().Error("store average amount", zap.Error(err))
			utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to store settings")
			return
		}
	}

	utils.Success(ctx, gin.H{"ok": true})
}
