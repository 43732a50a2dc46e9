package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

// ReminderController exposes the reminder job and its schedule.
type ReminderController struct {
	reminder  *services.Reminder
	scheduler *services.ReminderScheduler
}

// NewReminderController creates a new ReminderController instance.
func NewReminderController(reminder *services.Reminder, scheduler *services.ReminderScheduler) *ReminderController {
	return &ReminderController{reminder: reminder, scheduler: scheduler}
}

// Status reports when the daily reminder fires next.
func (r *ReminderController) Status(ctx *gin.Context) {
	at, armed := r.scheduler.Current()
	data := gin.H{"armed": armed}
	if armed {
		data["reminder_time"] = at.String()
		if next := r.scheduler.Next(); !next.IsZero() {
			data["next_run"] = next
		}
	}
	utils.Success(ctx, data)
}

// Trigger runs the reminder job now. force=1 sends even when today is already checked in.
func (r *ReminderController) Trigger(ctx *gin.Context) {
	out, err := r.reminder.Run(ctx.Request.Context(), ctx.Query("force") == "1")
	if err != nil {
		utils.L().Error("manual reminder", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to send reminder")
		return
	}
	utils.Success(ctx, out)
}
