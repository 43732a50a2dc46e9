package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

// CheckInController handles the daily check-in.
type CheckInController struct {
	ledger   *services.Ledger
	settings *services.SettingsStore
	clock    services.Clock
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(ledger *services.Ledger, settings *services.SettingsStore, clock services.Clock) *CheckInController {
	return &CheckInController{ledger: ledger, settings: settings, clock: clock}
}

// CheckIn records today's outcome. Checking in again the same day replaces the earlier answer.
func (c *CheckInController) CheckIn(ctx *gin.Context) {
	var req struct {
		Passed *bool  `json:"passed"`
		Note   string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	passed := true
	if req.Passed != nil {
		passed = *req.Passed
	}

	rctx := ctx.Request.Context()
	avg, err := c.settings.AverageAmount(rctx)
	if err != nil {
		utils.L().Error("load average amount", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load settings")
		return
	}

	rec, err := c.ledger.RecordCheckIn(rctx, c.clock.Today(), passed, avg, req.Note)
	if err != nil {
		utils.L().Error("record check-in", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to record check-in")
		return
	}

	invalidateLedgerCache(ctx)
	utils.Success(ctx, rec)
}
