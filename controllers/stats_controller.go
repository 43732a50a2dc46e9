package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

const (
	statsCachePrefix   = "cache:stats:"
	historyCachePrefix = "cache:history:"
	ledgerCacheTTL     = 5 * time.Minute
	maxHistoryLimit    = 365
)

// StatsController serves the streak/savings summary and the recent history.
type StatsController struct {
	ledger *services.Ledger
	clock  services.Clock
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(ledger *services.Ledger, clock services.Clock) *StatsController {
	return &StatsController{ledger: ledger, clock: clock}
}

// GetStats returns streak, savings and today's status.
func (s *StatsController) GetStats(ctx *gin.Context) {
	today := s.clock.Today()
	// Keyed by day so the cached today flags expire at midnight.
	cacheKey := statsCachePrefix + today
	if utils.ServeCached(ctx, cacheKey) {
		return
	}

	stats, err := s.ledger.ComputeStats(ctx.Request.Context(), today)
	if err != nil {
		utils.L().Error("compute stats", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to compute stats")
		return
	}
	utils.SuccessCached(ctx, cacheKey, ledgerCacheTTL, stats)
}

// GetHistory returns the most recent check-ins, newest first.
func (s *StatsController) GetHistory(ctx *gin.Context) {
	limit, ok := parseLimit(ctx.Query("limit"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "limit must be a positive integer")
		return
	}

	cacheKey := fmt.Sprintf("%slimit=%d", historyCachePrefix, limit)
	if utils.ServeCached(ctx, cacheKey) {
		return
	}

	records, err := s.ledger.RecentHistory(ctx.Request.Context(), limit)
	if err != nil {
		utils.L().Error("load history", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load history")
		return
	}
	utils.SuccessCached(ctx, cacheKey, ledgerCacheTTL, records)
}

func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return services.DefaultHistoryLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, maxHistoryLimit), true
}

func invalidateLedgerCache(ctx *gin.Context) {
	utils.InvalidateByPrefix(ctx.Request.Context(), statsCachePrefix)
	utils.InvalidateByPrefix(ctx.Request.Context(), historyCachePrefix)
}
