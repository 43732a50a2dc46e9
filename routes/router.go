package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cppla/snackstopper/config"
	"github.com/cppla/snackstopper/controllers"
	"github.com/cppla/snackstopper/middleware"
	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config        config.AppConfig
	Clock         services.Clock
	Ledger        *services.Ledger
	Settings      *services.SettingsStore
	Subscriptions *services.SubscriptionStore
	Reminder      *services.Reminder
	Scheduler     *services.ReminderScheduler
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.AccessLog(gl))
		r.Use(utils.Recovery(gl))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/static", "./static")
	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})
	// The service worker must be served from the root to control the whole origin.
	r.GET("/sw.js", func(c *gin.Context) {
		c.File("./static/sw.js")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checkInController := controllers.NewCheckInController(d.Ledger, d.Settings, d.Clock)
	statsController := controllers.NewStatsController(d.Ledger, d.Clock)
	settingsController := controllers.NewSettingsController(d.Settings, d.Scheduler)
	subscriptionController := controllers.NewSubscriptionController(d.Subscriptions)
	reminderController := controllers.NewReminderController(d.Reminder, d.Scheduler)
	configController := controllers.NewConfigController(cfg.VAPIDPublicKey)

	api := r.Group("/api")
	api.GET("/stats", statsController.GetStats)
	api.GET("/history", statsController.GetHistory)
	api.GET("/settings", settingsController.GetSettings)
	api.GET("/vapid-public-key", configController.GetVAPIDPublicKey)
	api.GET("/reminder", reminderController.Status)

	writes := api.Group("")
	writes.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	writes.POST("/checkin", checkInController.CheckIn)
	writes.POST("/subscribe", subscriptionController.Subscribe)
	writes.POST("/settings", settingsController.UpdateSettings)
	writes.POST("/reminder/test", reminderController.Trigger)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
