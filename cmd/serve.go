package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/config"
	"github.com/cppla/snackstopper/models"
	"github.com/cppla/snackstopper/routes"
	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

var flagPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app and the daily reminder",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&flagPort, "port", "p", "", "Listen port (overrides APP_PORT)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load()
	if flagPort != "" {
		cfg.AppPort = flagPort
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = utils.Logger.Sync() }()
	log := utils.Logger

	db := config.InitDatabase(models.All()...)
	utils.InitRedis(cfg)

	loc := cfg.Location()
	clock := services.SystemClock(loc)
	settings := services.NewSettingsStore(db, cfg.DefaultReminderTime, cfg.DefaultAverageAmount)
	ledger := services.NewLedger(db)
	subs := services.NewSubscriptionStore(db)
	dispatcher := services.NewDispatcher(&services.WebPushSender{TTL: cfg.PushTTLSeconds}, subs, log.Named("push"))
	reminder := services.NewReminder(ledger, subs, dispatcher, services.VAPIDCredentials{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subscriber: cfg.VAPIDClaimsEmail,
	}, cfg.ReminderMessage, clock, log.Named("reminder"))

	scheduler := services.NewReminderScheduler(settings, loc, reminder.SendDailyReminder, log.Named("scheduler"))
	if err := scheduler.ScheduleReminder(context.Background()); err != nil {
		// A bad stored value must not leave the process without a reminder.
		log.Error("stored reminder time unusable, falling back to default", zap.Error(err))
		def, derr := settings.DefaultReminderTime()
		if derr != nil {
			return fmt.Errorf("default reminder time: %w", derr)
		}
		if err := scheduler.Arm(def); err != nil {
			return err
		}
	}

	r := routes.SetupRouter(routes.Deps{
		Config:        cfg,
		Clock:         clock,
		Ledger:        ledger,
		Settings:      settings,
		Subscriptions: subs,
		Reminder:      reminder,
		Scheduler:     scheduler,
	})

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, utils.DEFAULT_WRITE_TIMEOUT)
	log.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	return serveHTTP(srv, scheduler, log)
}

// serveHTTP runs the scheduler for as long as srv serves. The scheduler is stopped on every
// exit path, including a listener that fails to start.
func serveHTTP(srv *utils.Server, scheduler *services.ReminderScheduler, log *zap.Logger) error {
	scheduler.Start()
	defer scheduler.Stop()

	srv.OnShutdown(func(ctx context.Context) {
		select {
		case <-scheduler.Stop().Done():
			log.Info("scheduler stopped")
		case <-ctx.Done():
			log.Warn("scheduler did not stop before shutdown deadline")
		}
	})

	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}
