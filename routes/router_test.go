package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/config"
	"github.com/cppla/snackstopper/models"
	"github.com/cppla/snackstopper/services"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	router    *gin.Engine
	scheduler *services.ReminderScheduler
}

func newTestApp(t *testing.T, mutate func(*config.AppConfig)) *testApp {
	t.Helper()
	cfg := config.Defaults()
	cfg.GinMode = "test"
	cfg.GinPath = ""
	cfg.VAPIDPublicKey = "BPublicKey"
	cfg.RateLimitPerMinute = 1000
	if mutate != nil {
		mutate(&cfg)
	}

	db, err := config.OpenDatabase("sqlite", filepath.Join(t.TempDir(), "snackstopper.db"), "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	day := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	clock := services.Clock(func() time.Time { return day })
	log := zap.NewNop()

	ledger := services.NewLedger(db)
	settings := services.NewSettingsStore(db, cfg.DefaultReminderTime, cfg.DefaultAverageAmount)
	subs := services.NewSubscriptionStore(db)
	dispatcher := services.NewDispatcher(&services.WebPushSender{TTL: cfg.PushTTLSeconds}, subs, log)
	reminder := services.NewReminder(ledger, subs, dispatcher, services.VAPIDCredentials{}, cfg.ReminderMessage, clock, log)
	scheduler := services.NewReminderScheduler(settings, time.UTC, func() {}, log)
	require.NoError(t, scheduler.ScheduleReminder(context.Background()))

	return &testApp{
		router: SetupRouter(Deps{
			Config:        cfg,
			Clock:         clock,
			Ledger:        ledger,
			Settings:      settings,
			Subscriptions: subs,
			Reminder:      reminder,
			Scheduler:     scheduler,
		}),
		scheduler: scheduler,
	}
}

func (a *testApp) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestCheckIn_DefaultsToPassed(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(t, http.MethodPost, "/api/checkin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	rec := decode[models.CheckIn](t, env.Data)
	assert.Equal(t, "2024-05-01", rec.Date)
	assert.True(t, rec.Passed)
	assert.Equal(t, 7.5, rec.AmountSaved)
}

func TestCheckIn_ThenStats(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(t, http.MethodPost, "/api/checkin", `{"passed": false, "note": "<b>bakje</b> friet"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[models.CheckIn](t, env.Data)
	assert.False(t, rec.Passed)
	assert.Zero(t, rec.AmountSaved)
	assert.Equal(t, "bakje friet", rec.Note)

	// Changing the answer on the same day overwrites it.
	_, _ = app.do(t, http.MethodPost, "/api/checkin", `{"passed": true}`)

	w, env = app.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.Stats](t, env.Data)
	assert.Equal(t, 1, stats.Streak)
	assert.Equal(t, 7.5, stats.TotalSaved)
	assert.Equal(t, 1, stats.TotalDays)
	assert.Equal(t, 1, stats.DaysPassed)
	assert.True(t, stats.CheckedInToday)
	require.NotNil(t, stats.TodayPassed)
	assert.True(t, *stats.TodayPassed)
}

func TestCheckIn_RejectsMalformedBody(t *testing.T) {
	app := newTestApp(t, nil)
	w, env := app.do(t, http.MethodPost, "/api/checkin", `{"passed": "yes"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40010, env.Code)
}

func TestStats_Empty(t *testing.T) {
	app := newTestApp(t, nil)
	w, env := app.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.Stats](t, env.Data)
	assert.Equal(t, services.Stats{}, stats)
}

func TestHistory(t *testing.T) {
	app := newTestApp(t, nil)
	_, _ = app.do(t, http.MethodPost, "/api/checkin", `{"passed": true}`)

	w, env := app.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]models.CheckIn](t, env.Data)
	require.Len(t, items, 1)
	assert.Equal(t, "2024-05-01", items[0].Date)

	for _, limit := range []string{"0", "-3", "abc"} {
		w, env = app.do(t, http.MethodGet, "/api/history?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
		assert.Equal(t, 40020, env.Code, limit)
	}
}

func TestSettings_DefaultsAndUpdate(t *testing.T) {
	app := newTestApp(t, nil)

	_, env := app.do(t, http.MethodGet, "/api/settings", "")
	got := decode[map[string]any](t, env.Data)
	assert.Equal(t, "16:50", got["reminder_time"])
	assert.Equal(t, 7.5, got["average_amount"])

	w, env := app.do(t, http.MethodPost, "/api/settings", `{"reminder_time": "9:05", "average_amount": 3.25}`)
	require.Equal(t, http.StatusOK, w.Code, env.Message)

	_, env = app.do(t, http.MethodGet, "/api/settings", "")
	got = decode[map[string]any](t, env.Data)
	assert.Equal(t, "09:05", got["reminder_time"])
	assert.Equal(t, 3.25, got["average_amount"])

	at, armed := app.scheduler.Current()
	assert.True(t, armed)
	assert.Equal(t, "09:05", at.String())

	// Later check-ins use the new amount.
	_, env = app.do(t, http.MethodPost, "/api/checkin", "")
	assert.Equal(t, 3.25, decode[models.CheckIn](t, env.Data).AmountSaved)
}

func TestSettings_PartialUpdateKeepsOtherKey(t *testing.T) {
	app := newTestApp(t, nil)
	w, _ := app.do(t, http.MethodPost, "/api/settings", `{"average_amount": 4}`)
	require.Equal(t, http.StatusOK, w.Code)

	_, env := app.do(t, http.MethodGet, "/api/settings", "")
	got := decode[map[string]any](t, env.Data)
	assert.Equal(t, "16:50", got["reminder_time"])
	assert.Equal(t, 4.0, got["average_amount"])
}

func TestSettings_Validation(t *testing.T) {
	app := newTestApp(t, nil)
	cases := []struct {
		body string
		code int
	}{
		{`{"reminder_time": "25:00"}`, 40041},
		{`{"reminder_time": "noon"}`, 40041},
		{`{"average_amount": -1}`, 40042},
		{`[1, 2]`, 40040},
	}
	for _, tc := range cases {
		w, env := app.do(t, http.MethodPost, "/api/settings", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Equal(t, tc.code, env.Code, tc.body)
	}

	at, _ := app.scheduler.Current()
	assert.Equal(t, "16:50", at.String())
}

func TestSubscribe(t *testing.T) {
	app := newTestApp(t, nil)
	sub := `{"endpoint":"https://push.example.com/x","keys":{"p256dh":"k","auth":"a"}}`

	w, env := app.do(t, http.MethodPost, "/api/subscribe", sub)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"ok": true, "created": true}, decode[map[string]bool](t, env.Data))

	_, env = app.do(t, http.MethodPost, "/api/subscribe", sub)
	assert.Equal(t, map[string]bool{"ok": true, "created": false}, decode[map[string]bool](t, env.Data))

	w, env = app.do(t, http.MethodPost, "/api/subscribe", `{"keys":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40031, env.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	app := newTestApp(t, nil)
	w, env := app.do(t, http.MethodGet, "/api/vapid-public-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"public_key": "BPublicKey"}, decode[map[string]string](t, env.Data))

	app = newTestApp(t, func(c *config.AppConfig) { c.VAPIDPublicKey = "" })
	w, env = app.do(t, http.MethodGet, "/api/vapid-public-key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 50350, env.Code)
}

func TestReminderEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	_, env := app.do(t, http.MethodGet, "/api/reminder", "")
	status := decode[map[string]any](t, env.Data)
	assert.Equal(t, true, status["armed"])
	assert.Equal(t, "16:50", status["reminder_time"])

	w, env := app.do(t, http.MethodPost, "/api/reminder/test", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ReminderOutcome{}, decode[services.ReminderOutcome](t, env.Data))

	_, _ = app.do(t, http.MethodPost, "/api/checkin", "")
	_, env = app.do(t, http.MethodPost, "/api/reminder/test", "")
	assert.True(t, decode[services.ReminderOutcome](t, env.Data).Skipped)

	_, env = app.do(t, http.MethodPost, "/api/reminder/test?force=1", "")
	assert.False(t, decode[services.ReminderOutcome](t, env.Data).Skipped)
}

func TestWritesAreRateLimited(t *testing.T) {
	app := newTestApp(t, func(c *config.AppConfig) { c.RateLimitPerMinute = 2 })

	w, _ := app.do(t, http.MethodPost, "/api/checkin", "")
	require.Equal(t, http.StatusOK, w.Code)
	w, env := app.do(t, http.MethodPost, "/api/checkin", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 42901, env.Code)

	// reads are not limited
	w, _ = app.do(t, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t, nil)

	w, env := app.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, env.Data))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env = app.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}
