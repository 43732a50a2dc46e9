package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, "5000", c.AppPort)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Empty(t, c.DatabaseURI)
	assert.Equal(t, "16:50", c.DefaultReminderTime)
	assert.Equal(t, 7.50, c.DefaultAverageAmount)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 12*60*60, c.PushTTLSeconds)
	assert.Empty(t, c.VAPIDPrivateKey)
}

func TestLoadJSONConfig_GroupedSections(t *testing.T) {
	p := writeFile(t, `{
		"app": {"AppPort": "8080", "AllowedOrigins": ["https://a.example"], "TimeZone": "Europe/Amsterdam"},
		"database": {"DBDriver": "mysql", "DatabaseURI": "u:p@tcp(db:3306)/snack"},
		"reminder": {"DefaultReminderTime": "17:30", "DefaultAverageAmount": "4.20"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"LogCompress": true}
	}`)
	var c AppConfig
	require.NoError(t, loadJSONConfig(p, &c))
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "u:p@tcp(db:3306)/snack", c.DatabaseURI)
	assert.Equal(t, "17:30", c.DefaultReminderTime)
	assert.Equal(t, 4.20, c.DefaultAverageAmount)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.True(t, c.LogCompress)
	// untouched keys fall back to defaults
	assert.Equal(t, 60, c.RateLimitPerMinute)
}

func TestLoadJSONConfig_FlatKeys(t *testing.T) {
	p := writeFile(t, `{"AppPort": "9000", "VAPIDPublicKey": "pub", "DefaultAverageAmount": 3}`)
	var c AppConfig
	require.NoError(t, loadJSONConfig(p, &c))
	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "pub", c.VAPIDPublicKey)
	assert.Equal(t, 3.0, c.DefaultAverageAmount)
}

func TestLoadJSONConfig_MissingAndInvalid(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
	assert.Error(t, loadJSONConfig(writeFile(t, `{not json`), &c))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DEFAULT_AVERAGE_AMOUNT", "2.5")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("LOG_COMPRESS", "true")

	c := Defaults()
	applyEnvOverrides(&c)
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 2.5, c.DefaultAverageAmount)
	assert.Equal(t, "priv", c.VAPIDPrivateKey)
	assert.True(t, c.LogCompress)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, AppConfig{TimeZone: "Local"}.Location())
	assert.Equal(t, time.Local, AppConfig{TimeZone: "Not/AZone"}.Location())
	assert.Equal(t, "UTC", AppConfig{TimeZone: "UTC"}.Location().String())
}

func TestOpenDatabase(t *testing.T) {
	db, err := OpenDatabase("sqlite", filepath.Join(t.TempDir(), "x.db"), "silent")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	_, err = OpenDatabase("mysql", "", "silent")
	assert.Error(t, err)
	_, err = OpenDatabase("postgres", "x", "silent")
	assert.Error(t, err)
}

func TestLoadJSONConfig_ZeroAverageAmountIsKept(t *testing.T) {
	p := writeFile(t, `{"reminder": {"DefaultAverageAmount": 0}}`)
	var c AppConfig
	require.NoError(t, loadJSONConfig(p, &c))
	applyDefaults(&c)
	assert.Equal(t, 0.0, c.DefaultAverageAmount)

	// absent key still gets the default
	p = writeFile(t, `{"reminder": {"DefaultReminderTime": "18:00"}}`)
	c = AppConfig{}
	require.NoError(t, loadJSONConfig(p, &c))
	applyDefaults(&c)
	assert.Equal(t, 7.50, c.DefaultAverageAmount)
}
