package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// VAPID keys are secrets and have no defaults inside code; generate them with `snackstopper vapid`.
type AppConfig struct {
	AppPort            string
	RateLimitPerMinute int
	AllowedOrigins     []string
	TimeZone           string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: sqlite (single local file) or mysql
	DBDriver    string
	DatabaseURI string
	// Web push credentials
	VAPIDPrivateKey  string
	VAPIDPublicKey   string
	VAPIDClaimsEmail string
	PushTTLSeconds   int
	// Reminder and savings defaults, used until the user stores their own settings
	DefaultReminderTime  string
	DefaultAverageAmount float64
	ReminderMessage      string
	// averageAmountSet marks an explicit DefaultAverageAmount, so 0 is kept
	averageAmountSet bool
	// Redis for response caching; disabled when RedisHost is empty
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: .env -> config/config.json -> defaults -> environment variable overrides
	// .env only seeds variables that are not already set in the process environment.
	_ = godotenv.Load()

	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("config/config.json ignored: %v", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.VAPIDPrivateKey == "" || cfg.VAPIDPublicKey == "" {
		log.Println("VAPID keys are not configured; push reminders will fail until `snackstopper vapid` is run")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Defaults returns a configuration with only defaults applied. Useful for tests and tooling
// that must not read the environment.
func Defaults() AppConfig {
	var c AppConfig
	applyDefaults(&c)
	return c
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			}
		}
		return 0
	}
	getFloat := func(m map[string]any, key string) float64 {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return t
			case string:
				f, _ := strconv.ParseFloat(t, 64)
				return f
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	// Flat keys are accepted at the top level as well as inside their group.
	section := func(name string) map[string]any {
		if m, ok := raw[name].(map[string]any); ok {
			return m
		}
		return raw
	}

	app := section("app")
	out.AppPort = getString(app, "AppPort")
	out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
	out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
	out.TimeZone = getString(app, "TimeZone")

	g := section("gin")
	out.GinMode = getString(g, "GinMode")
	out.GinPath = getString(g, "GinPath")

	dbs := section("database")
	out.DBDriver = getString(dbs, "DBDriver")
	out.DatabaseURI = getString(dbs, "DatabaseURI")

	push := section("push")
	out.VAPIDPrivateKey = getString(push, "VAPIDPrivateKey")
	out.VAPIDPublicKey = getString(push, "VAPIDPublicKey")
	out.VAPIDClaimsEmail = getString(push, "VAPIDClaimsEmail")
	out.PushTTLSeconds = getInt(push, "PushTTLSeconds")

	rem := section("reminder")
	out.DefaultReminderTime = getString(rem, "DefaultReminderTime")
	if _, ok := rem["DefaultAverageAmount"]; ok {
		out.DefaultAverageAmount = getFloat(rem, "DefaultAverageAmount")
		out.averageAmountSet = true
	}
	out.ReminderMessage = getString(rem, "ReminderMessage")

	rds := section("redis")
	out.RedisHost = getString(rds, "RedisHost")
	out.RedisPort = getInt(rds, "RedisPort")
	out.RedisDB = getInt(rds, "RedisDB")
	out.RedisPassword = getString(rds, "RedisPassword")

	lg := section("log")
	out.LogLevel = getString(lg, "LogLevel")
	out.LogPath = getString(lg, "LogPath")
	out.LogMaxSizeMB = getInt(lg, "LogMaxSizeMB")
	out.LogMaxBackups = getInt(lg, "LogMaxBackups")
	out.LogMaxAgeDays = getInt(lg, "LogMaxAgeDays")
	out.LogCompress = getBool(lg, "LogCompress")

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "5000"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.TimeZone == "" {
		c.TimeZone = "Local"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.VAPIDClaimsEmail == "" {
		c.VAPIDClaimsEmail = "mailto:dev@example.com"
	}
	if c.PushTTLSeconds == 0 {
		c.PushTTLSeconds = 12 * 60 * 60
	}
	if c.DefaultReminderTime == "" {
		c.DefaultReminderTime = "16:50"
	}
	if c.DefaultAverageAmount == 0 && !c.averageAmountSet {
		c.DefaultAverageAmount = 7.50
	}
	if c.ReminderMessage == "" {
		c.ReminderMessage = "Op weg naar huis? Rij door! \U0001f697\U0001f4a8"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("TIME_ZONE", ""); v != "" {
		c.TimeZone = v
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("VAPID_PRIVATE_KEY", ""); v != "" {
		c.VAPIDPrivateKey = v
	}
	if v := getEnv("VAPID_PUBLIC_KEY", ""); v != "" {
		c.VAPIDPublicKey = v
	}
	if v := getEnv("VAPID_CLAIMS_EMAIL", ""); v != "" {
		c.VAPIDClaimsEmail = v
	}
	if v := getEnv("PUSH_TTL_SECONDS", ""); v != "" {
		c.PushTTLSeconds = mustParseInt(v)
	}
	if v := getEnv("DEFAULT_REMINDER_TIME", ""); v != "" {
		c.DefaultReminderTime = v
	}
	if v := getEnv("DEFAULT_AVERAGE_AMOUNT", ""); v != "" {
		c.DefaultAverageAmount = mustParseFloat(v)
	}
	if v := getEnv("REMINDER_MESSAGE", ""); v != "" {
		c.ReminderMessage = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
}

// Location resolves TimeZone, falling back to the process local zone.
func (c AppConfig) Location() *time.Location {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Printf("unknown time zone %q, using local: %v", c.TimeZone, err)
		return time.Local
	}
	return loc
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func mustParseFloat(val string) float64 {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Fatalf("invalid decimal value %s: %v", val, err)
	}
	return f
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
