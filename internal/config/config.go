package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"github.com/riskibarqy/mlb-scorecard/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	RedisURL        string
	CacheTTL        time.Duration
	LocalCacheTTL   time.Duration
	DefaultTimeZone *time.Location

	SportradarBaseURL     string
	SportradarAPIKey      string
	SportradarAccessLevel string
	SportradarLanguage    string
	SportradarTimeout     time.Duration
	SportradarMaxRetries  int
	SportradarCircuit     resilience.BreakerConfig

	ReminderWindow        time.Duration
	ReminderScanInterval  time.Duration
	ReminderClaimEnabled  bool
	ReminderNotifyWorkers int
	LiveSyncInterval      time.Duration
	LiveSyncWorkers       int
	PostSetupTTL          time.Duration

	RedditEnabled     bool
	RedditBaseURL     string
	RedditAccessToken string
	RedditUserAgent   string
	RedditTimeout     time.Duration

	InternalJobToken    string
	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int
	QStashTimeout       time.Duration
	QStashCircuit       resilience.BreakerConfig

	DBEnabled               bool
	DBURL                   string
	DBDisablePreparedBinary bool

	UptraceEnabled             bool
	UptraceDSN                 string
	PprofEnabled               bool
	PprofAddr                  string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        strings.TrimSpace(getEnv("APP_SERVICE_NAME", "mlb-scorecard-api")),
		ServiceVersion:     strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		HTTPAddr:           strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		RedisURL:           strings.TrimSpace(getEnv("REDIS_URL", "")),
	}

	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if cfg.CacheTTL, err = getEnvAsPositiveDuration("CACHE_TTL", "1m"); err != nil {
		return Config{}, err
	}
	if cfg.LocalCacheTTL, err = getEnvAsPositiveDuration("LOCAL_CACHE_TTL", "5s"); err != nil {
		return Config{}, err
	}
	tzName := strings.TrimSpace(getEnv("DEFAULT_TIMEZONE", "America/New_York"))
	if cfg.DefaultTimeZone, err = time.LoadLocation(tzName); err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_TIMEZONE: %w", err)
	}

	if err := loadSportradar(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadScheduling(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadReddit(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadQStash(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadDB(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadSportradar(cfg *Config) error {
	cfg.SportradarBaseURL = strings.TrimSpace(getEnv("SPORTRADAR_BASE_URL", ""))
	cfg.SportradarAPIKey = strings.TrimSpace(getEnv("SPORTRADAR_API_KEY", ""))
	cfg.SportradarAccessLevel = strings.TrimSpace(getEnv("SPORTRADAR_ACCESS_LEVEL", "trial"))
	cfg.SportradarLanguage = strings.TrimSpace(getEnv("SPORTRADAR_LANGUAGE", "en"))
	if cfg.AppEnv == EnvProd && cfg.SportradarAPIKey == "" {
		return fmt.Errorf("SPORTRADAR_API_KEY is required when APP_ENV=%s", EnvProd)
	}

	var err error
	if cfg.SportradarTimeout, err = getEnvAsPositiveDuration("SPORTRADAR_TIMEOUT", "10s"); err != nil {
		return err
	}
	if cfg.SportradarMaxRetries, err = getEnvAsInt("SPORTRADAR_MAX_RETRIES", 0); err != nil {
		return fmt.Errorf("parse SPORTRADAR_MAX_RETRIES: %w", err)
	}
	if cfg.SportradarMaxRetries < 0 {
		return fmt.Errorf("SPORTRADAR_MAX_RETRIES must be >= 0")
	}
	cfg.SportradarCircuit, err = loadBreaker("SPORTRADAR")
	return err
}

func loadScheduling(cfg *Config) error {
	var err error
	if cfg.ReminderWindow, err = getEnvAsPositiveDuration("REMINDER_WINDOW", "12h"); err != nil {
		return err
	}
	if cfg.ReminderScanInterval, err = getEnvAsPositiveDuration("REMINDER_SCAN_INTERVAL", "5m"); err != nil {
		return err
	}
	if cfg.ReminderClaimEnabled, err = getEnvAsBool("REMINDER_CLAIM_ENABLED", true); err != nil {
		return err
	}
	if cfg.ReminderNotifyWorkers, err = getEnvAsInt("REMINDER_NOTIFY_WORKERS", 8); err != nil {
		return fmt.Errorf("parse REMINDER_NOTIFY_WORKERS: %w", err)
	}
	if cfg.ReminderNotifyWorkers < 1 {
		return fmt.Errorf("REMINDER_NOTIFY_WORKERS must be >= 1")
	}
	if cfg.LiveSyncInterval, err = getEnvAsPositiveDuration("LIVE_SYNC_INTERVAL", "30s"); err != nil {
		return err
	}
	if cfg.LiveSyncWorkers, err = getEnvAsInt("LIVE_SYNC_WORKERS", 4); err != nil {
		return fmt.Errorf("parse LIVE_SYNC_WORKERS: %w", err)
	}
	if cfg.LiveSyncWorkers < 1 {
		return fmt.Errorf("LIVE_SYNC_WORKERS must be >= 1")
	}
	cfg.PostSetupTTL, err = getEnvAsPositiveDuration("POST_SETUP_TTL", "15m")
	return err
}

func loadReddit(cfg *Config) error {
	var err error
	if cfg.RedditEnabled, err = getEnvAsBool("REDDIT_ENABLED", false); err != nil {
		return err
	}
	cfg.RedditBaseURL = strings.TrimSpace(getEnv("REDDIT_BASE_URL", "https://oauth.reddit.com"))
	cfg.RedditAccessToken = strings.TrimSpace(getEnv("REDDIT_ACCESS_TOKEN", ""))
	cfg.RedditUserAgent = strings.TrimSpace(getEnv("REDDIT_USER_AGENT", "mlb-scorecard/1.0"))
	if cfg.RedditEnabled && cfg.RedditAccessToken == "" {
		return fmt.Errorf("REDDIT_ACCESS_TOKEN is required when REDDIT_ENABLED=true")
	}
	cfg.RedditTimeout, err = getEnvAsPositiveDuration("REDDIT_TIMEOUT", "5s")
	return err
}

func loadQStash(cfg *Config) error {
	cfg.InternalJobToken = strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))

	var err error
	if cfg.QStashEnabled, err = getEnvAsBool("QSTASH_ENABLED", false); err != nil {
		return err
	}
	cfg.QStashBaseURL = strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	cfg.QStashToken = strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	cfg.QStashTargetBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", "")), "/")
	if cfg.QStashEnabled {
		if cfg.QStashToken == "" {
			return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if cfg.QStashTargetBaseURL == "" {
			return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if cfg.InternalJobToken == "" {
			return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}
	if cfg.QStashRetries, err = getEnvAsInt("QSTASH_RETRIES", 3); err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if cfg.QStashRetries < 0 {
		return fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	if cfg.QStashTimeout, err = getEnvAsPositiveDuration("QSTASH_TIMEOUT", "5s"); err != nil {
		return err
	}
	cfg.QStashCircuit, err = loadBreaker("QSTASH")
	return err
}

func loadDB(cfg *Config) error {
	var err error
	if cfg.DBEnabled, err = getEnvAsBool("DB_ENABLED", false); err != nil {
		return err
	}
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.DBEnabled && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when DB_ENABLED=true")
	}
	cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true)
	return err
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	return err
}

// loadBreaker reads <PREFIX>_CIRCUIT_* variables.
func loadBreaker(prefix string) (resilience.BreakerConfig, error) {
	defaults := resilience.DefaultBreakerConfig()
	out := defaults

	var err error
	if out.Enabled, err = getEnvAsBool(prefix+"_CIRCUIT_ENABLED", defaults.Enabled); err != nil {
		return resilience.BreakerConfig{}, err
	}
	key := prefix + "_CIRCUIT_FAILURE_COUNT"
	if out.FailureThreshold, err = getEnvAsInt(key, defaults.FailureThreshold); err != nil {
		return resilience.BreakerConfig{}, fmt.Errorf("parse %s: %w", key, err)
	}
	if out.FailureThreshold < 1 {
		return resilience.BreakerConfig{}, fmt.Errorf("%s must be >= 1", key)
	}
	if out.OpenTimeout, err = getEnvAsPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String()); err != nil {
		return resilience.BreakerConfig{}, err
	}
	key = prefix + "_CIRCUIT_HALF_OPEN_MAX_REQ"
	if out.HalfOpenProbes, err = getEnvAsInt(key, defaults.HalfOpenProbes); err != nil {
		return resilience.BreakerConfig{}, fmt.Errorf("parse %s: %w", key, err)
	}
	if out.HalfOpenProbes < 1 {
		return resilience.BreakerConfig{}, fmt.Errorf("%s must be >= 1", key)
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	if level, ok := logging.ParseLevel(v); ok {
		return level
	}
	return logging.LevelInfo
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
