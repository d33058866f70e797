package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/platform/resilience"
	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
)

// Config stores runtime configuration for the poster.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           logging.Level
	AdminToken         string
	InternalJobToken   string
	CORSAllowedOrigins []string

	Timezone               string
	Location               *time.Location
	SchedulerAutoStart     bool
	SchedulerWorkers       int
	SchedulerTaskTimeout   time.Duration
	Schedules              scheduler.Specs
	ResultsHour            int
	FixedWindowMin         time.Duration
	FixedWindowMax         time.Duration
	CallTimeout            time.Duration
	AutoPauseAfterFailures int

	SettingsFile     string
	WebsiteURL       string
	HoursBeforeMatch int
	MinGapMinutes    int
	DynamicTiming    bool

	TelegramBotToken      string
	TelegramChannel       string
	TelegramAPIEndpoint   string
	TelegramTimeout       time.Duration
	TelegramRatePerMinute int
	TelegramMaxRetries    int
	TelegramWebhookURL    string
	TelegramCircuit       resilience.CircuitBreakerConfig

	SportMonksBaseURL       string
	SportMonksToken         string
	SportMonksLeagueIDs     []int64
	SportMonksLookahead     time.Duration
	SportMonksTimeout       time.Duration
	SportMonksMaxRetries    int
	SportMonksRatePerMinute int
	SportMonksCacheTTL      time.Duration
	SportMonksCircuit       resilience.CircuitBreakerConfig

	DBURL                   string
	DBDisablePreparedBinary bool

	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int
	QStashCircuit       resilience.CircuitBreakerConfig

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "matchday-tipster"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		AdminToken:         strings.TrimSpace(getEnv("ADMIN_TOKEN", "")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.ReadTimeout, err = getPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getPositiveDuration("APP_WRITE_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = getPositiveDuration("APP_SHUTDOWN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	loaders := []func(*Config) error{
		loadScheduler,
		loadSettings,
		loadTelegram,
		loadSportMonks,
		loadDatabase,
		loadQStash,
		loadObservability,
	}
	for _, load := range loaders {
		if err := load(&cfg); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// RequireDelivery reports what is missing before the poster can fetch
// fixtures and post to the channel.
func (c Config) RequireDelivery() error {
	switch {
	case c.TelegramBotToken == "":
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	case c.TelegramChannel == "":
		return fmt.Errorf("TELEGRAM_CHANNEL is required")
	case c.SportMonksToken == "":
		return fmt.Errorf("SPORTMONKS_TOKEN is required")
	default:
		return nil
	}
}

func loadScheduler(cfg *Config) error {
	cfg.Timezone = strings.TrimSpace(getEnv("SCHEDULER_TIMEZONE", "UTC"))
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("parse SCHEDULER_TIMEZONE: %w", err)
	}
	cfg.Location = location

	if cfg.SchedulerAutoStart, err = getEnvAsBool("SCHEDULER_AUTO_START", true); err != nil {
		return err
	}
	if cfg.SchedulerWorkers, err = getEnvAsInt("SCHEDULER_WORKERS", 4); err != nil {
		return fmt.Errorf("parse SCHEDULER_WORKERS: %w", err)
	}
	if cfg.SchedulerWorkers < 1 {
		return fmt.Errorf("SCHEDULER_WORKERS must be >= 1")
	}
	if cfg.SchedulerTaskTimeout, err = getPositiveDuration("SCHEDULER_TASK_TIMEOUT", "2m"); err != nil {
		return err
	}

	defaults := scheduler.DefaultSpecs()
	specs := []struct {
		key      string
		fallback string
		dst      *string
		optional bool
	}{
		{key: "SCHEDULE_FIXTURES_REFRESH", fallback: defaults.FixturesRefresh, dst: &cfg.Schedules.FixturesRefresh},
		{key: "SCHEDULE_PREDICTIONS_CHECK", fallback: defaults.PredictionsCheck, dst: &cfg.Schedules.PredictionsCheck},
		{key: "SCHEDULE_PREDICTIONS_FIXED", fallback: defaults.PredictionsFixed, dst: &cfg.Schedules.PredictionsFixed},
		{key: "SCHEDULE_RESULTS_CHECK", fallback: defaults.ResultsCheck, dst: &cfg.Schedules.ResultsCheck},
		{key: "SCHEDULE_PROMO_MORNING", fallback: defaults.PromoMorning, dst: &cfg.Schedules.PromoMorning},
		{key: "SCHEDULE_PROMO_AFTERNOON", fallback: defaults.PromoAfternoon, dst: &cfg.Schedules.PromoAfternoon},
		{key: "SCHEDULE_PROMO_EVENING", fallback: defaults.PromoEvening, dst: &cfg.Schedules.PromoEvening},
		{key: "SCHEDULE_ANALYTICS_RESET", fallback: defaults.AnalyticsReset, dst: &cfg.Schedules.AnalyticsReset},
		{key: "SCHEDULE_HYPE", fallback: defaults.Hype, dst: &cfg.Schedules.Hype, optional: true},
	}
	for _, spec := range specs {
		value := strings.TrimSpace(getEnv(spec.key, spec.fallback))
		if value == "" && spec.optional {
			*spec.dst = ""
			continue
		}
		if _, err := cron.ParseStandard(value); err != nil {
			return fmt.Errorf("parse %s: %w", spec.key, err)
		}
		*spec.dst = value
	}

	if cfg.ResultsHour, err = getEnvAsInt("RESULTS_HOUR", 20); err != nil {
		return fmt.Errorf("parse RESULTS_HOUR: %w", err)
	}
	if cfg.ResultsHour < 1 || cfg.ResultsHour > 23 {
		return fmt.Errorf("RESULTS_HOUR must be between 1 and 23")
	}
	if cfg.FixedWindowMin, err = getPositiveDuration("FIXED_WINDOW_MIN", "1h"); err != nil {
		return err
	}
	if cfg.FixedWindowMax, err = getPositiveDuration("FIXED_WINDOW_MAX", "4h"); err != nil {
		return err
	}
	if cfg.FixedWindowMax <= cfg.FixedWindowMin {
		return fmt.Errorf("FIXED_WINDOW_MAX must be > FIXED_WINDOW_MIN")
	}
	if cfg.CallTimeout, err = getPositiveDuration("CALL_TIMEOUT", "20s"); err != nil {
		return err
	}
	if cfg.CallTimeout < time.Second || cfg.CallTimeout > time.Minute {
		return fmt.Errorf("CALL_TIMEOUT must be between 1s and 60s")
	}
	if cfg.AutoPauseAfterFailures, err = getEnvAsInt("AUTO_PAUSE_AFTER_FAILURES", 5); err != nil {
		return fmt.Errorf("parse AUTO_PAUSE_AFTER_FAILURES: %w", err)
	}
	if cfg.AutoPauseAfterFailures < 0 {
		return fmt.Errorf("AUTO_PAUSE_AFTER_FAILURES must be >= 0")
	}
	return nil
}

func loadSettings(cfg *Config) error {
	var err error
	cfg.SettingsFile = strings.TrimSpace(getEnv("SETTINGS_FILE", ""))
	cfg.WebsiteURL = strings.TrimSpace(getEnv("WEBSITE_URL", ""))

	if cfg.HoursBeforeMatch, err = getEnvAsInt("HOURS_BEFORE_MATCH", 2); err != nil {
		return fmt.Errorf("parse HOURS_BEFORE_MATCH: %w", err)
	}
	if cfg.HoursBeforeMatch < 1 || cfg.HoursBeforeMatch > 24 {
		return fmt.Errorf("HOURS_BEFORE_MATCH must be between 1 and 24")
	}
	if cfg.MinGapMinutes, err = getEnvAsInt("MIN_GAP_MINUTES", 30); err != nil {
		return fmt.Errorf("parse MIN_GAP_MINUTES: %w", err)
	}
	if cfg.MinGapMinutes < 0 {
		return fmt.Errorf("MIN_GAP_MINUTES must be >= 0")
	}
	if cfg.DynamicTiming, err = getEnvAsBool("DYNAMIC_TIMING", true); err != nil {
		return err
	}
	return nil
}

func loadTelegram(cfg *Config) error {
	var err error
	cfg.TelegramBotToken = strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", ""))
	cfg.TelegramChannel = strings.TrimSpace(getEnv("TELEGRAM_CHANNEL", ""))
	cfg.TelegramAPIEndpoint = strings.TrimSpace(getEnv("TELEGRAM_API_ENDPOINT", ""))
	cfg.TelegramWebhookURL = strings.TrimSpace(getEnv("TELEGRAM_WEBHOOK_URL", ""))

	if cfg.TelegramTimeout, err = getPositiveDuration("TELEGRAM_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.TelegramRatePerMinute, err = getEnvAsInt("TELEGRAM_RATE_PER_MINUTE", 20); err != nil {
		return fmt.Errorf("parse TELEGRAM_RATE_PER_MINUTE: %w", err)
	}
	if cfg.TelegramRatePerMinute < 1 {
		return fmt.Errorf("TELEGRAM_RATE_PER_MINUTE must be >= 1")
	}
	if cfg.TelegramMaxRetries, err = getEnvAsInt("TELEGRAM_MAX_RETRIES", 2); err != nil {
		return fmt.Errorf("parse TELEGRAM_MAX_RETRIES: %w", err)
	}
	if cfg.TelegramMaxRetries < 0 {
		return fmt.Errorf("TELEGRAM_MAX_RETRIES must be >= 0")
	}
	cfg.TelegramCircuit, err = loadCircuit("TELEGRAM")
	return err
}

func loadSportMonks(cfg *Config) error {
	var err error
	cfg.SportMonksBaseURL = strings.TrimSpace(getEnv("SPORTMONKS_BASE_URL", "https://api.sportmonks.com/v3/football"))
	cfg.SportMonksToken = strings.TrimSpace(getEnv("SPORTMONKS_TOKEN", ""))

	if cfg.SportMonksLeagueIDs, err = parseIDList(getEnv("SPORTMONKS_LEAGUE_IDS", "")); err != nil {
		return fmt.Errorf("parse SPORTMONKS_LEAGUE_IDS: %w", err)
	}
	if cfg.SportMonksLookahead, err = getPositiveDuration("SPORTMONKS_LOOKAHEAD", "24h"); err != nil {
		return err
	}
	if cfg.SportMonksTimeout, err = getPositiveDuration("SPORTMONKS_TIMEOUT", "20s"); err != nil {
		return err
	}
	if cfg.SportMonksMaxRetries, err = getEnvAsInt("SPORTMONKS_MAX_RETRIES", 1); err != nil {
		return fmt.Errorf("parse SPORTMONKS_MAX_RETRIES: %w", err)
	}
	if cfg.SportMonksMaxRetries < 0 {
		return fmt.Errorf("SPORTMONKS_MAX_RETRIES must be >= 0")
	}
	if cfg.SportMonksRatePerMinute, err = getEnvAsInt("SPORTMONKS_RATE_PER_MINUTE", 50); err != nil {
		return fmt.Errorf("parse SPORTMONKS_RATE_PER_MINUTE: %w", err)
	}
	if cfg.SportMonksRatePerMinute < 1 {
		return fmt.Errorf("SPORTMONKS_RATE_PER_MINUTE must be >= 1")
	}
	if cfg.SportMonksCacheTTL, err = getPositiveDuration("SPORTMONKS_CACHE_TTL", "2m"); err != nil {
		return err
	}
	cfg.SportMonksCircuit, err = loadCircuit("SPORTMONKS")
	return err
}

func loadDatabase(cfg *Config) error {
	var err error
	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true)
	return err
}

func loadQStash(cfg *Config) error {
	var err error
	if cfg.QStashEnabled, err = getEnvAsBool("QSTASH_ENABLED", false); err != nil {
		return err
	}
	if cfg.QStashRetries, err = getEnvAsInt("QSTASH_RETRIES", 3); err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if cfg.QStashRetries < 0 {
		return fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	if cfg.QStashCircuit, err = loadCircuit("QSTASH"); err != nil {
		return err
	}

	cfg.QStashBaseURL = strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	cfg.QStashToken = strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	cfg.QStashTargetBaseURL = strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	if !cfg.QStashEnabled {
		return nil
	}
	if cfg.QStashToken == "" {
		return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
	}
	if cfg.QStashTargetBaseURL == "" {
		return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
	}
	if cfg.InternalJobToken == "" {
		return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
	}
	return nil
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
	if cfg.PyroscopeUploadRate, err = getPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	return nil
}

// loadCircuit reads the <PREFIX>_CIRCUIT_* group.
func loadCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	var (
		out resilience.CircuitBreakerConfig
		err error
	)
	if out.Enabled, err = getEnvAsBool(prefix+"_CIRCUIT_ENABLED", true); err != nil {
		return out, err
	}

	key := prefix + "_CIRCUIT_FAILURE_COUNT"
	if out.FailureThreshold, err = getEnvAsInt(key, 5); err != nil {
		return out, fmt.Errorf("parse %s: %w", key, err)
	}
	if out.FailureThreshold < 1 {
		return out, fmt.Errorf("%s must be >= 1", key)
	}

	if out.OpenTimeout, err = getPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return out, err
	}

	key = prefix + "_CIRCUIT_HALF_OPEN_MAX_REQ"
	if out.HalfOpenMaxReq, err = getEnvAsInt(key, 1); err != nil {
		return out, fmt.Errorf("parse %s: %w", key, err)
	}
	if out.HalfOpenMaxReq < 1 {
		return out, fmt.Errorf("%s must be >= 1", key)
	}
	return out, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

func getPositiveDuration(key, fallback string) (time.Duration, error) {
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

func parseIDList(raw string) ([]int64, error) {
	items := splitCSV(raw)
	out := make([]int64, 0, len(items))
	for _, item := range items {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("id must be > 0, got %q", item)
		}
		out = append(out, value)
	}
	return out, nil
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
