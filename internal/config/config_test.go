package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Location != time.UTC || cfg.Timezone != "UTC" {
		t.Fatalf("expected UTC by default, got %s", cfg.Timezone)
	}
	if cfg.Schedules != scheduler.DefaultSpecs() {
		t.Fatalf("unexpected default schedules: %+v", cfg.Schedules)
	}
	if cfg.Schedules.Hype != "" {
		t.Fatalf("hype must be disabled by default")
	}
	if cfg.CallTimeout != 20*time.Second || cfg.SportMonksLookahead != 24*time.Hour {
		t.Fatalf("unexpected timeouts: call=%s lookahead=%s", cfg.CallTimeout, cfg.SportMonksLookahead)
	}
	if cfg.HoursBeforeMatch != 2 || cfg.MinGapMinutes != 30 || !cfg.DynamicTiming {
		t.Fatalf("unexpected settings defaults: %+v", cfg)
	}
	if !cfg.SchedulerAutoStart || cfg.SchedulerWorkers != 4 {
		t.Fatalf("unexpected scheduler defaults: autostart=%v workers=%d", cfg.SchedulerAutoStart, cfg.SchedulerWorkers)
	}
	if cfg.DBURL != "" || !cfg.DBDisablePreparedBinary {
		t.Fatalf("expected memory journal by default, got %q", cfg.DBURL)
	}
	if !cfg.TelegramCircuit.Enabled || cfg.TelegramCircuit.FailureThreshold != 5 {
		t.Fatalf("unexpected telegram circuit: %+v", cfg.TelegramCircuit)
	}
}

func TestLoad_SchedulerTimezone(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "Asia/Jakarta")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Location.String() != "Asia/Jakarta" {
		t.Fatalf("unexpected location %s", cfg.Location)
	}

	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoad_ScheduleSpecsAreValidated(t *testing.T) {
	t.Setenv("SCHEDULE_PROMO_MORNING", "30 9 * * 1-5")
	t.Setenv("SCHEDULE_HYPE", "0 12 * * 6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Schedules.PromoMorning != "30 9 * * 1-5" || cfg.Schedules.Hype != "0 12 * * 6" {
		t.Fatalf("unexpected schedules: %+v", cfg.Schedules)
	}

	t.Setenv("SCHEDULE_RESULTS_CHECK", "every hour")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestLoad_FixedWindowBounds(t *testing.T) {
	t.Setenv("FIXED_WINDOW_MIN", "3h")
	t.Setenv("FIXED_WINDOW_MAX", "2h")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FIXED_WINDOW_MAX <= FIXED_WINDOW_MIN")
	}
}

func TestLoad_SettingsBounds(t *testing.T) {
	cases := map[string]string{
		"HOURS_BEFORE_MATCH": "0",
		"MIN_GAP_MINUTES":    "-1",
		"RESULTS_HOUR":       "24",
		"CALL_TIMEOUT":       "90s",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_SportMonksConfigParsing(t *testing.T) {
	t.Setenv("SPORTMONKS_TOKEN", "sm-token")
	t.Setenv("SPORTMONKS_LEAGUE_IDS", "8, 564,384")
	t.Setenv("SPORTMONKS_LOOKAHEAD", "36h")
	t.Setenv("SPORTMONKS_CIRCUIT_FAILURE_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.SportMonksLeagueIDs) != 3 || cfg.SportMonksLeagueIDs[1] != 564 {
		t.Fatalf("unexpected league ids: %v", cfg.SportMonksLeagueIDs)
	}
	if cfg.SportMonksLookahead != 36*time.Hour {
		t.Fatalf("unexpected lookahead: %s", cfg.SportMonksLookahead)
	}
	if cfg.SportMonksCircuit.FailureThreshold != 3 {
		t.Fatalf("unexpected circuit: %+v", cfg.SportMonksCircuit)
	}

	t.Setenv("SPORTMONKS_LEAGUE_IDS", "8,premier")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric league id")
	}
}

func TestLoad_QStashRequiresTargetAndJobToken(t *testing.T) {
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "qstash-token")
	t.Setenv("QSTASH_TARGET_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_TARGET_BASE_URL is missing")
	}

	t.Setenv("QSTASH_TARGET_BASE_URL", "https://tipster.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when INTERNAL_JOB_TOKEN is missing")
	}

	t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.QStashEnabled || cfg.QStashRetries != 3 {
		t.Fatalf("unexpected qstash config: %+v", cfg)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@api.uptrace.dev/1"`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected dsn %q", cfg.UptraceDSN)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_SERVICE_NAME", "tipster-worker")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "tipster-worker" {
		t.Fatalf("unexpected PyroscopeAppName: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_InvalidBoolean(t *testing.T) {
	t.Setenv("SCHEDULER_AUTO_START", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid boolean")
	}
}

func TestConfig_RequireDelivery(t *testing.T) {
	t.Parallel()

	cfg := Config{TelegramBotToken: "bot", TelegramChannel: "@tips"}
	if err := cfg.RequireDelivery(); err == nil {
		t.Fatalf("expected error without SPORTMONKS_TOKEN")
	}
	cfg.SportMonksToken = "sm"
	if err := cfg.RequireDelivery(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
