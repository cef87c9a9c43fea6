package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// ErrMissingRequired is returned by Validate when a required variable is unset.
var ErrMissingRequired = errors.New("missing required environment variables")

// EmptyFilterPolicy decides what an empty LOCATION_FILTER means.
type EmptyFilterPolicy string

const (
	// RejectAll drops every listing when no filter term is configured.
	RejectAll EmptyFilterPolicy = "reject"
	// AcceptAll disables location filtering when no filter term is configured.
	AcceptAll EmptyFilterPolicy = "accept"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TargetURL string

	TelegramToken  string
	TelegramAPIURL string
	ChatIDs        []string

	IntervalHours     int
	LocationFilter    []string
	EmptyFilterPolicy EmptyFilterPolicy

	ApartmentsFile string
	LogsFile       string
	MaxLogEntries  int
	Timezone       string

	ChromeBin       string
	FetchTimeout    time.Duration
	SelectorTimeout time.Duration
	ScreenshotPath  string

	NotifyMaxRetries int
	NotifyRatePerSec int

	PostgresDSN string
	MetricsAddr string

	LogLevel string
	LogColor bool
}

// Load reads ./.env when present and returns a populated Config struct.
// It does not validate; call Validate before running a cycle.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return fromEnv()
}

// LoadFile reads the env file at path, which must exist, then builds the
// Config like Load.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("config: load env file %q: %w", path, err)
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		TargetURL: strings.TrimSpace(os.Getenv("OLX_URL")),

		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramAPIURL: getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		ChatIDs:        splitList(os.Getenv("TELEGRAM_CHAT_IDS")),

		IntervalHours:     getEnvPositiveInt("CRON_INTERVAL_HOURS", 1),
		LocationFilter:    splitList(os.Getenv("LOCATION_FILTER")),
		EmptyFilterPolicy: EmptyFilterPolicy(strings.ToLower(getEnv("LOCATION_FILTER_EMPTY", string(RejectAll)))),

		ApartmentsFile: getEnv("APARTMENTS_FILE", filepath.Join(dataDir, "apartments.json")),
		LogsFile:       getEnv("LOGS_FILE", filepath.Join(dataDir, "logs.json")),
		MaxLogEntries:  getEnvPositiveInt("MAX_LOG_ENTRIES", 500),
		Timezone:       getEnv("TIMEZONE", "America/Sao_Paulo"),

		ChromeBin:       getEnv("CHROME_BIN", ""),
		FetchTimeout:    time.Duration(getEnvPositiveInt("FETCH_TIMEOUT_SECONDS", 60)) * time.Second,
		SelectorTimeout: time.Duration(getEnvPositiveInt("SELECTOR_TIMEOUT_SECONDS", 10)) * time.Second,
		ScreenshotPath:  getEnv("SCREENSHOT_PATH", ""),

		NotifyMaxRetries: getEnvPositiveInt("NOTIFY_MAX_RETRIES", 1),
		NotifyRatePerSec: getEnvPositiveInt("NOTIFY_RATE_PER_SEC", 20),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogColor: getEnvBool("LOG_COLOR", true),
	}
}

// Validate checks that every required option is present and that enumerated
// options hold known values.
func (c *Config) Validate() error {
	var missing []string
	if c.TargetURL == "" {
		missing = append(missing, "OLX_URL")
	}
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if len(c.ChatIDs) == 0 {
		missing = append(missing, "TELEGRAM_CHAT_IDS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	switch c.EmptyFilterPolicy {
	case RejectAll, AcceptAll:
	default:
		return fmt.Errorf("config: LOCATION_FILTER_EMPTY must be %q or %q, got %q",
			RejectAll, AcceptAll, c.EmptyFilterPolicy)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Interval is the polling period between scheduled cycles.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// CronSpec fires at minute 0 of every IntervalHours-th hour.
func (c *Config) CronSpec() string {
	return fmt.Sprintf("0 */%d * * *", c.IntervalHours)
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvPositiveInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}

// splitList splits a comma-separated value, trimming items and dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
