package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "CONTRACT_TRACKER_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "LOG_LEVEL"
	contractsAPIEnv   = "CONTRACTS_API_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	// SourceKindAPI pulls contracts from the JSON contracts API.
	SourceKindAPI = "api"
	// SourceKindHTML parses an HTML register export (file path or URL).
	SourceKindHTML = "html"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Dashboard     DashboardConfig    `yaml:"dashboard"`
	API           APIConfig          `yaml:"api"`
	Sources       []SourceConfig     `yaml:"sources"`
	Machines      []MachineConfig    `yaml:"machines"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// DatabaseConfig selects the SQL driver and its connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig sets the slog level ("debug", "info", "warn", "error").
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines how often the digest runs and in which timezone
// "today" is evaluated.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// DashboardConfig tunes the planning views.
type DashboardConfig struct {
	WindowDays int `yaml:"windowDays"`
}

// APIConfig points at the upstream contracts API.
type APIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// SourceConfig describes one contract source and the loader that reads it.
// An api source without URL uses API.BaseURL.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Kind    string            `yaml:"kind"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// MachineConfig is the machine reference data synced into the store.
type MachineConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Room string `yaml:"room"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIURL   string `yaml:"apiUrl"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration from path, or from CONTRACT_TRACKER_CONFIG when
// path is empty, and applies environment overrides.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Kind == SourceKindAPI && cfg.Sources[i].URL == "" {
			cfg.Sources[i].URL = cfg.API.BaseURL
		}
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(contractsAPIEnv); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Dashboard.WindowDays > 0 {
		base.Dashboard.WindowDays = override.Dashboard.WindowDays
	}

	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.Token != "" {
		base.API.Token = override.API.Token
	}
	if override.API.Timeout > 0 {
		base.API.Timeout = override.API.Timeout
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Machines) > 0 {
		base.Machines = override.Machines
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIURL != "" {
		base.Notifications.Telegram.APIURL = override.Notifications.Telegram.APIURL
	}

	return base
}

// String renders the non-secret parts of the configuration for debug logs.
func (c Config) String() string {
	return "driver=" + c.Database.Driver +
		" level=" + c.Logging.Level +
		" interval=" + c.Scheduler.Interval.String() +
		" tz=" + c.Scheduler.Location().String() +
		" window=" + strconv.Itoa(c.Dashboard.WindowDays) +
		" sources=" + strconv.Itoa(len(c.Sources)) +
		" machines=" + strconv.Itoa(len(c.Machines))
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "file:contracttracker.db"},
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Interval: 24 * time.Hour, Timezone: defaultTimezone, location: tz},
		Dashboard: DashboardConfig{WindowDays: 14},
		API:       APIConfig{BaseURL: "http://localhost:3000/api", Timeout: 10 * time.Second},
		Sources: []SourceConfig{
			{Name: "contracts-api", Kind: SourceKindAPI},
		},
		Machines: []MachineConfig{
			{ID: "sachet-1", Name: "Sachet Line 1", Room: "Square Sachet Room"},
			{ID: "sachet-2", Name: "Sachet Line 2", Room: "Square Sachet Room"},
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
		},
	}
}
