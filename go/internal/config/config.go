package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/wheelround/go/internal/round/period"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the service configuration. Values come from the YAML file first
// and environment variables override them.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	NATS    NATSConfig    `yaml:"nats"`
	Storage StorageConfig `yaml:"storage"`
}

type GameConfig struct {
	WindowStart          string        `yaml:"window_start"`
	WindowEnd            string        `yaml:"window_end"`
	Timezone             string        `yaml:"timezone"`
	DisplayTimezone      string        `yaml:"display_timezone"`
	RoundDurationSeconds int           `yaml:"round_duration_seconds"`
	TickInterval         time.Duration `yaml:"tick_interval"`
	PersistTimeout       time.Duration `yaml:"persist_timeout"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	RequireSocketToken bool          `yaml:"require_socket_token"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Game: GameConfig{
			WindowStart:          "03:30",
			WindowEnd:            "15:32",
			Timezone:             "UTC",
			DisplayTimezone:      "Asia/Kolkata",
			RoundDurationSeconds: 60,
			TickInterval:         time.Second,
			PersistTimeout:       10 * time.Second,
		},
		Server: ServerConfig{
			Port:      "8000",
			StaticDir: "public",
		},
		Auth: AuthConfig{
			TokenTTL: 12 * time.Hour,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			StreamName:    "WHEELROUND_EVENTS",
			SubjectPrefix: "wheelround.events",
		},
		Storage: StorageConfig{
			Driver:     DriverPostgres,
			SQLitePath: "wheelround.db",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Game.WindowStart, "WINDOW_START")
	setString(&c.Game.WindowEnd, "WINDOW_END")
	setString(&c.Game.Timezone, "TIMEZONE")
	setString(&c.Game.DisplayTimezone, "DISPLAY_TIMEZONE")
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.StaticDir, "STATIC_DIR")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.NATS.URL, "NATS_URL")
	setString(&c.Storage.Driver, "DB_DRIVER")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")

	if err := setInt(&c.Game.RoundDurationSeconds, "ROUND_DURATION_SECONDS"); err != nil {
		return err
	}
	for key, dst := range map[string]*time.Duration{
		"TICK_INTERVAL":   &c.Game.TickInterval,
		"PERSIST_TIMEOUT": &c.Game.PersistTimeout,
		"JWT_TTL":         &c.Auth.TokenTTL,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*bool{
		"NATS_ENABLED":         &c.NATS.Enabled,
		"REQUIRE_SOCKET_TOKEN": &c.Auth.RequireSocketToken,
	} {
		if err := setBool(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks values that would otherwise fail later during wiring.
func (c Config) Validate() error {
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.Game.RoundDurationSeconds <= 0 {
		return fmt.Errorf("round_duration_seconds must be positive, got %d", c.Game.RoundDurationSeconds)
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.Game.TickInterval)
	}
	if c.Game.PersistTimeout <= 0 {
		return fmt.Errorf("persist_timeout must be positive, got %s", c.Game.PersistTimeout)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	switch c.Storage.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Window builds the operating window from the game settings.
func (c Config) Window() (period.Window, error) {
	start, err := period.ParseClock(c.Game.WindowStart)
	if err != nil {
		return period.Window{}, fmt.Errorf("window_start: %w", err)
	}
	end, err := period.ParseClock(c.Game.WindowEnd)
	if err != nil {
		return period.Window{}, fmt.Errorf("window_end: %w", err)
	}
	loc, err := time.LoadLocation(c.Game.Timezone)
	if err != nil {
		return period.Window{}, fmt.Errorf("timezone: %w", err)
	}
	display := loc
	if c.Game.DisplayTimezone != "" {
		if display, err = time.LoadLocation(c.Game.DisplayTimezone); err != nil {
			return period.Window{}, fmt.Errorf("display_timezone: %w", err)
		}
	}

	w := period.Window{Start: start, End: end, Location: loc, DisplayLocation: display}
	if err := w.Validate(); err != nil {
		return period.Window{}, err
	}
	return w, nil
}

// RoundDuration returns the configured round length.
func (c Config) RoundDuration() time.Duration {
	return time.Duration(c.Game.RoundDurationSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}
