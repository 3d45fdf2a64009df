// Package conf loads autoprogcomp configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then a
// .env file, then environment variables with the APC_ prefix
// (for example APC_CF_API_KEY or APC_SHEET_NAME).
package conf

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const envPrefix = "APC"

type Config struct {
	Codeforces CodeforcesConfig `toml:"codeforces" ignored:"true"`
	Sheet      SheetConfig      `toml:"sheet" ignored:"true"`
	Schedule   ScheduleConfig   `toml:"schedule" ignored:"true"`
	Archive    ArchiveConfig    `toml:"archive" ignored:"true"`
	Log        LogConfig        `toml:"log" ignored:"true"`
	Server     ServerConfig     `toml:"server" ignored:"true"`

	// TimeZone is an IANA zone name used for instants without an explicit offset.
	TimeZone string `toml:"timezone" envconfig:"TIMEZONE"`
}

type CodeforcesConfig struct {
	BaseURL    string   `toml:"base_url" envconfig:"CF_BASE_URL"`
	APIKey     string   `toml:"api_key" envconfig:"CF_API_KEY"`
	Secret     string   `toml:"secret" envconfig:"CF_SECRET"`
	Cooldown   Duration `toml:"cooldown" envconfig:"CF_COOLDOWN"`
	MaxRetries int      `toml:"max_retries" envconfig:"CF_MAX_RETRIES"`
	RetryDelay Duration `toml:"retry_delay" envconfig:"CF_RETRY_DELAY"`
}

type SheetConfig struct {
	// Backend is "google" or "csv".
	Backend         string `toml:"backend" envconfig:"SHEET_BACKEND"`
	SpreadsheetID   string `toml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Name            string `toml:"name" envconfig:"SHEET_NAME"`
	CredentialsFile string `toml:"credentials_file" envconfig:"SHEET_CREDENTIALS_FILE"`
	CSVPath         string `toml:"csv_path" envconfig:"SHEET_CSV_PATH"`
}

type ScheduleConfig struct {
	// Hour of day to run at; negative means every hour.
	Hour   int `toml:"hour" envconfig:"SCHEDULE_HOUR"`
	Minute int `toml:"minute" envconfig:"SCHEDULE_MINUTE"`
}

type ArchiveConfig struct {
	// Backend is "none", "dir" or "s3".
	Backend   string `toml:"backend" envconfig:"ARCHIVE_BACKEND"`
	Dir       string `toml:"dir" envconfig:"ARCHIVE_DIR"`
	S3Region  string `toml:"s3_region" envconfig:"ARCHIVE_S3_REGION"`
	S3Bucket  string `toml:"s3_bucket" envconfig:"ARCHIVE_S3_BUCKET"`
	S3Prefix  string `toml:"s3_prefix" envconfig:"ARCHIVE_S3_PREFIX"`
	ReplayRun string `toml:"replay_run" envconfig:"ARCHIVE_REPLAY_RUN"`
}

type LogConfig struct {
	Level string `toml:"level" envconfig:"LOG_LEVEL"`
	File  string `toml:"file" envconfig:"LOG_FILE"`
}

type ServerConfig struct {
	Address        string   `toml:"address" envconfig:"SERVER_ADDRESS"`
	Token          string   `toml:"token" envconfig:"SERVER_TOKEN"`
	AllowedOrigins []string `toml:"allowed_origins" envconfig:"SERVER_ALLOWED_ORIGINS"`
}

// Duration is a time.Duration that decodes from strings like "2s" in both TOML and env vars.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		Codeforces: CodeforcesConfig{
			BaseURL:    "https://codeforces.com/api",
			Cooldown:   Duration{2 * time.Second},
			MaxRetries: 4,
			RetryDelay: Duration{20 * time.Second},
		},
		Sheet: SheetConfig{
			Backend:         "google",
			CredentialsFile: "./config/credentials.json",
		},
		Schedule: ScheduleConfig{Hour: -1, Minute: 0},
		Archive:  ArchiveConfig{Backend: "none"},
		Log:      LogConfig{Level: "info"},
		Server:   ServerConfig{Address: ":8080"},
		TimeZone: "UTC",
	}
}

// Load reads configuration. tomlPath may be empty; a missing .env file is not an error.
func Load(tomlPath string) (*Config, error) {
	cfg := Default()

	if tomlPath != "" {
		content, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", tomlPath, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	sections := []struct {
		name   string
		target any
	}{
		{"codeforces", &cfg.Codeforces},
		{"sheet", &cfg.Sheet},
		{"schedule", &cfg.Schedule},
		{"archive", &cfg.Archive},
		{"log", &cfg.Log},
		{"server", &cfg.Server},
		{"root", cfg},
	}
	for _, s := range sections {
		if err := envconfig.Process(envPrefix, s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or invalid variable at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Sheet.Backend {
	case "google":
		if c.Sheet.SpreadsheetID == "" {
			errs = append(errs, errors.New("missing variable 'APC_SPREADSHEET_ID'"))
		}
		if c.Sheet.Name == "" {
			errs = append(errs, errors.New("missing variable 'APC_SHEET_NAME'"))
		}
	case "csv":
		if c.Sheet.CSVPath == "" {
			errs = append(errs, errors.New("missing variable 'APC_SHEET_CSV_PATH'"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_SHEET_BACKEND': %q", c.Sheet.Backend))
	}
	switch c.Archive.Backend {
	case "none", "":
		if c.Archive.ReplayRun != "" {
			errs = append(errs, errors.New("replaying a run requires an archive backend"))
		}
	case "dir":
		if c.Archive.Dir == "" {
			errs = append(errs, errors.New("missing variable 'APC_ARCHIVE_DIR'"))
		}
	case "s3":
		if c.Archive.S3Bucket == "" || c.Archive.S3Region == "" {
			errs = append(errs, errors.New("missing variable 'APC_ARCHIVE_S3_BUCKET' or 'APC_ARCHIVE_S3_REGION'"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_ARCHIVE_BACKEND': %q", c.Archive.Backend))
	}
	if c.Schedule.Hour > 23 {
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_SCHEDULE_HOUR': %d", c.Schedule.Hour))
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_SCHEDULE_MINUTE': %d", c.Schedule.Minute))
	}
	if c.Codeforces.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_CF_MAX_RETRIES': %d", c.Codeforces.MaxRetries))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("invalid value for variable 'APC_TIMEZONE': %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors parsing configuration (maybe complete your .env file?):\n%w", errors.Join(errs...))
	}
	return nil
}

// Location returns the configured time zone. Call Validate first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
