// Package config loads and validates bunprodict configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Build     BuildConfig     `mapstructure:"build"`
	Publish   PublishConfig   `mapstructure:"publish"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ScrapeConfig governs target planning and request pacing.
type ScrapeConfig struct {
	PointsFile       string        `mapstructure:"points_file" validate:"required"`
	Levels           []string      `mapstructure:"levels" validate:"min=1,dive,oneof=N0 N1 N2 N3 N4 N5"`
	BaseURL          string        `mapstructure:"base_url" validate:"required,url"`
	UserAgent        string        `mapstructure:"user_agent" validate:"required"`
	MinDelay         time.Duration `mapstructure:"min_delay" validate:"gte=0s"`
	Budget           time.Duration `mapstructure:"budget" validate:"gte=0s"`
	Deadline         string        `mapstructure:"deadline"`
	SessionThreshold time.Duration `mapstructure:"session_threshold" validate:"gt=0s"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" validate:"gt=0s"`
	// Seed makes the sleep plan reproducible. Zero means a fresh random source per run.
	Seed uint64 `mapstructure:"seed"`
}

// StorageConfig locates the scraped page directory.
type StorageConfig struct {
	PagesDir string `mapstructure:"pages_dir" validate:"required"`
}

// BuildConfig controls dictionary output.
type BuildConfig struct {
	OutputDir   string `mapstructure:"output_dir" validate:"required"`
	ArchivePath string `mapstructure:"archive_path" validate:"required"`
	CSVPath     string `mapstructure:"csv_path"`
	Shards      int    `mapstructure:"shards" validate:"gt=0"`
	Title       string `mapstructure:"title" validate:"required"`
	Revision    string `mapstructure:"revision" validate:"required"`
}

// PublishConfig points at an optional GCS destination for the archive.
type PublishConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// LoggingConfig selects the persisted warning sink and console verbosity.
type LoggingConfig struct {
	ErrorFile   string `mapstructure:"error_file"`
	Development bool   `mapstructure:"development"`
}

// MetricsConfig enables writing Prometheus metrics to a textfile on exit.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// TelemetryConfig enables span export.
type TelemetryConfig struct {
	// TraceFile receives spans as JSON lines. Empty drops spans.
	TraceFile string `mapstructure:"trace_file"`
}

const deadlineLayout = "15:04:05"

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BUNPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	for i, level := range cfg.Scrape.Levels {
		cfg.Scrape.Levels[i] = strings.ToUpper(strings.TrimSpace(level))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scrape.points_file", "grammar_points.json")
	v.SetDefault("scrape.levels", []string{"N5"})
	v.SetDefault("scrape.base_url", "https://bunpro.jp/grammar_points/")
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	v.SetDefault("scrape.min_delay", "2s")
	v.SetDefault("scrape.budget", "0s")
	v.SetDefault("scrape.deadline", "22:59:59")
	v.SetDefault("scrape.session_threshold", "10s")
	v.SetDefault("scrape.request_timeout", "10s")
	v.SetDefault("scrape.seed", 0)
	v.SetDefault("storage.pages_dir", "grammar_pages")
	v.SetDefault("build.output_dir", "dictionary_files")
	v.SetDefault("build.archive_path", "bunpro_dict.zip")
	v.SetDefault("build.csv_path", "")
	v.SetDefault("build.shards", 4)
	v.SetDefault("build.title", "Bunpro Grammar")
	v.SetDefault("build.revision", "bunpro_1")
	v.SetDefault("publish.gcs_bucket", "")
	v.SetDefault("publish.prefix", "dictionaries")
	v.SetDefault("logging.error_file", "scraping_errors.log")
	v.SetDefault("logging.development", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("telemetry.trace_file", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Scrape.Budget == 0 {
		if _, err := time.Parse(deadlineLayout, c.Scrape.Deadline); err != nil {
			return fmt.Errorf("scrape.deadline must be HH:MM:SS when scrape.budget is unset: %w", err)
		}
	}
	return nil
}

// DeadlineOn resolves the configured clock-time deadline on the same day as now.
func (s ScrapeConfig) DeadlineOn(now time.Time) (time.Time, error) {
	clock, err := time.Parse(deadlineLayout, s.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scrape.deadline: %w", err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location()), nil
}
