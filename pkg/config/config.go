// Package config loads pipeline and server settings from an optional YAML
// file with CLICKSTREAM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "CLICKSTREAM"

type Config struct {
	Paths      PathsConfig      `mapstructure:"paths"`
	DuckDB     DuckDBConfig     `mapstructure:"duckdb"`
	Experiment ExperimentConfig `mapstructure:"experiment"`
	Server     ServerConfig     `mapstructure:"server"`
	Report     ReportConfig     `mapstructure:"report"`
}

type PathsConfig struct {
	// Raw is a local path or an s3://bucket/key URI.
	Raw             string `mapstructure:"raw"`
	ProcessedDir    string `mapstructure:"processed_dir"`
	OutputsDir      string `mapstructure:"outputs_dir"`
	CategorySummary string `mapstructure:"category_summary"`
	CohortTable     string `mapstructure:"cohort_table"`
}

type DuckDBConfig struct {
	Path string `mapstructure:"path"`
}

type ExperimentConfig struct {
	Alpha float64 `mapstructure:"alpha"`
	Seed  uint64  `mapstructure:"seed"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ReportConfig struct {
	TopCategories int `mapstructure:"top_categories"`
}

var defaults = map[string]interface{}{
	"paths.raw":              "data/raw/events.csv",
	"paths.processed_dir":    "data/processed",
	"paths.outputs_dir":      "outputs",
	"paths.category_summary": "data/processed/category_summary.csv",
	"paths.cohort_table":     "data/processed/cohort_table.csv",
	"duckdb.path":            "data/clickstream.duckdb",
	"experiment.alpha":       0.05,
	"experiment.seed":        42,
	"server.host":            "localhost",
	"server.port":            8080,
	"report.top_categories":  10,
}

// Load reads the YAML file at path when one is given, then applies
// environment overrides such as CLICKSTREAM_DUCKDB_PATH.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.Raw == "" {
		return errors.New("config: paths.raw must be set")
	}
	if c.Paths.ProcessedDir == "" || c.Paths.OutputsDir == "" {
		return errors.New("config: paths.processed_dir and paths.outputs_dir must be set")
	}
	if c.Experiment.Alpha <= 0 || c.Experiment.Alpha >= 1 {
		return fmt.Errorf("config: experiment.alpha must be in (0, 1), got %v", c.Experiment.Alpha)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	if c.Report.TopCategories <= 0 {
		return errors.New("config: report.top_categories must be positive")
	}
	return nil
}
