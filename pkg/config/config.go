package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = ":5001"
	DefaultReportEvery = 100
)

type ExperimentConfig struct {
	Name        string          `yaml:"name"`
	Algorithm   AlgorithmConfig `yaml:"algorithm"`
	Environment EnvConfig       `yaml:"environment"`
	Episodes    int             `yaml:"episodes"`
	ReportEvery int             `yaml:"report_every"`
	Playback    bool            `yaml:"playback"`
	ChartPath   string          `yaml:"chart_path"`
	HistoryPath string          `yaml:"history_path"`
	Logging     LogConfig       `yaml:"logging"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AlgorithmConfig struct {
	Name       string             `yaml:"name"`
	Parameters map[string]float64 `yaml:"parameters"`
}

type EnvConfig struct {
	Name string `yaml:"name"`
	Seed *int64 `yaml:"seed"`
}

// LoadConfig reads a yaml experiment file, applies defaults and validates it
func LoadConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*ExperimentConfig, error) {
	var cfg ExperimentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ExperimentConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = fmt.Sprintf("%s-%s", c.Algorithm.Name, c.Environment.Name)
	}
	if c.ReportEvery == 0 {
		c.ReportEvery = DefaultReportEvery
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the fields that cannot be defaulted. Algorithm and
// environment names are checked later against their registries.
func (c *ExperimentConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Algorithm.Name) == "" {
		errs = append(errs, errors.New("algorithm.name is required"))
	}
	if strings.TrimSpace(c.Environment.Name) == "" {
		errs = append(errs, errors.New("environment.name is required"))
	}
	if c.Episodes < 1 {
		errs = append(errs, fmt.Errorf("episodes must be positive, got %d", c.Episodes))
	}
	if c.ReportEvery < 1 {
		errs = append(errs, fmt.Errorf("report_every must be positive, got %d", c.ReportEvery))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ServerConfig is read from the process environment
type ServerConfig struct {
	Addr        string
	HistoryPath string
	Logging     LogConfig
}

// LoadServerConfig reads RLPLAY_* variables. Call godotenv first to pick up .env files.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Addr:        getenv("RLPLAY_ADDR", DefaultAddr),
		HistoryPath: os.Getenv("RLPLAY_HISTORY_DB"),
		Logging: LogConfig{
			Level:  getenv("RLPLAY_LOG_LEVEL", "info"),
			Format: getenv("RLPLAY_LOG_FORMAT", "text"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
