package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Resolver ResolverConfig `yaml:"resolver" envconfig:"RESOLVER"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/nexus.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR" default:"data"`
	RawDir          string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	ProcessedDir    string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	ClassifiersFile string `yaml:"classifiers_file" envconfig:"CLASSIFIERS_FILE" default:"country classifiers.csv"`
}

// ResolverConfig configures the country name to ISO3 resolver client
type ResolverConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://api.worldbank.org/v2" validate:"url"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" default:"10"`
}

// ExportConfig configures output artifacts
type ExportConfig struct {
	// RawTables additionally writes the per-source raw tables
	// (pefa, taxwb) next to the merged nexus table
	RawTables bool `yaml:"raw_tables" envconfig:"RAW_TABLES" default:"false"`

	// ParquetParallelism is passed straight to the parquet writer
	ParquetParallelism int64 `yaml:"parquet_parallelism" envconfig:"PARQUET_PARALLELISM" default:"4" validate:"min=1"`
}

// Load loads configuration from environment variables and an optional
// YAML file (NEXUS_CONFIG_FILE, falling back to nexus.yml in the working
// directory). Environment variables take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("NEXUS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := os.Getenv("NEXUS_CONFIG_FILE")
	if configFile == "" {
		configFile = "nexus.yml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := mergeFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mergeFromFile overlays file values onto cfg for fields the environment
// left empty
func mergeFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}

	if cfg.Paths.RawDir == "" {
		cfg.Paths.RawDir = fileCfg.Paths.RawDir
	}
	if cfg.Paths.ProcessedDir == "" {
		cfg.Paths.ProcessedDir = fileCfg.Paths.ProcessedDir
	}
	if fileCfg.Paths.ClassifiersFile != "" {
		cfg.Paths.ClassifiersFile = fileCfg.Paths.ClassifiersFile
	}
	if fileCfg.Logging.Level != "" {
		cfg.Logging.Level = fileCfg.Logging.Level
	}
	if fileCfg.Logging.Format != "" {
		cfg.Logging.Format = fileCfg.Logging.Format
	}
	if fileCfg.Logging.FilePath != "" {
		cfg.Logging.FilePath = fileCfg.Logging.FilePath
	}
	if fileCfg.Resolver.BaseURL != "" {
		cfg.Resolver.BaseURL = fileCfg.Resolver.BaseURL
	}
	if fileCfg.Export.RawTables {
		cfg.Export.RawTables = true
	}

	return nil
}

// Validate checks the configuration using struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Resolver.RequestsPerSecond <= 0 {
		return fmt.Errorf("resolver requests_per_second must be positive, got %v", c.Resolver.RequestsPerSecond)
	}
	return nil
}
