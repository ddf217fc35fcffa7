// Package config loads and validates the chronicle configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Server     ServerConfig     `yaml:"server"`
	Events     EventsConfig     `yaml:"events"`
	Compaction CompactionConfig `yaml:"compaction"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatasetConfig describes where and how records are stored.
type DatasetConfig struct {
	Name   string   `yaml:"name"`
	Path   string   `yaml:"path"`
	Driver string   `yaml:"driver"`          // "file" or "sqlite"
	Index  string   `yaml:"index,omitempty"` // "none", "time", "all-tags", "selected-tags"
	Tags   []string `yaml:"tags,omitempty"`  // only for index: selected-tags
	Watch  bool     `yaml:"watch,omitempty"` // reload when another process appends to the journal
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen  string `yaml:"listen"`
	Metrics bool   `yaml:"metrics"`
}

// EventsConfig configures change event publishing.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// CompactionConfig configures scheduled journal compaction.
type CompactionConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text, json
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists. Missing files are fine.
	_ = godotenv.Load(".env", ".env.local")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Dataset.Name == "" {
		c.Dataset.Name = "default"
	}
	if c.Dataset.Driver == "" {
		c.Dataset.Driver = "file"
	}
	if c.Dataset.Path == "" {
		switch c.Dataset.Driver {
		case "sqlite":
			c.Dataset.Path = "chronicle.db"
		default:
			c.Dataset.Path = "chronicle.json"
		}
	}
	if c.Dataset.Index == "" {
		c.Dataset.Index = "time"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8123"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "chronicle." + c.Dataset.Name
	}
	if c.Events.NATSURL == "" {
		c.Events.NATSURL = "nats://localhost:4222"
	}
	if c.Compaction.Interval == 0 {
		c.Compaction.Interval = time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate rejects configurations that cannot be acted on.
func (c *Config) Validate() error {
	switch c.Dataset.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unsupported dataset driver %q (want file or sqlite)", c.Dataset.Driver)
	}

	switch c.Dataset.Index {
	case "none", "time", "all-tags":
		if len(c.Dataset.Tags) > 0 {
			return fmt.Errorf("dataset tags are only valid with index: selected-tags")
		}
	case "selected-tags":
		if len(c.Dataset.Tags) == 0 {
			return fmt.Errorf("index selected-tags requires a non-empty dataset tags list")
		}
	default:
		return fmt.Errorf("unsupported index mode %q (want none, time, all-tags or selected-tags)", c.Dataset.Index)
	}

	if c.Dataset.Watch && c.Dataset.Driver != "file" {
		return fmt.Errorf("dataset watch requires the file driver")
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events enabled but nats_url is empty")
	}

	if c.Compaction.Enabled && c.Compaction.Interval < time.Minute {
		return fmt.Errorf("compaction interval %s too short (minimum 1m)", c.Compaction.Interval)
	}

	return nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Dataset: DatasetConfig{
			Name:   "trips",
			Path:   "trips.json",
			Driver: "file",
			Index:  "time",
		},
		Server: ServerConfig{
			Listen:  ":8123",
			Metrics: true,
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://localhost:4222",
			Subject: "chronicle.trips",
		},
		Compaction: CompactionConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
