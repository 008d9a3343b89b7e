package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/tidy-app/tidy/pkg/types"
)

// Config is the run-level configuration for a scan/rename session.
// Values come from a YAML file, overridden by CLI flags.
type Config struct {
	Source            string                 `yaml:"source" json:"source"`
	Recursive         bool                   `yaml:"recursive" json:"recursive"`
	IncludeHidden     bool                   `yaml:"include_hidden" json:"include_hidden"`
	IncludeExtensions []string               `yaml:"include_extensions" json:"include_extensions"`
	Jobs              int                    `yaml:"jobs" json:"jobs"`
	Template          string                 `yaml:"template" json:"template"`
	FolderPattern     string                 `yaml:"folder_pattern" json:"folder_pattern"`
	BaseDirectory     string                 `yaml:"base_directory" json:"base_directory"`
	PriorityMode      types.RulePriorityMode `yaml:"priority_mode" json:"priority_mode"`
	AppConfigFile     string                 `yaml:"app_config_file" json:"app_config_file"`
	HistoryFile       string                 `yaml:"history_file" json:"history_file"`
	LogFile           string                 `yaml:"log_file" json:"log_file"`
	LogJSON           bool                   `yaml:"log_json" json:"log_json"`
	DryRun            bool                   `yaml:"dry_run" json:"dry_run"`
}

// DataDir is where run-level state (history, logs, presets) lives.
func DataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tidy")
}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	dataDir := DataDir()

	return &Config{
		Recursive:    true,
		Jobs:         jobs,
		PriorityMode: types.PriorityCombined,
		HistoryFile:  filepath.Join(dataDir, "history.json"),
		LogFile:      filepath.Join(dataDir, "tidy.log"),
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source == "" {
		return &ValidationError{Field: "source", Message: "source path is required"}
	}
	if c.Jobs < 1 {
		c.Jobs = 1
	}

	switch c.PriorityMode {
	case "":
		c.PriorityMode = types.PriorityCombined
	case types.PriorityCombined, types.PriorityMetadataFirst, types.PriorityFilenameFirst:
	default:
		return &ValidationError{Field: "priority_mode", Message: "unknown priority mode: " + string(c.PriorityMode)}
	}

	dataDir := DataDir()
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(dataDir, "history.json")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataDir, "tidy.log")
	}

	return nil
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
