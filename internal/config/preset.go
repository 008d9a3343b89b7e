package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

// Preset is a named, saved run configuration.
type Preset struct {
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	Source            string                 `json:"source"`
	Recursive         bool                   `json:"recursive"`
	IncludeHidden     bool                   `json:"include_hidden"`
	IncludeExtensions []string               `json:"include_extensions"`
	Jobs              int                    `json:"jobs"`
	Template          string                 `json:"template"`
	FolderPattern     string                 `json:"folder_pattern"`
	BaseDirectory     string                 `json:"base_directory"`
	PriorityMode      types.RulePriorityMode `json:"priority_mode"`
	DryRun            bool                   `json:"dry_run"`
	CreatedAt         time.Time              `json:"created_at"`
}

// PresetManager manages saved run-configuration presets.
type PresetManager struct {
	presetsDir string
}

// NewPresetManager creates a preset manager under the data dir.
func NewPresetManager() (*PresetManager, error) {
	presetsDir := filepath.Join(DataDir(), "presets")
	if err := os.MkdirAll(presetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}

	return &PresetManager{presetsDir: presetsDir}, nil
}

// ConfigToPreset converts a Config to a named Preset.
func ConfigToPreset(cfg *Config, name, description string) *Preset {
	return &Preset{
		Name:              name,
		Description:       description,
		Source:            cfg.Source,
		Recursive:         cfg.Recursive,
		IncludeHidden:     cfg.IncludeHidden,
		IncludeExtensions: cfg.IncludeExtensions,
		Jobs:              cfg.Jobs,
		Template:          cfg.Template,
		FolderPattern:     cfg.FolderPattern,
		BaseDirectory:     cfg.BaseDirectory,
		PriorityMode:      cfg.PriorityMode,
		DryRun:            cfg.DryRun,
		CreatedAt:         time.Now(),
	}
}

// PresetToConfig converts a Preset back to a Config.
func PresetToConfig(preset *Preset) *Config {
	cfg := DefaultConfig()
	cfg.Source = preset.Source
	cfg.Recursive = preset.Recursive
	cfg.IncludeHidden = preset.IncludeHidden
	cfg.IncludeExtensions = preset.IncludeExtensions
	cfg.Jobs = preset.Jobs
	cfg.Template = preset.Template
	cfg.FolderPattern = preset.FolderPattern
	cfg.BaseDirectory = preset.BaseDirectory
	cfg.PriorityMode = preset.PriorityMode
	cfg.DryRun = preset.DryRun
	return cfg
}

// SavePreset saves a preset to disk.
func (pm *PresetManager) SavePreset(preset *Preset) error {
	if preset.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}

	filename := filepath.Join(pm.presetsDir, preset.Name+".json")
	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	return nil
}

// LoadPreset loads a preset from disk.
func (pm *PresetManager) LoadPreset(name string) (*Preset, error) {
	filename := filepath.Join(pm.presetsDir, name+".json")
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	return &preset, nil
}

// DeletePreset deletes a preset from disk.
func (pm *PresetManager) DeletePreset(name string) error {
	filename := filepath.Join(pm.presetsDir, name+".json")
	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete preset file: %w", err)
	}
	return nil
}

// ListPresets lists all available presets.
func (pm *PresetManager) ListPresets() ([]Preset, error) {
	entries, err := os.ReadDir(pm.presetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	var presets []Preset
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := entry.Name()[:len(entry.Name())-5] // Remove ".json"
		preset, err := pm.LoadPreset(name)
		if err != nil {
			continue // Skip invalid presets
		}
		presets = append(presets, *preset)
	}

	return presets, nil
}
