package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/pkg/types"
)

const appConfigVersion = 1

// Timestamp stamped onto the built-in templates and folder structures.
const defaultTimestamp = "2024-01-01T00:00:00Z"

const maxRecentFolders = 100

// Preferences holds user-facing behavior switches.
type Preferences struct {
	DefaultOutputFormat string                 `json:"defaultOutputFormat"`
	ConfirmBeforeApply  bool                   `json:"confirmBeforeApply"`
	RecursiveScan       bool                   `json:"recursiveScan"`
	RulePriorityMode    types.RulePriorityMode `json:"rulePriorityMode"`
}

// AppConfig is the persistent application configuration: saved templates,
// both rule families, folder structures and preferences.
type AppConfig struct {
	Version          int                         `json:"version"`
	Templates        []types.Template            `json:"templates"`
	Rules            []types.MetadataPatternRule `json:"rules"`
	FilenameRules    []types.FilenameRule        `json:"filenameRules"`
	FolderStructures []types.FolderStructure     `json:"folderStructures"`
	Preferences      Preferences                 `json:"preferences"`
	RecentFolders    []string                    `json:"recentFolders,omitempty"`
}

// Store is the file-backed AppConfig store. Reads go through an in-memory
// cache; Save writes through it. It also implements rules.Store so the rule
// manager persists into the same file.
type Store struct {
	mu    sync.Mutex
	path  string
	cache *AppConfig
}

// NewStore creates a store at path. An empty path uses
// <user config dir>/tidy/config.json.
func NewStore(path string) *Store {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			configDir = "."
		}
		path = filepath.Join(configDir, "tidy", "config.json")
	}
	return &Store{path: path}
}

// Load reads the config, applying defaults and migrations. A missing or
// empty file yields the default config; a config that fails validation is
// replaced by the defaults rather than breaking the application.
func (s *Store) Load() (*AppConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*AppConfig, error) {
	if s.cache != nil {
		return s.cache.clone(), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultAppConfig()
			s.cache = cfg.clone()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		cfg := DefaultAppConfig()
		s.cache = cfg.clone()
		return cfg, nil
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	migrate(&cfg)

	if err := validateAppConfig(&cfg); err != nil {
		fallback := DefaultAppConfig()
		s.cache = fallback.clone()
		return fallback, nil
	}

	s.cache = cfg.clone()
	return &cfg, nil
}

// Save validates and persists the config, then updates the cache.
func (s *Store) Save(cfg *AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg *AppConfig) error {
	if cfg.Version == 0 {
		cfg.Version = appConfigVersion
	}
	if err := validateAppConfig(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	s.cache = cfg.clone()
	return nil
}

// Invalidate drops the cache so the next Load re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// AddRecentFolder records a folder at the front of the recent list,
// deduplicated and capped.
func (s *Store) AddRecentFolder(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}

	recent := []string{path}
	for _, p := range cfg.RecentFolders {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecentFolders {
		recent = recent[:maxRecentFolders]
	}
	cfg.RecentFolders = recent

	return s.save(cfg)
}

// LoadRules implements rules.Store.
func (s *Store) LoadRules() (rules.Collections, error) {
	cfg, err := s.Load()
	if err != nil {
		return rules.Collections{}, err
	}
	return rules.Collections{Metadata: cfg.Rules, Filename: cfg.FilenameRules}, nil
}

// SaveRules implements rules.Store.
func (s *Store) SaveRules(cols rules.Collections) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load()
	if err != nil {
		return err
	}
	cfg.Rules = cols.Metadata
	cfg.FilenameRules = cols.Filename
	return s.save(cfg)
}

func migrate(cfg *AppConfig) {
	if len(cfg.FolderStructures) == 0 {
		cfg.FolderStructures = defaultFolderStructures()
	}
	// older configs used {original}; {name} superseded it
	for i := range cfg.Templates {
		if strings.Contains(cfg.Templates[i].Pattern, "{original}") {
			cfg.Templates[i].Pattern = strings.ReplaceAll(cfg.Templates[i].Pattern, "{original}", "{name}")
		}
	}
}

func validateAppConfig(cfg *AppConfig) error {
	if cfg.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	for _, tpl := range cfg.Templates {
		if strings.TrimSpace(tpl.Name) == "" {
			return fmt.Errorf("template %q has empty name", tpl.ID)
		}
		if strings.TrimSpace(tpl.Pattern) == "" {
			return fmt.Errorf("template %q has empty pattern", tpl.Name)
		}
		if len(tpl.Pattern) > 1000 {
			return fmt.Errorf("template %q pattern too long (max 1000 chars)", tpl.Name)
		}
	}
	for _, fs := range cfg.FolderStructures {
		if strings.TrimSpace(fs.Name) == "" {
			return fmt.Errorf("folder structure %q has empty name", fs.ID)
		}
		if strings.TrimSpace(fs.Pattern) == "" {
			return fmt.Errorf("folder structure %q has empty pattern", fs.Name)
		}
	}
	switch cfg.Preferences.RulePriorityMode {
	case "", types.PriorityCombined, types.PriorityMetadataFirst, types.PriorityFilenameFirst:
	default:
		return fmt.Errorf("unknown rule priority mode %q", cfg.Preferences.RulePriorityMode)
	}
	if len(cfg.RecentFolders) > maxRecentFolders {
		return fmt.Errorf("too many recent folders (max %d)", maxRecentFolders)
	}
	return nil
}

func (c *AppConfig) clone() *AppConfig {
	out := *c
	out.Templates = append([]types.Template(nil), c.Templates...)
	out.Rules = append([]types.MetadataPatternRule(nil), c.Rules...)
	out.FilenameRules = append([]types.FilenameRule(nil), c.FilenameRules...)
	out.FolderStructures = append([]types.FolderStructure(nil), c.FolderStructures...)
	out.RecentFolders = append([]string(nil), c.RecentFolders...)
	return &out
}

// DefaultAppConfig builds the initial configuration with the built-in
// templates and folder structures.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Version:          appConfigVersion,
		Templates:        defaultTemplates(),
		FolderStructures: defaultFolderStructures(),
		Preferences: Preferences{
			DefaultOutputFormat: "table",
			ConfirmBeforeApply:  true,
			RecursiveScan:       false,
			RulePriorityMode:    types.PriorityCombined,
		},
	}
}

func defaultTemplates() []types.Template {
	imageTypes := []string{"jpg", "jpeg", "png", "heic", "webp", "gif"}
	return []types.Template{
		{
			ID:        uuid.NewString(),
			Name:      "Date Prefix",
			Pattern:   "{date}-{name}",
			FileTypes: imageTypes,
			IsDefault: true,
			CreatedAt: defaultTimestamp,
			UpdatedAt: defaultTimestamp,
		},
		{
			ID:        uuid.NewString(),
			Name:      "Year/Month Folders",
			Pattern:   "{year}/{month}/{name}",
			FileTypes: imageTypes,
			CreatedAt: defaultTimestamp,
			UpdatedAt: defaultTimestamp,
		},
		{
			ID:        uuid.NewString(),
			Name:      "Camera + Date",
			Pattern:   "{camera}-{date}-{name}",
			FileTypes: []string{"jpg", "jpeg", "png", "heic"},
			CreatedAt: defaultTimestamp,
			UpdatedAt: defaultTimestamp,
		},
		{
			ID:        uuid.NewString(),
			Name:      "Document Date",
			Pattern:   "{date}-{name}",
			FileTypes: []string{"pdf", "docx", "xlsx", "pptx"},
			CreatedAt: defaultTimestamp,
			UpdatedAt: defaultTimestamp,
		},
	}
}

func defaultFolderStructures() []types.FolderStructure {
	return []types.FolderStructure{
		{
			ID:          uuid.NewString(),
			Name:        "By Year",
			Pattern:     "{year}",
			Description: "Organize files by year",
			Enabled:     true,
			Priority:    10,
			CreatedAt:   defaultTimestamp,
			UpdatedAt:   defaultTimestamp,
		},
		{
			ID:          uuid.NewString(),
			Name:        "By Year and Month",
			Pattern:     "{year}/{month}",
			Description: "Organize files by year and month",
			Enabled:     true,
			Priority:    20,
			CreatedAt:   defaultTimestamp,
			UpdatedAt:   defaultTimestamp,
		},
		{
			ID:          uuid.NewString(),
			Name:        "By Category",
			Pattern:     "{category}",
			Description: "Organize files by type (images, documents, etc.)",
			Enabled:     true,
			Priority:    30,
			CreatedAt:   defaultTimestamp,
			UpdatedAt:   defaultTimestamp,
		},
		{
			ID:          uuid.NewString(),
			Name:        "By Year/Month/Day",
			Pattern:     "{year}/{month}/{day}",
			Description: "Organize files by full date hierarchy",
			Enabled:     false,
			Priority:    40,
			CreatedAt:   defaultTimestamp,
			UpdatedAt:   defaultTimestamp,
		},
	}
}
