package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/pkg/types"
)

func storeAt(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "config.json"))
}

func TestStoreLoad_MissingFileReturnsDefaults(t *testing.T) {
	s := storeAt(t)

	cfg, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, appConfigVersion, cfg.Version)
	assert.Len(t, cfg.Templates, 4)
	assert.Len(t, cfg.FolderStructures, 4)
	assert.Equal(t, types.PriorityCombined, cfg.Preferences.RulePriorityMode)

	var defaults int
	for _, tpl := range cfg.Templates {
		if tpl.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults, "exactly one built-in template is the default")
}

func TestStoreLoad_EmptyFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Templates, 4)
}

func TestStoreSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)

	cfg := DefaultAppConfig()
	cfg.Templates = append(cfg.Templates, types.Template{
		ID:        "tpl-custom",
		Name:      "Custom",
		Pattern:   "{name}-{date}",
		CreatedAt: defaultTimestamp,
		UpdatedAt: defaultTimestamp,
	})
	require.NoError(t, s.Save(cfg))

	// no temp file left behind
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	s.Invalidate()
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Templates, 5)
	assert.Equal(t, "tpl-custom", loaded.Templates[4].ID)
}

func TestStoreLoad_MigratesOriginalPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
  "version": 1,
  "templates": [
    {"id": "t1", "name": "Legacy", "pattern": "{date}-{original}", "isDefault": true,
     "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "{date}-{name}", cfg.Templates[0].Pattern)
	assert.Len(t, cfg.FolderStructures, 4, "missing folder structures get defaults")
}

func TestStoreLoad_InvalidConfigFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
  "version": 1,
  "templates": [
    {"id": "t1", "name": "  ", "pattern": "{name}",
     "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Templates, 4, "empty-named template should be replaced by defaults")
}

func TestStoreLoad_BrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestStoreSave_RejectsInvalid(t *testing.T) {
	s := storeAt(t)

	cfg := DefaultAppConfig()
	cfg.Preferences.RulePriorityMode = "alphabetical"
	assert.Error(t, s.Save(cfg))
}

func TestStore_RulesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)

	cols := rules.Collections{
		Metadata: []types.MetadataPatternRule{{
			ID:       "m1",
			Name:     "Canon shots",
			Priority: 10,
			Enabled:  true,
		}},
		Filename: []types.FilenameRule{{
			ID:       "f1",
			Name:     "Screenshots",
			Pattern:  "Screenshot*",
			Priority: 5,
			Enabled:  true,
		}},
	}
	require.NoError(t, s.SaveRules(cols))

	s.Invalidate()
	loaded, err := s.LoadRules()
	require.NoError(t, err)
	require.Len(t, loaded.Metadata, 1)
	require.Len(t, loaded.Filename, 1)
	assert.Equal(t, "m1", loaded.Metadata[0].ID)
	assert.Equal(t, "Screenshot*", loaded.Filename[0].Pattern)

	// both families live in the same config file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Contains(t, onDisk, "rules")
	assert.Contains(t, onDisk, "filenameRules")
	assert.Contains(t, onDisk, "templates")
}

func TestStore_AddRecentFolder(t *testing.T) {
	s := storeAt(t)

	require.NoError(t, s.AddRecentFolder("/a"))
	require.NoError(t, s.AddRecentFolder("/b"))
	require.NoError(t, s.AddRecentFolder("/a"))

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.RecentFolders)
}

func TestStore_CacheIsolation(t *testing.T) {
	s := storeAt(t)

	cfg, err := s.Load()
	require.NoError(t, err)
	cfg.Templates[0].Name = "mutated"

	again, err := s.Load()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Templates[0].Name)
}
