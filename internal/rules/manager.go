package rules

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tidy-app/tidy/pkg/types"
)

// Collections is the persisted state the manager operates on.
type Collections struct {
	Metadata []types.MetadataPatternRule
	Filename []types.FilenameRule
}

// Store loads and saves rule collections. The config package provides the
// file-backed implementation.
type Store interface {
	LoadRules() (Collections, error)
	SaveRules(Collections) error
}

// Manager owns CRUD, enable/disable and reordering for both rule families.
// Evaluation never goes through the manager; evaluators take rule slices
// directly.
type Manager struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format(time.RFC3339)
}

// Rules returns the current metadata rules.
func (m *Manager) Rules() ([]types.MetadataPatternRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, err := m.store.LoadRules()
	if err != nil {
		return nil, err
	}
	return cols.Metadata, nil
}

// FilenameRules returns the current filename rules.
func (m *Manager) FilenameRules() ([]types.FilenameRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cols, err := m.store.LoadRules()
	if err != nil {
		return nil, err
	}
	return cols.Filename, nil
}

// CreateRule persists a new metadata rule. The id and timestamps are
// assigned here; the caller's values for them are ignored.
func (m *Manager) CreateRule(rule types.MetadataPatternRule) (types.MetadataPatternRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return types.MetadataPatternRule{}, err
	}

	rule.ID = uuid.NewString()
	rule.CreatedAt = m.timestamp()
	rule.UpdatedAt = rule.CreatedAt
	cols.Metadata = append(cols.Metadata, rule)

	if err := m.store.SaveRules(cols); err != nil {
		return types.MetadataPatternRule{}, err
	}
	return rule, nil
}

// UpdateRule replaces the stored rule with the same id. CreatedAt is
// preserved, UpdatedAt is refreshed.
func (m *Manager) UpdateRule(rule types.MetadataPatternRule) (types.MetadataPatternRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return types.MetadataPatternRule{}, err
	}
	for i := range cols.Metadata {
		if cols.Metadata[i].ID == rule.ID {
			rule.CreatedAt = cols.Metadata[i].CreatedAt
			rule.UpdatedAt = m.timestamp()
			cols.Metadata[i] = rule
			if err := m.store.SaveRules(cols); err != nil {
				return types.MetadataPatternRule{}, err
			}
			return rule, nil
		}
	}
	return types.MetadataPatternRule{}, fmt.Errorf("no metadata rule with id %q", rule.ID)
}

// DeleteRule removes the metadata rule with the given id.
func (m *Manager) DeleteRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	for i := range cols.Metadata {
		if cols.Metadata[i].ID == id {
			cols.Metadata = append(cols.Metadata[:i], cols.Metadata[i+1:]...)
			return m.store.SaveRules(cols)
		}
	}
	return fmt.Errorf("no metadata rule with id %q", id)
}

// SetRuleEnabled toggles a metadata rule without touching its other fields.
func (m *Manager) SetRuleEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	for i := range cols.Metadata {
		if cols.Metadata[i].ID == id {
			cols.Metadata[i].Enabled = enabled
			cols.Metadata[i].UpdatedAt = m.timestamp()
			return m.store.SaveRules(cols)
		}
	}
	return fmt.Errorf("no metadata rule with id %q", id)
}

// CreateFilenameRule persists a new filename rule. The pattern is compiled
// once up front so an invalid glob is rejected at save time, not at first
// evaluation.
func (m *Manager) CreateFilenameRule(rule types.FilenameRule) (types.FilenameRule, error) {
	if _, err := compilePattern(rule.Pattern); err != nil {
		return types.FilenameRule{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return types.FilenameRule{}, err
	}

	rule.ID = uuid.NewString()
	rule.CreatedAt = m.timestamp()
	rule.UpdatedAt = rule.CreatedAt
	cols.Filename = append(cols.Filename, rule)

	if err := m.store.SaveRules(cols); err != nil {
		return types.FilenameRule{}, err
	}
	return rule, nil
}

// UpdateFilenameRule replaces the stored rule with the same id.
func (m *Manager) UpdateFilenameRule(rule types.FilenameRule) (types.FilenameRule, error) {
	if _, err := compilePattern(rule.Pattern); err != nil {
		return types.FilenameRule{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return types.FilenameRule{}, err
	}
	for i := range cols.Filename {
		if cols.Filename[i].ID == rule.ID {
			rule.CreatedAt = cols.Filename[i].CreatedAt
			rule.UpdatedAt = m.timestamp()
			cols.Filename[i] = rule
			if err := m.store.SaveRules(cols); err != nil {
				return types.FilenameRule{}, err
			}
			return rule, nil
		}
	}
	return types.FilenameRule{}, fmt.Errorf("no filename rule with id %q", rule.ID)
}

// DeleteFilenameRule removes the filename rule with the given id.
func (m *Manager) DeleteFilenameRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	for i := range cols.Filename {
		if cols.Filename[i].ID == id {
			cols.Filename = append(cols.Filename[:i], cols.Filename[i+1:]...)
			return m.store.SaveRules(cols)
		}
	}
	return fmt.Errorf("no filename rule with id %q", id)
}

// SetFilenameRuleEnabled toggles a filename rule.
func (m *Manager) SetFilenameRuleEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	for i := range cols.Filename {
		if cols.Filename[i].ID == id {
			cols.Filename[i].Enabled = enabled
			cols.Filename[i].UpdatedAt = m.timestamp()
			return m.store.SaveRules(cols)
		}
	}
	return fmt.Errorf("no filename rule with id %q", id)
}

// SetUnifiedRulePriority changes one rule's priority across either family
// and persists the result.
func (m *Manager) SetUnifiedRulePriority(ruleID string, family types.RuleFamily, newPriority int, mode types.RulePriorityMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	resolver := NewPriorityResolver(mode, cols.Metadata, cols.Filename)
	if err := resolver.SetUnifiedRulePriority(ruleID, family, newPriority); err != nil {
		return err
	}
	return m.store.SaveRules(cols)
}

// ReorderUnifiedRules rewrites priorities to match a user-supplied order
// and persists the result.
func (m *Manager) ReorderUnifiedRules(newOrder []ReorderKey, mode types.RulePriorityMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return err
	}
	resolver := NewPriorityResolver(mode, cols.Metadata, cols.Filename)
	if err := resolver.ReorderUnifiedRules(newOrder); err != nil {
		return err
	}
	return m.store.SaveRules(cols)
}

// PreviewRulePriority resolves the evaluation order for the stored rules
// without mutating anything.
func (m *Manager) PreviewRulePriority(mode types.RulePriorityMode) (RulePriorityPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cols, err := m.store.LoadRules()
	if err != nil {
		return RulePriorityPreview{}, err
	}
	return NewPriorityResolver(mode, cols.Metadata, cols.Filename).PreviewRulePriority(), nil
}
