package rules

import (
	"fmt"
	"sort"

	"github.com/tidy-app/tidy/pkg/types"
)

// UnifiedRuleRef identifies one rule inside the merged cross-family
// ordering. Only the fields the arbitration needs are carried; matching
// stays with the family-specific evaluators.
type UnifiedRuleRef struct {
	RuleID   string           `json:"ruleId"`
	Family   types.RuleFamily `json:"family"`
	Name     string           `json:"name"`
	Priority int              `json:"priority"`
	Enabled  bool             `json:"enabled"`
}

// PriorityTie is a group of enabled rules sharing one priority value within
// the same arbitration scope.
type PriorityTie struct {
	Priority int              `json:"priority"`
	Rules    []UnifiedRuleRef `json:"rules"`
}

// RulePriorityPreview is the dry-run view of the resolved evaluation order.
type RulePriorityPreview struct {
	Mode  types.RulePriorityMode `json:"mode"`
	Order []UnifiedRuleRef       `json:"order"`
	Ties  []PriorityTie          `json:"ties"`
}

// PriorityResolver merges the two rule families into one evaluation order
// under a RulePriorityMode. It operates on the caller's slices: priority
// mutations write through to the underlying arrays.
type PriorityResolver struct {
	mode     types.RulePriorityMode
	metadata []types.MetadataPatternRule
	filename []types.FilenameRule
}

func NewPriorityResolver(mode types.RulePriorityMode, metadata []types.MetadataPatternRule, filename []types.FilenameRule) *PriorityResolver {
	return &PriorityResolver{mode: mode, metadata: metadata, filename: filename}
}

func (r *PriorityResolver) Mode() types.RulePriorityMode {
	return r.mode
}

func metadataRef(m types.MetadataPatternRule) UnifiedRuleRef {
	return UnifiedRuleRef{RuleID: m.ID, Family: types.FamilyMetadata, Name: m.Name, Priority: m.Priority, Enabled: m.Enabled}
}

func filenameRef(f types.FilenameRule) UnifiedRuleRef {
	return UnifiedRuleRef{RuleID: f.ID, Family: types.FamilyFilename, Name: f.Name, Priority: f.Priority, Enabled: f.Enabled}
}

func sortRefs(refs []UnifiedRuleRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Priority > refs[j].Priority
	})
}

// UnifiedRulePriorities returns every rule (enabled or not) in the
// resolver's evaluation order.
func (r *PriorityResolver) UnifiedRulePriorities() []UnifiedRuleRef {
	return r.order(false)
}

// EvaluationOrder returns only the enabled rules, in the order the template
// resolver will try them.
func (r *PriorityResolver) EvaluationOrder() []UnifiedRuleRef {
	return r.order(true)
}

// order builds the merged list. In combined mode both families go into one
// priority-descending stable sort; metadata rules are listed before
// filename rules, so at equal priority metadata wins. The split modes
// evaluate one family exhaustively before the other, ignoring cross-family
// priority values.
func (r *PriorityResolver) order(enabledOnly bool) []UnifiedRuleRef {
	var meta, fname []UnifiedRuleRef
	for _, m := range r.metadata {
		if enabledOnly && !m.Enabled {
			continue
		}
		meta = append(meta, metadataRef(m))
	}
	for _, f := range r.filename {
		if enabledOnly && !f.Enabled {
			continue
		}
		fname = append(fname, filenameRef(f))
	}

	switch r.mode {
	case types.PriorityMetadataFirst:
		sortRefs(meta)
		sortRefs(fname)
		return append(meta, fname...)
	case types.PriorityFilenameFirst:
		sortRefs(meta)
		sortRefs(fname)
		return append(fname, meta...)
	default:
		merged := append(meta, fname...)
		sortRefs(merged)
		return merged
	}
}

// DetectPriorityTies finds groups of enabled rules sharing a priority value
// within the same arbitration scope. In combined mode the scope spans both
// families; in the split modes a tie only matters inside one family, since
// families never compete on priority there.
func (r *PriorityResolver) DetectPriorityTies() []PriorityTie {
	var scopes [][]UnifiedRuleRef
	if r.mode == types.PriorityCombined {
		scopes = [][]UnifiedRuleRef{r.order(true)}
	} else {
		var meta, fname []UnifiedRuleRef
		for _, m := range r.metadata {
			if m.Enabled {
				meta = append(meta, metadataRef(m))
			}
		}
		for _, f := range r.filename {
			if f.Enabled {
				fname = append(fname, filenameRef(f))
			}
		}
		sortRefs(meta)
		sortRefs(fname)
		scopes = [][]UnifiedRuleRef{meta, fname}
	}

	var ties []PriorityTie
	for _, scope := range scopes {
		for i := 0; i < len(scope); {
			j := i + 1
			for j < len(scope) && scope[j].Priority == scope[i].Priority {
				j++
			}
			if j-i > 1 {
				group := make([]UnifiedRuleRef, j-i)
				copy(group, scope[i:j])
				ties = append(ties, PriorityTie{Priority: scope[i].Priority, Rules: group})
			}
			i = j
		}
	}
	return ties
}

// PreviewRulePriority returns the resolved evaluation order plus detected
// ties, for display before the user commits to a batch run.
func (r *PriorityResolver) PreviewRulePriority() RulePriorityPreview {
	return RulePriorityPreview{
		Mode:  r.mode,
		Order: r.EvaluationOrder(),
		Ties:  r.DetectPriorityTies(),
	}
}

// SetUnifiedRulePriority assigns a new priority to one rule, addressed by
// id and family.
func (r *PriorityResolver) SetUnifiedRulePriority(ruleID string, family types.RuleFamily, newPriority int) error {
	switch family {
	case types.FamilyMetadata:
		for i := range r.metadata {
			if r.metadata[i].ID == ruleID {
				r.metadata[i].Priority = newPriority
				return nil
			}
		}
	case types.FamilyFilename:
		for i := range r.filename {
			if r.filename[i].ID == ruleID {
				r.filename[i].Priority = newPriority
				return nil
			}
		}
	default:
		return &RulePriorityError{Reason: fmt.Sprintf("unknown rule family %q", family)}
	}
	return &RulePriorityError{Reason: fmt.Sprintf("no %s rule with id %q", family, ruleID)}
}

// ReorderKey addresses one rule in a reorder request.
type ReorderKey struct {
	RuleID string           `json:"ruleId"`
	Family types.RuleFamily `json:"family"`
}

// ReorderUnifiedRules rewrites priorities so the rules evaluate in the
// given order. The existing priority values are reused: the sorted
// descending multiset is dealt out to the new order, keeping the overall
// spacing the user had. Duplicate values are nudged down so the requested
// order is strictly encoded and survives a later re-sort.
func (r *PriorityResolver) ReorderUnifiedRules(newOrder []ReorderKey) error {
	priorities := make([]int, 0, len(newOrder))
	seen := make(map[ReorderKey]bool, len(newOrder))
	for _, key := range newOrder {
		if seen[key] {
			return &RulePriorityError{Reason: fmt.Sprintf("rule %q listed twice in reorder", key.RuleID)}
		}
		seen[key] = true
		p, err := r.lookupPriority(key)
		if err != nil {
			return err
		}
		priorities = append(priorities, p)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))
	for i := 1; i < len(priorities); i++ {
		if priorities[i] >= priorities[i-1] {
			priorities[i] = priorities[i-1] - 1
		}
	}

	for i, key := range newOrder {
		if err := r.SetUnifiedRulePriority(key.RuleID, key.Family, priorities[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PriorityResolver) lookupPriority(key ReorderKey) (int, error) {
	switch key.Family {
	case types.FamilyMetadata:
		for i := range r.metadata {
			if r.metadata[i].ID == key.RuleID {
				return r.metadata[i].Priority, nil
			}
		}
	case types.FamilyFilename:
		for i := range r.filename {
			if r.filename[i].ID == key.RuleID {
				return r.filename[i].Priority, nil
			}
		}
	default:
		return 0, &RulePriorityError{Reason: fmt.Sprintf("unknown rule family %q", key.Family)}
	}
	return 0, &RulePriorityError{Reason: fmt.Sprintf("no %s rule with id %q", key.Family, key.RuleID)}
}
