package rules

import (
	"sort"

	"github.com/tidy-app/tidy/pkg/types"
)

// FilenameEvaluator matches files against filename glob rules. It mirrors
// Evaluator but works on the filename alone, so it needs no metadata.
type FilenameEvaluator struct {
	globs *GlobMatcher
}

func NewFilenameEvaluator() *FilenameEvaluator {
	return &FilenameEvaluator{globs: NewGlobMatcher()}
}

// Globs exposes the underlying matcher (for cache control).
func (e *FilenameEvaluator) Globs() *GlobMatcher {
	return e.globs
}

// EvaluateRule reports whether the filename satisfies the rule's pattern.
// Disabled rules fail with CodeRuleDisabled; an invalid pattern surfaces as
// a GlobError.
func (e *FilenameEvaluator) EvaluateRule(rule types.FilenameRule, filename string) (bool, error) {
	if !rule.Enabled {
		return false, &RuleEvaluatorError{Code: CodeRuleDisabled, RuleID: rule.ID}
	}
	return e.globs.Match(rule.Pattern, filename)
}

func sortFilenameRules(rules []types.FilenameRule) []types.FilenameRule {
	enabled := make([]types.FilenameRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})
	return enabled
}

// FindMatchingRule returns the highest-priority enabled rule whose pattern
// matches filename, or nil. Rules with invalid patterns are skipped.
func (e *FilenameEvaluator) FindMatchingRule(rules []types.FilenameRule, filename string) (*types.FilenameRule, error) {
	for _, rule := range sortFilenameRules(rules) {
		matched, err := e.EvaluateRule(rule, filename)
		if err != nil {
			continue
		}
		if matched {
			r := rule
			return &r, nil
		}
	}
	return nil, nil
}

// FindAllMatchingRules returns every enabled matching rule in evaluation
// order.
func (e *FilenameEvaluator) FindAllMatchingRules(rules []types.FilenameRule, filename string) ([]types.FilenameRule, error) {
	var matches []types.FilenameRule
	for _, rule := range sortFilenameRules(rules) {
		matched, err := e.EvaluateRule(rule, filename)
		if err != nil {
			continue
		}
		if matched {
			matches = append(matches, rule)
		}
	}
	return matches, nil
}
