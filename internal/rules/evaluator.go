package rules

import (
	"sort"

	"github.com/tidy-app/tidy/pkg/types"
)

// RuleEvaluation is the detailed outcome of evaluating one metadata rule.
type RuleEvaluation struct {
	Matches             bool
	MatchedConditions   []string
	UnmatchedConditions []string
}

// RuleResult pairs a rule with its evaluation (or error) for diagnostics.
type RuleResult struct {
	RuleID     string
	Evaluation RuleEvaluation
	Err        error
}

// Evaluator evaluates metadata pattern rules. It is safe for concurrent use
// across files; the only shared state is the condition evaluator's regex
// cache.
type Evaluator struct {
	conditions *ConditionEvaluator
}

func NewEvaluator() *Evaluator {
	return &Evaluator{conditions: NewConditionEvaluator()}
}

// Conditions exposes the underlying condition evaluator (for cache control).
func (e *Evaluator) Conditions() *ConditionEvaluator {
	return e.conditions
}

// EvaluateRule evaluates every condition of a rule under its match mode.
//
// Disabled rules fail fast with CodeRuleDisabled. A rule with zero
// conditions never matches in either mode; an empty AND rule would
// otherwise match every file. Short-circuit semantics: "any" stops at the
// first matching condition, "all" stops at the first non-matching one. If a
// condition errors and no short-circuit resolved the outcome first, the
// evaluation fails with CodeConditionError carrying every condition error.
func (e *Evaluator) EvaluateRule(rule types.MetadataPatternRule, meta *types.UnifiedMetadata) (RuleEvaluation, error) {
	if !rule.Enabled {
		return RuleEvaluation{}, &RuleEvaluatorError{Code: CodeRuleDisabled, RuleID: rule.ID}
	}
	if len(rule.Conditions) == 0 {
		return RuleEvaluation{Matches: false}, nil
	}

	var (
		result   RuleEvaluation
		condErrs []*ConditionEvaluationError
	)

	for _, cond := range rule.Conditions {
		matched, err := e.conditions.Evaluate(cond, meta)
		if err != nil {
			if ce, ok := err.(*ConditionEvaluationError); ok {
				condErrs = append(condErrs, ce)
			} else {
				condErrs = append(condErrs, &ConditionEvaluationError{
					Field:    cond.Field,
					Operator: cond.Operator,
					Reason:   err.Error(),
				})
			}
			continue
		}

		if matched {
			result.MatchedConditions = append(result.MatchedConditions, cond.Field)
			if rule.MatchMode == types.MatchAny {
				result.Matches = true
				return result, nil
			}
		} else {
			result.UnmatchedConditions = append(result.UnmatchedConditions, cond.Field)
			if rule.MatchMode != types.MatchAny {
				result.Matches = false
				return result, nil
			}
		}
	}

	if len(condErrs) > 0 {
		return RuleEvaluation{}, &RuleEvaluatorError{
			Code:       CodeConditionError,
			RuleID:     rule.ID,
			Conditions: condErrs,
		}
	}

	// "all" matched every condition; "any" matched none.
	result.Matches = rule.MatchMode != types.MatchAny
	return result, nil
}

// sortByPriority returns the enabled rules ordered by priority descending.
// The sort is stable: rules with equal priority keep their original relative
// order, which is the documented tie-break.
func sortByPriority(rules []types.MetadataPatternRule) []types.MetadataPatternRule {
	enabled := make([]types.MetadataPatternRule, 0, len(rules))
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

// FindMatchingRule returns the highest-priority enabled rule matching the
// metadata, or nil when nothing matches. Rules that fail to evaluate are
// skipped so one malformed rule cannot block lower-priority ones.
func (e *Evaluator) FindMatchingRule(rules []types.MetadataPatternRule, meta *types.UnifiedMetadata) (*types.MetadataPatternRule, error) {
	for _, rule := range sortByPriority(rules) {
		eval, err := e.EvaluateRule(rule, meta)
		if err != nil {
			continue
		}
		if eval.Matches {
			r := rule
			return &r, nil
		}
	}
	return nil, nil
}

// FindAllMatchingRules returns every enabled matching rule in evaluation
// order, for rule-authoring previews.
func (e *Evaluator) FindAllMatchingRules(rules []types.MetadataPatternRule, meta *types.UnifiedMetadata) ([]types.MetadataPatternRule, error) {
	var matches []types.MetadataPatternRule
	for _, rule := range sortByPriority(rules) {
		eval, err := e.EvaluateRule(rule, meta)
		if err != nil {
			continue
		}
		if eval.Matches {
			matches = append(matches, rule)
		}
	}
	return matches, nil
}

// EvaluateAllRules evaluates every rule (including disabled and erroring
// ones) and returns the full per-rule result map for diagnostics.
func (e *Evaluator) EvaluateAllRules(rules []types.MetadataPatternRule, meta *types.UnifiedMetadata) map[string]RuleResult {
	results := make(map[string]RuleResult, len(rules))
	for _, rule := range rules {
		eval, err := e.EvaluateRule(rule, meta)
		results[rule.ID] = RuleResult{RuleID: rule.ID, Evaluation: eval, Err: err}
	}
	return results
}
