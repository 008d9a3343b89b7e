package rules

import (
	"fmt"
	"strings"

	"github.com/tidy-app/tidy/pkg/types"
)

// FieldResolutionError reports a structurally malformed field path.
// A path that is well-formed but absent from the metadata is not an error.
type FieldResolutionError struct {
	Path   string
	Reason string
}

func (e *FieldResolutionError) Error() string {
	return fmt.Sprintf("field path %q: %s", e.Path, e.Reason)
}

// ConditionEvaluationError reports a condition that could not be evaluated,
// e.g. an invalid regex pattern.
type ConditionEvaluationError struct {
	Field    string
	Operator types.ConditionOperator
	Reason   string
}

func (e *ConditionEvaluationError) Error() string {
	return fmt.Sprintf("condition %s %s: %s", e.Field, e.Operator, e.Reason)
}

// RuleErrorCode classifies a RuleEvaluatorError.
type RuleErrorCode string

const (
	// CodeRuleDisabled marks an attempt to evaluate a disabled rule.
	CodeRuleDisabled RuleErrorCode = "RULE_DISABLED"
	// CodeConditionError marks a rule whose conditions failed to evaluate.
	CodeConditionError RuleErrorCode = "CONDITION_ERROR"
)

// RuleEvaluatorError is the failure of a whole-rule evaluation. For
// CodeConditionError it aggregates every per-condition error encountered.
type RuleEvaluatorError struct {
	Code       RuleErrorCode
	RuleID     string
	Conditions []*ConditionEvaluationError
}

func (e *RuleEvaluatorError) Error() string {
	if len(e.Conditions) == 0 {
		return fmt.Sprintf("rule %s: %s", e.RuleID, e.Code)
	}
	msgs := make([]string, len(e.Conditions))
	for i, c := range e.Conditions {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("rule %s: %s: %s", e.RuleID, e.Code, strings.Join(msgs, "; "))
}

// RulePriorityError reports an invalid priority update or reorder request.
type RulePriorityError struct {
	Reason string
}

func (e *RulePriorityError) Error() string {
	return "rule priority: " + e.Reason
}

// GlobError reports an invalid glob pattern.
type GlobError struct {
	Pattern string
	Reason  string
}

func (e *GlobError) Error() string {
	return fmt.Sprintf("glob %q: %s", e.Pattern, e.Reason)
}
