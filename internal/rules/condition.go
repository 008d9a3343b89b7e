package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

// ConditionEvaluator evaluates single rule conditions against metadata.
// Compiled regex patterns are cached; the cache is safe for concurrent use
// and writes are idempotent.
type ConditionEvaluator struct {
	mu         sync.Mutex
	regexCache map[string]*regexp.Regexp
}

func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{
		regexCache: make(map[string]*regexp.Regexp),
	}
}

// ClearCache drops all cached regex patterns. Exposed for test isolation.
func (e *ConditionEvaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regexCache = make(map[string]*regexp.Regexp)
}

// Evaluate applies one condition to the metadata record. Absent fields make
// value operators evaluate to false rather than erroring; exists/not-exists
// evaluate normally. Type-mismatched comparisons are non-matching. Only a
// malformed field path or an invalid regex produces an error.
func (e *ConditionEvaluator) Evaluate(cond types.Condition, meta *types.UnifiedMetadata) (bool, error) {
	fv, err := ResolveField(meta, cond.Field)
	if err != nil {
		return false, &ConditionEvaluationError{
			Field:    cond.Field,
			Operator: cond.Operator,
			Reason:   err.Error(),
		}
	}

	switch cond.Operator {
	case types.OpExists:
		return fv.Exists, nil
	case types.OpNotExists:
		return !fv.Exists, nil
	}

	if !fv.Exists {
		return false, nil
	}

	switch cond.Operator {
	case types.OpEquals:
		return valuesEqual(fv.Value, cond.Value), nil
	case types.OpNotEquals:
		return !valuesEqual(fv.Value, cond.Value), nil
	case types.OpContains:
		return stringCompare(fv.Value, cond.Value, strings.Contains), nil
	case types.OpStartsWith:
		return stringCompare(fv.Value, cond.Value, strings.HasPrefix), nil
	case types.OpEndsWith:
		return stringCompare(fv.Value, cond.Value, strings.HasSuffix), nil
	case types.OpGreaterThan:
		return ordered(fv.Value, cond.Value, func(c int) bool { return c > 0 }), nil
	case types.OpLessThan:
		return ordered(fv.Value, cond.Value, func(c int) bool { return c < 0 }), nil
	case types.OpMatchesRegex:
		return e.matchRegex(cond, fv.Value)
	default:
		return false, &ConditionEvaluationError{
			Field:    cond.Field,
			Operator: cond.Operator,
			Reason:   "unknown operator",
		}
	}
}

func (e *ConditionEvaluator) matchRegex(cond types.Condition, fieldValue any) (bool, error) {
	pattern, ok := cond.Value.(string)
	if !ok {
		return false, &ConditionEvaluationError{
			Field:    cond.Field,
			Operator: cond.Operator,
			Reason:   "regex pattern must be a string",
		}
	}

	re, err := e.compile(pattern)
	if err != nil {
		return false, &ConditionEvaluationError{
			Field:    cond.Field,
			Operator: cond.Operator,
			Reason:   fmt.Sprintf("invalid regex: %v", err),
		}
	}

	s, ok := fieldValue.(string)
	if !ok {
		return false, nil
	}
	return re.MatchString(s), nil
}

func (e *ConditionEvaluator) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.Lock()
	re, ok := e.regexCache[pattern]
	e.mu.Unlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.regexCache[pattern] = re
	e.mu.Unlock()
	return re, nil
}

// valuesEqual compares a resolved field value against a condition operand.
// Numbers compare by value regardless of concrete type, times by instant
// (operand parsed from RFC 3339 or a plain date), strings and bools
// directly. Incomparable pairs are unequal.
func valuesEqual(field, operand any) bool {
	if ft, ok := asTime(field); ok {
		if ot, ok := parseTimeOperand(operand); ok {
			return ft.Equal(ot)
		}
		return false
	}
	if ff, ok := asFloat(field); ok {
		if of, ok := asFloat(operand); ok {
			return ff == of
		}
		return false
	}
	switch f := field.(type) {
	case string:
		o, ok := operand.(string)
		return ok && f == o
	case bool:
		o, ok := operand.(bool)
		return ok && f == o
	}
	return false
}

func stringCompare(field, operand any, fn func(s, substr string) bool) bool {
	fs, ok := field.(string)
	if !ok {
		return false
	}
	os, ok := operand.(string)
	if !ok {
		return false
	}
	return fn(fs, os)
}

// ordered reports the comparison of field against operand when both are
// numbers or both are instants; cmp receives -1, 0 or 1.
func ordered(field, operand any, want func(c int) bool) bool {
	if ft, ok := asTime(field); ok {
		ot, ok := parseTimeOperand(operand)
		if !ok {
			return false
		}
		return want(ft.Compare(ot))
	}

	ff, ok := asFloat(field)
	if !ok {
		return false
	}
	of, ok := asFloat(operand)
	if !ok {
		return false
	}
	switch {
	case ff > of:
		return want(1)
	case ff < of:
		return want(-1)
	default:
		return want(0)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// parseTimeOperand accepts a time.Time or a string in RFC 3339 or
// YYYY-MM-DD form, which is how condition values arrive from JSON config.
func parseTimeOperand(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
