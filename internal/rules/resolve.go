package rules

import (
	"github.com/tidy-app/tidy/pkg/types"
)

// Resolution reasons. A matched rule's reason carries the rule id so audit
// output can name the winner.
const (
	ReasonMatchedRulePrefix  = "matched-rule:"
	ReasonDefaultFallback    = "default-fallback"
	ReasonNoDefaultAvailable = "no-default-available"
)

// SkippedRule records a rule that could not be evaluated during resolution.
type SkippedRule struct {
	RuleID string           `json:"ruleId"`
	Family types.RuleFamily `json:"family"`
	Error  string           `json:"error"`
}

// TemplateResolutionResult explains which template won for a file and why.
// Reason is always set.
type TemplateResolutionResult struct {
	TemplateID    *string           `json:"templateId"`
	MatchedRuleID *string           `json:"matchedRuleId"`
	MatchedFamily *types.RuleFamily `json:"matchedFamily"`
	Reason        string            `json:"reason"`
	SkippedRules  []SkippedRule     `json:"skippedRules,omitempty"`
}

// TemplateResolver walks the unified rule order and picks the template for
// a file. Safe for concurrent use across files.
type TemplateResolver struct {
	mode      types.RulePriorityMode
	metadata  []types.MetadataPatternRule
	filename  []types.FilenameRule
	metaByID  map[string]types.MetadataPatternRule
	fnameByID map[string]types.FilenameRule
	order     []UnifiedRuleRef
	defaultID *string

	evaluator *Evaluator
	globs     *FilenameEvaluator
}

// NewTemplateResolver builds a resolver over the given rule collections.
// The default template, if any, is the fallback when no rule matches.
func NewTemplateResolver(mode types.RulePriorityMode, metadata []types.MetadataPatternRule, filename []types.FilenameRule, templates []types.Template) *TemplateResolver {
	r := &TemplateResolver{
		mode:      mode,
		metadata:  metadata,
		filename:  filename,
		metaByID:  make(map[string]types.MetadataPatternRule, len(metadata)),
		fnameByID: make(map[string]types.FilenameRule, len(filename)),
		evaluator: NewEvaluator(),
		globs:     NewFilenameEvaluator(),
	}
	for _, m := range metadata {
		r.metaByID[m.ID] = m
	}
	for _, f := range filename {
		r.fnameByID[f.ID] = f
	}
	for _, t := range templates {
		if t.IsDefault {
			id := t.ID
			r.defaultID = &id
			break
		}
	}
	// The evaluation order is fixed at construction; sorting once serves
	// every file in the batch.
	r.order = r.Priorities().EvaluationOrder()
	return r
}

// Priorities returns a priority resolver over the same rule collections,
// for previews that should reflect exactly what resolution will do.
func (r *TemplateResolver) Priorities() *PriorityResolver {
	return NewPriorityResolver(r.mode, r.metadata, r.filename)
}

// ResolveTemplate walks the unified evaluation order until a rule matches
// and returns its template. Rules that error (bad regex, bad glob) are
// recorded in SkippedRules and do not block lower rules. With no match the
// default template applies; with no default the result carries a nil
// template id and the reason says so.
func (r *TemplateResolver) ResolveTemplate(file types.FileInfo, meta *types.UnifiedMetadata) TemplateResolutionResult {
	var skipped []SkippedRule

	for _, ref := range r.order {
		matched, err := r.evaluateRef(ref, file, meta)
		if err != nil {
			skipped = append(skipped, SkippedRule{RuleID: ref.RuleID, Family: ref.Family, Error: err.Error()})
			continue
		}
		if matched.ok {
			return TemplateResolutionResult{
				TemplateID:    &matched.templateID,
				MatchedRuleID: &matched.ruleID,
				MatchedFamily: &matched.family,
				Reason:        ReasonMatchedRulePrefix + matched.ruleID,
				SkippedRules:  skipped,
			}
		}
	}

	if r.defaultID != nil {
		id := *r.defaultID
		return TemplateResolutionResult{
			TemplateID:   &id,
			Reason:       ReasonDefaultFallback,
			SkippedRules: skipped,
		}
	}
	return TemplateResolutionResult{
		Reason:       ReasonNoDefaultAvailable,
		SkippedRules: skipped,
	}
}

type refMatch struct {
	ok         bool
	ruleID     string
	templateID string
	family     types.RuleFamily
}

func (r *TemplateResolver) evaluateRef(ref UnifiedRuleRef, file types.FileInfo, meta *types.UnifiedMetadata) (refMatch, error) {
	switch ref.Family {
	case types.FamilyMetadata:
		rule, ok := r.metaByID[ref.RuleID]
		if !ok {
			return refMatch{}, &RulePriorityError{Reason: "rule " + ref.RuleID + " missing from metadata collection"}
		}
		eval, err := r.evaluator.EvaluateRule(rule, meta)
		if err != nil {
			return refMatch{}, err
		}
		return refMatch{ok: eval.Matches, ruleID: rule.ID, templateID: rule.TemplateID, family: types.FamilyMetadata}, nil
	default:
		rule, ok := r.fnameByID[ref.RuleID]
		if !ok {
			return refMatch{}, &RulePriorityError{Reason: "rule " + ref.RuleID + " missing from filename collection"}
		}
		matched, err := r.globs.EvaluateRule(rule, file.FullName)
		if err != nil {
			return refMatch{}, err
		}
		return refMatch{ok: matched, ruleID: rule.ID, templateID: rule.TemplateID, family: types.FamilyFilename}, nil
	}
}
