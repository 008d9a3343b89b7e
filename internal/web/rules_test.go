package web

import (
	"net/http"
	"testing"

	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/pkg/types"
)

func TestRuleHandlers_FilenameCRUD(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/rules/filename", types.FilenameRule{
		Name:     "Screenshots",
		Pattern:  "Screenshot*",
		Priority: 10,
		Enabled:  true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status: %d body: %s", rr.Code, rr.Body.String())
	}
	var created types.FilenameRule
	decode(t, rr, &created)
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatalf("created rule: %+v", created)
	}

	created.Priority = 20
	rr = doJSON(t, s, http.MethodPut, "/api/rules/filename/"+created.ID, created)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status: %d body: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s, http.MethodGet, "/api/rules", nil)
	var listed RulesResponse
	decode(t, rr, &listed)
	if len(listed.FilenameRules) != 1 || listed.FilenameRules[0].Priority != 20 {
		t.Errorf("listed: %+v", listed.FilenameRules)
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/rules/filename/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status: %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/rules/filename/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status: %d", rr.Code)
	}
}

func TestRuleHandlers_RejectsBadGlob(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/rules/filename", types.FilenameRule{
		Name:    "Broken",
		Pattern: "   ",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rr.Code)
	}
	var resp ValidationError
	decode(t, rr, &resp)
	if resp.Field != "pattern" {
		t.Errorf("field: %q", resp.Field)
	}
}

func TestRuleHandlers_MetadataCRUD(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/rules/metadata", types.MetadataPatternRule{
		Name:      "Canon shots",
		MatchMode: types.MatchAll,
		Conditions: []types.Condition{{
			Field:    "image.camera.make",
			Operator: types.OpEquals,
			Value:    "Canon",
		}},
		Priority: 5,
		Enabled:  true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status: %d body: %s", rr.Code, rr.Body.String())
	}
	var created types.MetadataPatternRule
	decode(t, rr, &created)

	rr = doJSON(t, s, http.MethodPut, "/api/rules/metadata/missing", created)
	if rr.Code != http.StatusNotFound {
		t.Errorf("update missing status: %d", rr.Code)
	}
}

func TestPriorityPreviewHandler(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/rules/metadata", types.MetadataPatternRule{
		Name: "A", MatchMode: types.MatchAll, Priority: 10, Enabled: true,
		Conditions: []types.Condition{{Field: "file.size", Operator: types.OpExists}},
	})
	doJSON(t, s, http.MethodPost, "/api/rules/filename", types.FilenameRule{
		Name: "B", Pattern: "*.txt", Priority: 10, Enabled: true,
	})

	rr := doJSON(t, s, http.MethodGet, "/api/rules/priority/preview?mode=combined", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rr.Code, rr.Body.String())
	}
	var preview rules.RulePriorityPreview
	decode(t, rr, &preview)
	if len(preview.Order) != 2 {
		t.Fatalf("order: %+v", preview.Order)
	}
	// equal priorities in combined mode are a tie
	if len(preview.Ties) != 1 {
		t.Errorf("ties: %+v", preview.Ties)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/rules/priority/preview?mode=bogus", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad mode status: %d", rr.Code)
	}
}

func TestSetPriorityAndReorderHandlers(t *testing.T) {
	s := newTestServer(t)

	rr := doJSON(t, s, http.MethodPost, "/api/rules/filename", types.FilenameRule{
		Name: "A", Pattern: "*.txt", Priority: 10, Enabled: true,
	})
	var a types.FilenameRule
	decode(t, rr, &a)
	rr = doJSON(t, s, http.MethodPost, "/api/rules/filename", types.FilenameRule{
		Name: "B", Pattern: "*.jpg", Priority: 5, Enabled: true,
	})
	var b types.FilenameRule
	decode(t, rr, &b)

	rr = doJSON(t, s, http.MethodPost, "/api/rules/priority", SetPriorityRequest{
		RuleID:   b.ID,
		Family:   types.FamilyFilename,
		Priority: 50,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("set priority status: %d body: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s, http.MethodPost, "/api/rules/priority", SetPriorityRequest{
		RuleID: "missing", Family: types.FamilyFilename, Priority: 1,
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing rule status: %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodPost, "/api/rules/reorder", ReorderRequest{
		Order: []rules.ReorderKey{
			{RuleID: a.ID, Family: types.FamilyFilename},
			{RuleID: b.ID, Family: types.FamilyFilename},
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("reorder status: %d body: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, s, http.MethodGet, "/api/rules", nil)
	var listed RulesResponse
	decode(t, rr, &listed)
	priorities := map[string]int{}
	for _, rule := range listed.FilenameRules {
		priorities[rule.ID] = rule.Priority
	}
	if priorities[a.ID] <= priorities[b.ID] {
		t.Errorf("reorder should put A above B: %v", priorities)
	}
}
