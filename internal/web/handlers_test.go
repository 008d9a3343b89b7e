package web

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/tidy-app/tidy/internal/pipeline"
	"github.com/tidy-app/tidy/pkg/types"
)

func seedDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestHandleScan(t *testing.T) {
	s := newTestServer(t)
	dir := seedDir(t, "a.txt", "b.jpg")

	rr := doJSON(t, s, http.MethodPost, "/api/scan", ScanRequest{Path: dir, Recursive: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", rr.Code, rr.Body.String())
	}

	var resp ScanResponse
	decode(t, rr, &resp)
	if resp.Count != 2 || len(resp.Files) != 2 {
		t.Errorf("scan: %+v", resp)
	}
	if resp.TotalSizeFormatted == "" {
		t.Error("missing formatted size")
	}
}

func TestHandleScan_RequiresPath(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s, http.MethodPost, "/api/scan", ScanRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: %d", rr.Code)
	}
}

func TestHandlePreviewThenApply(t *testing.T) {
	s := newTestServer(t)
	dir := seedDir(t, "a.txt", "b.txt")

	rr := doJSON(t, s, http.MethodPost, "/api/preview", PreviewRequest{
		Path:      dir,
		Recursive: true,
		Template:  "{name}_tidy.{ext}",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status: %d body: %s", rr.Code, rr.Body.String())
	}

	var previewResp pipeline.PreviewResult
	decode(t, rr, &previewResp)
	if previewResp.Preview.Summary.Ready != 2 {
		t.Fatalf("preview summary: %+v", previewResp.Preview.Summary)
	}

	rr = doJSON(t, s, http.MethodPost, "/api/apply", ApplyRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("apply status: %d body: %s", rr.Code, rr.Body.String())
	}

	var applyResp ApplyResponse
	decode(t, rr, &applyResp)
	if !applyResp.Result.Success || applyResp.Result.Summary.Succeeded != 2 {
		t.Errorf("apply result: %+v", applyResp.Result.Summary)
	}
	if applyResp.HistoryEntry == nil || applyResp.HistoryEntry.ID == "" {
		t.Error("apply should record history")
	}
	if _, err := os.Stat(filepath.Join(dir, "a_tidy.txt")); err != nil {
		t.Error("renamed file missing")
	}
}

func TestHandleApply_WithoutPreview(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s, http.MethodPost, "/api/apply", ApplyRequest{})
	if rr.Code != http.StatusConflict {
		t.Errorf("status: %d", rr.Code)
	}
}

func TestHandleApply_DryRun(t *testing.T) {
	s := newTestServer(t)
	dir := seedDir(t, "a.txt")

	rr := doJSON(t, s, http.MethodPost, "/api/preview", PreviewRequest{
		Path:     dir,
		Template: "{name}_tidy.{ext}",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status: %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodPost, "/api/apply", ApplyRequest{DryRun: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("apply status: %d", rr.Code)
	}

	var applyResp ApplyResponse
	decode(t, rr, &applyResp)
	if applyResp.HistoryEntry != nil {
		t.Error("dry run must not record history")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); err != nil {
		t.Error("dry run must not move files")
	}
}

func TestHandlePreview_MissingSource(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s, http.MethodPost, "/api/preview", PreviewRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: %d", rr.Code)
	}

	var resp ValidationError
	decode(t, rr, &resp)
	if resp.Field != "source" {
		t.Errorf("field: %q", resp.Field)
	}
}

func TestHandleUndo_AfterApply(t *testing.T) {
	s := newTestServer(t)
	dir := seedDir(t, "a.txt")

	rr := doJSON(t, s, http.MethodPost, "/api/preview", PreviewRequest{
		Path:     dir,
		Template: "{name}_tidy.{ext}",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status: %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodPost, "/api/apply", ApplyRequest{})
	if rr.Code != http.StatusOK {
		t.Fatalf("apply status: %d", rr.Code)
	}

	var applyResp ApplyResponse
	decode(t, rr, &applyResp)
	id := applyResp.HistoryEntry.ID

	rr = doJSON(t, s, http.MethodGet, "/api/history/"+id+"/undo-preview", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("undo preview status: %d body: %s", rr.Code, rr.Body.String())
	}
	var preview types.UndoResult
	decode(t, rr, &preview)
	if !preview.DryRun {
		t.Error("undo preview should be a dry run")
	}

	rr = doJSON(t, s, http.MethodPost, "/api/history/"+id+"/undo", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("undo status: %d body: %s", rr.Code, rr.Body.String())
	}
	var result types.UndoResult
	decode(t, rr, &result)
	if !result.Success {
		t.Errorf("undo result: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); err != nil {
		t.Error("original file not restored")
	}

	// second undo conflicts
	rr = doJSON(t, s, http.MethodPost, "/api/history/"+id+"/undo", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("second undo status: %d", rr.Code)
	}
}

func TestHandleUndo_UnknownOperation(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s, http.MethodPost, "/api/history/nope/undo", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: %d", rr.Code)
	}
}

func TestHandleHistory_ListAndGet(t *testing.T) {
	s := newTestServer(t)
	dir := seedDir(t, "a.txt")

	doJSON(t, s, http.MethodPost, "/api/preview", PreviewRequest{Path: dir, Template: "{name}_x.{ext}"})
	doJSON(t, s, http.MethodPost, "/api/apply", ApplyRequest{})

	rr := doJSON(t, s, http.MethodGet, "/api/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	var entries []types.OperationHistoryEntry
	decode(t, rr, &entries)
	if len(entries) != 1 {
		t.Fatalf("entries: %d", len(entries))
	}

	rr = doJSON(t, s, http.MethodGet, "/api/history/"+entries[0].ID, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("get status: %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodGet, "/api/history/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing status: %d", rr.Code)
	}

	rr = doJSON(t, s, http.MethodDelete, "/api/history", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status: %d", rr.Code)
	}
	rr = doJSON(t, s, http.MethodGet, "/api/history", nil)
	decode(t, rr, &entries)
	if len(entries) != 0 {
		t.Errorf("entries after clear: %d", len(entries))
	}
}
