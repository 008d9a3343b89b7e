package undo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/pkg/types"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// recordMove simulates an already-executed move of src to dst and records
// it in the store.
func recordMove(t *testing.T, store *history.Store, records []types.FileHistoryRecord, dirs []string) types.OperationHistoryEntry {
	t.Helper()
	entry, err := store.Record(types.OperationHistoryEntry{
		OperationType:      types.OperationMove,
		Files:              records,
		DirectoriesCreated: dirs,
	})
	if err != nil {
		t.Fatal(err)
	}
	return entry
}

func TestUndo_RestoresFilesAndRemovesDirectories(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	src := filepath.Join(dir, "IMG_0001.jpg")
	organized := filepath.Join(dir, "2024", "06", "IMG_0001.jpg")
	writeFile(t, organized)

	entry := recordMove(t, store,
		[]types.FileHistoryRecord{
			{OriginalPath: src, NewPath: &organized, IsMoveOperation: true, Success: true},
		},
		[]string{filepath.Join(dir, "2024"), filepath.Join(dir, "2024", "06")},
	)

	result, err := engine.Undo(entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.FilesRestored != 1 {
		t.Errorf("expected 1 restored, got %+v", result)
	}
	if !exists(src) || exists(organized) {
		t.Error("file should be back at its original path")
	}
	if exists(filepath.Join(dir, "2024")) {
		t.Error("created directories should be removed once empty")
	}
	if len(result.DirectoriesRemoved) != 2 {
		t.Errorf("expected 2 removed dirs, got %v", result.DirectoriesRemoved)
	}

	got, _ := store.Get(entry.ID)
	if got.UndoneAt == nil {
		t.Error("entry should be stamped undone")
	}
}

func TestUndo_AlreadyUndone(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	moved := filepath.Join(dir, "moved.txt")
	writeFile(t, moved)
	entry := recordMove(t, store, []types.FileHistoryRecord{
		{OriginalPath: filepath.Join(dir, "orig.txt"), NewPath: &moved, Success: true},
	}, nil)

	if _, err := engine.Undo(entry.ID); err != nil {
		t.Fatalf("first undo failed: %v", err)
	}

	_, err := engine.Undo(entry.ID)
	ue, ok := err.(*Error)
	if !ok || ue.Code != CodeAlreadyUndone {
		t.Fatalf("expected ALREADY_UNDONE, got %v", err)
	}
}

func TestUndo_NotFound(t *testing.T) {
	store := history.New(filepath.Join(t.TempDir(), "history.json"))
	engine := New(store, nil)

	_, err := engine.Undo("ghost")
	ue, ok := err.(*Error)
	if !ok || ue.Code != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUndo_SkipsFailedOriginals(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	// batch of 3 where file #2's original rename failed
	moved1 := filepath.Join(dir, "out", "a.txt")
	moved3 := filepath.Join(dir, "out", "c.txt")
	writeFile(t, moved1)
	writeFile(t, moved3)

	entry := recordMove(t, store, []types.FileHistoryRecord{
		{OriginalPath: filepath.Join(dir, "a.txt"), NewPath: &moved1, Success: true},
		{OriginalPath: filepath.Join(dir, "b.txt"), Success: false, Error: "permission denied"},
		{OriginalPath: filepath.Join(dir, "c.txt"), NewPath: &moved3, Success: true},
	}, nil)

	result, err := engine.Undo(entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FilesRestored != 2 || result.FilesSkipped != 1 || result.FilesFailed != 0 {
		t.Errorf("got %+v", result)
	}
	if result.Files[1].SkipReason != SkipReasonOriginalFailed {
		t.Errorf("skip reason: got %q", result.Files[1].SkipReason)
	}
	if !exists(filepath.Join(dir, "a.txt")) || !exists(filepath.Join(dir, "c.txt")) {
		t.Error("succeeded files should be restored")
	}
}

func TestUndo_PartialFailureIsNotSuccess(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	moved := filepath.Join(dir, "out", "a.txt")
	writeFile(t, moved)
	orig := filepath.Join(dir, "a.txt")
	writeFile(t, orig) // original path occupied: the move back must fail

	entry := recordMove(t, store, []types.FileHistoryRecord{
		{OriginalPath: orig, NewPath: &moved, Success: true},
	}, nil)

	result, err := engine.Undo(entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.FilesFailed != 1 {
		t.Errorf("occupied original path should fail the file: %+v", result)
	}
	if !exists(moved) {
		t.Error("failed file must stay where it was")
	}
}

func TestUndo_DryRunMutatesNothing(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	moved := filepath.Join(dir, "out", "a.txt")
	writeFile(t, moved)
	entry := recordMove(t, store, []types.FileHistoryRecord{
		{OriginalPath: filepath.Join(dir, "a.txt"), NewPath: &moved, Success: true},
	}, nil)

	result, err := engine.Preview(entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DryRun || !result.Success || result.FilesRestored != 1 {
		t.Errorf("preview should report the same shape: %+v", result)
	}
	if !exists(moved) || exists(filepath.Join(dir, "a.txt")) {
		t.Error("dry run must not move files")
	}

	got, _ := store.Get(entry.ID)
	if got.UndoneAt != nil {
		t.Error("dry run must not stamp undoneAt")
	}
}

func TestUndo_LeavesNonEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"))
	engine := New(store, nil)

	created := filepath.Join(dir, "2024")
	moved := filepath.Join(created, "a.txt")
	writeFile(t, moved)
	writeFile(t, filepath.Join(created, "unrelated.txt"))

	entry := recordMove(t, store, []types.FileHistoryRecord{
		{OriginalPath: filepath.Join(dir, "a.txt"), NewPath: &moved, Success: true},
	}, []string{created})

	result, err := engine.Undo(entry.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DirectoriesRemoved) != 0 {
		t.Errorf("non-empty directory must not be removed: %v", result.DirectoriesRemoved)
	}
	if !exists(created) {
		t.Error("directory with user content must survive")
	}
}
