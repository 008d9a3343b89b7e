// Package undo reverses recorded batch rename/move operations.
package undo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/pkg/types"
)

// SkipReasonOriginalFailed marks records whose original operation failed;
// there is nothing on disk to move back.
const SkipReasonOriginalFailed = "original-operation-failed"

// ErrorCode classifies an undo request failure. Per-file failures during
// the run are reported in the result, not as errors.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyUndone ErrorCode = "ALREADY_UNDONE"
)

type Error struct {
	Code        ErrorCode
	OperationID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("undo %s: %s", e.OperationID, e.Code)
}

// Engine reverses operations from the history store. An undo runs to
// completion once started; partial failure is an expected, reported
// outcome, not an abort.
type Engine struct {
	store  *history.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store *history.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// Preview computes the undo result without touching the filesystem or the
// history entry.
func (e *Engine) Preview(operationID string) (types.UndoResult, error) {
	return e.run(operationID, true)
}

// Undo reverses the operation: files are moved back to their original
// paths, directories the operation created are removed if empty, and the
// entry is stamped as undone.
func (e *Engine) Undo(operationID string) (types.UndoResult, error) {
	return e.run(operationID, false)
}

func (e *Engine) run(operationID string, dryRun bool) (types.UndoResult, error) {
	started := e.now()

	// VALIDATE
	entry, err := e.store.Get(operationID)
	if err != nil {
		if _, ok := err.(*history.ErrNotFound); ok {
			return types.UndoResult{}, &Error{Code: CodeNotFound, OperationID: operationID}
		}
		return types.UndoResult{}, err
	}
	if entry.UndoneAt != nil {
		return types.UndoResult{}, &Error{Code: CodeAlreadyUndone, OperationID: operationID}
	}

	result := types.UndoResult{
		OperationID: operationID,
		DryRun:      dryRun,
	}

	// REVERSE_FILES
	for _, rec := range entry.Files {
		fr := e.reverseFile(rec, dryRun)
		result.Files = append(result.Files, fr)
		switch {
		case fr.SkipReason != "":
			result.FilesSkipped++
		case fr.Success:
			result.FilesRestored++
		default:
			result.FilesFailed++
		}
	}

	// REMOVE_DIRECTORIES
	result.DirectoriesRemoved = e.removeDirectories(entry.DirectoriesCreated, dryRun)

	// FINALIZE
	result.Success = result.FilesFailed == 0
	result.DurationMs = e.now().Sub(started).Milliseconds()
	if !dryRun {
		if err := e.store.SetUndoneAt(operationID); err != nil {
			return result, err
		}
		e.logger.Info("operation undone",
			zap.String("operationId", operationID),
			zap.Int("restored", result.FilesRestored),
			zap.Int("skipped", result.FilesSkipped),
			zap.Int("failed", result.FilesFailed))
	}
	return result, nil
}

func (e *Engine) reverseFile(rec types.FileHistoryRecord, dryRun bool) types.UndoFileResult {
	fr := types.UndoFileResult{
		OriginalPath: rec.OriginalPath,
		CurrentPath:  rec.NewPath,
	}

	if !rec.Success || rec.NewPath == nil {
		fr.SkipReason = SkipReasonOriginalFailed
		return fr
	}

	if _, err := os.Stat(*rec.NewPath); err != nil {
		fr.Error = fmt.Sprintf("file no longer at %s: %v", *rec.NewPath, err)
		return fr
	}
	if _, err := os.Stat(rec.OriginalPath); err == nil {
		fr.Error = fmt.Sprintf("original path %s is occupied", rec.OriginalPath)
		return fr
	}

	if dryRun {
		fr.Success = true
		return fr
	}

	if err := os.MkdirAll(filepath.Dir(rec.OriginalPath), 0755); err != nil {
		fr.Error = err.Error()
		return fr
	}
	if err := os.Rename(*rec.NewPath, rec.OriginalPath); err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Success = true
	return fr
}

// removeDirectories deletes directories the original operation created,
// deepest first so nested empties collapse. Non-empty directories are left
// alone.
func (e *Engine) removeDirectories(dirs []string, dryRun bool) []string {
	if len(dirs) == 0 {
		return nil
	}

	sorted := make([]string, len(dirs))
	copy(sorted, dirs)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	var removed []string
	for _, dir := range sorted {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) != 0 {
			continue
		}
		if !dryRun {
			if err := os.Remove(dir); err != nil {
				e.logger.Warn("could not remove directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
		}
		removed = append(removed, dir)
	}
	return removed
}
