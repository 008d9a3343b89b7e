package renamer

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tidy-app/tidy/pkg/types"
)

// Executor performs the filesystem side of a batch. Proposals run in
// order; one failure never aborts the rest.
type Executor struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, now: time.Now}
}

// ExecuteOptions selects which proposals to run.
type ExecuteOptions struct {
	// ProposalIDs limits execution to these ids; nil runs every proposal.
	ProposalIDs []string
}

// Execute runs the ready proposals and reports per-file outcomes plus the
// directories it had to create, so an undo can remove them again.
func (e *Executor) Execute(proposals []Proposal, opts ExecuteOptions) types.BatchRenameResult {
	return e.run(proposals, opts, false)
}

// Simulate reports what Execute would do without touching the filesystem.
func (e *Executor) Simulate(proposals []Proposal, opts ExecuteOptions) types.BatchRenameResult {
	return e.run(proposals, opts, true)
}

func (e *Executor) run(proposals []Proposal, opts ExecuteOptions, dryRun bool) types.BatchRenameResult {
	startedAt := e.now()

	var selected map[string]bool
	if opts.ProposalIDs != nil {
		selected = make(map[string]bool, len(opts.ProposalIDs))
		for _, id := range opts.ProposalIDs {
			selected[id] = true
		}
	}

	var (
		results     []types.FileRenameResult
		createdDirs []string
		createdSeen = map[string]bool{}
	)

	for _, p := range proposals {
		r := types.FileRenameResult{
			ProposalID:   p.ID,
			OriginalPath: p.OriginalPath,
			OriginalName: p.OriginalName,
			IsFolderMove: p.IsFolderMove,
		}

		switch {
		case selected != nil && !selected[p.ID]:
			r.Outcome = types.OutcomeSkipped
			r.Error = "not selected"
		case p.Status != StatusReady:
			r.Outcome = types.OutcomeSkipped
			r.Error = "status: " + string(p.Status)
		case p.ProposedName == p.OriginalName && !p.IsFolderMove:
			r.Outcome = types.OutcomeSkipped
			r.Error = "no change needed"
		case dryRun:
			newPath := p.ProposedPath
			newName := p.ProposedName
			r.NewPath = &newPath
			r.NewName = &newName
			r.Outcome = types.OutcomeSuccess
		default:
			r = e.renameOne(p, r, &createdDirs, createdSeen)
		}

		results = append(results, r)
	}

	summary := types.BatchRenameSummary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case types.OutcomeSuccess:
			summary.Succeeded++
		case types.OutcomeFailed:
			summary.Failed++
		case types.OutcomeSkipped:
			summary.Skipped++
		}
	}

	completedAt := e.now()
	return types.BatchRenameResult{
		Success:            summary.Failed == 0,
		Results:            results,
		Summary:            summary,
		DirectoriesCreated: createdDirs,
		StartedAt:          startedAt,
		CompletedAt:        completedAt,
		DurationMs:         completedAt.Sub(startedAt).Milliseconds(),
	}
}

func (e *Executor) renameOne(p Proposal, r types.FileRenameResult, createdDirs *[]string, seen map[string]bool) types.FileRenameResult {
	if p.IsFolderMove {
		parent := filepath.Dir(p.ProposedPath)
		// note which ancestors are missing before MkdirAll creates them
		var missing []string
		for dir := parent; ; dir = filepath.Dir(dir) {
			if _, err := os.Stat(dir); err == nil || dir == filepath.Dir(dir) {
				break
			}
			missing = append(missing, dir)
		}
		if len(missing) > 0 {
			if err := os.MkdirAll(parent, 0755); err != nil {
				r.Outcome = types.OutcomeFailed
				r.Error = "failed to create directory: " + err.Error()
				return r
			}
			for _, dir := range missing {
				if !seen[dir] {
					seen[dir] = true
					*createdDirs = append(*createdDirs, dir)
				}
			}
		}
	}

	if err := os.Rename(p.OriginalPath, p.ProposedPath); err != nil {
		e.logger.Warn("rename failed",
			zap.String("from", p.OriginalPath),
			zap.String("to", p.ProposedPath),
			zap.Error(err))
		r.Outcome = types.OutcomeFailed
		r.Error = err.Error()
		return r
	}

	newPath := p.ProposedPath
	newName := p.ProposedName
	r.NewPath = &newPath
	r.NewName = &newName
	r.Outcome = types.OutcomeSuccess
	return r
}

// HistoryEntry converts an execution result into the durable history form.
func HistoryEntry(opType types.OperationType, result types.BatchRenameResult) types.OperationHistoryEntry {
	files := make([]types.FileHistoryRecord, 0, len(result.Results))
	summary := types.OperationSummary{
		Succeeded:          result.Summary.Succeeded,
		Skipped:            result.Summary.Skipped,
		Failed:             result.Summary.Failed,
		DirectoriesCreated: len(result.DirectoriesCreated),
	}
	for _, r := range result.Results {
		files = append(files, types.FileHistoryRecord{
			OriginalPath:    r.OriginalPath,
			NewPath:         r.NewPath,
			IsMoveOperation: r.IsFolderMove,
			Success:         r.Outcome == types.OutcomeSuccess,
			Error:           r.Error,
		})
	}
	return types.OperationHistoryEntry{
		Timestamp:          result.StartedAt.UTC().Format(time.RFC3339),
		OperationType:      opType,
		FileCount:          len(files),
		Summary:            summary,
		DurationMs:         result.DurationMs,
		Files:              files,
		DirectoriesCreated: result.DirectoriesCreated,
	}
}
