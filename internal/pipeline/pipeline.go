package pipeline

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tidy-app/tidy/internal/config"
	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/internal/metadata"
	"github.com/tidy-app/tidy/internal/renamer"
	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/internal/scanner"
	"github.com/tidy-app/tidy/pkg/types"
)

// identityTemplate renames a file to itself; used when no rule matches and
// no default template exists.
const identityTemplate = "{name}.{ext}"

// Pipeline wires scanning, metadata extraction, rule resolution, preview
// and execution into one flow.
type Pipeline struct {
	cfg              *config.Config
	store            *config.Store
	scanner          *scanner.Scanner
	meta             *metadata.Extractor
	executor         *renamer.Executor
	history          *history.Store
	logger           *zap.Logger
	progressCallback ProgressCallback
}

func New(cfg *config.Config, store *config.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:   cfg,
		store: store,
		scanner: scanner.New(
			scanner.Recursive(cfg.Recursive),
			scanner.IncludeHidden(cfg.IncludeHidden),
			scanner.Extensions(cfg.IncludeExtensions),
		),
		meta:     metadata.New(),
		executor: renamer.NewExecutor(logger),
		history:  history.New(cfg.HistoryFile),
		logger:   logger,
	}
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

// History exposes the operation history store backing this pipeline.
func (p *Pipeline) History() *history.Store {
	return p.history
}

func (p *Pipeline) emit(update ProgressUpdate) {
	if p.progressCallback != nil {
		p.progressCallback(update)
	}
}

// AnalyzedFile pairs a scanned file with its extracted metadata.
type AnalyzedFile struct {
	File types.FileInfo        `json:"file"`
	Meta types.UnifiedMetadata `json:"metadata"`
}

// PreviewResult is the outcome of the scan/analyze/resolve/preview stages.
type PreviewResult struct {
	Files       []AnalyzedFile                            `json:"files"`
	Preview     renamer.Preview                           `json:"preview"`
	Resolutions map[string]rules.TemplateResolutionResult `json:"resolutions,omitempty"`
}

// Scan walks the configured source directory.
func (p *Pipeline) Scan() ([]types.FileInfo, error) {
	p.logger.Info("starting scan", zap.String("source", p.cfg.Source))
	p.emit(ProgressUpdate{Type: "status", Message: "Scanning files..."})

	files, err := p.scanner.Scan(p.cfg.Source)
	if err != nil {
		return nil, err
	}

	p.logger.Info("scan complete", zap.Int("files", len(files)))
	p.emit(ProgressUpdate{
		Type:    "status",
		Message: "Found " + strconv.Itoa(len(files)) + " files",
		Total:   len(files),
	})
	return files, nil
}

// Analyze extracts metadata for every file using a worker pool.
func (p *Pipeline) Analyze(files []types.FileInfo) []AnalyzedFile {
	out := make([]AnalyzedFile, len(files))

	jobs := p.cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	idxChan := make(chan int, len(files))
	var done int64

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				out[idx] = AnalyzedFile{File: files[idx], Meta: p.meta.Extract(files[idx])}
				if n := atomic.AddInt64(&done, 1); n%100 == 0 {
					p.emit(ProgressUpdate{
						Type:    "analysis_progress",
						Message: "Extracting metadata...",
						Current: int(n),
						Total:   len(files),
					})
				}
			}
		}()
	}

	for i := range files {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	p.emit(ProgressUpdate{
		Type:    "analysis_progress",
		Message: "Metadata extraction complete",
		Current: len(files),
		Total:   len(files),
	})
	return out
}

// Preview runs scan, analyze and rule resolution, then plans the batch.
// An explicit template in the run config overrides rule resolution.
func (p *Pipeline) Preview() (*PreviewResult, error) {
	files, err := p.Scan()
	if err != nil {
		return nil, err
	}

	analyzed := p.Analyze(files)

	metaByPath := make(map[string]*types.UnifiedMetadata, len(analyzed))
	for i := range analyzed {
		metaByPath[analyzed[i].File.Path] = &analyzed[i].Meta
	}

	opts := renamer.PreviewOptions{
		FolderPattern: p.cfg.FolderPattern,
		BaseDirectory: p.cfg.BaseDirectory,
		MetadataFor: func(f types.FileInfo) *types.UnifiedMetadata {
			return metaByPath[f.Path]
		},
	}

	result := &PreviewResult{Files: analyzed}

	batchTemplate := p.cfg.Template
	if batchTemplate == "" {
		appCfg, err := p.store.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load app config: %w", err)
		}

		mode := p.cfg.PriorityMode
		if mode == "" {
			mode = appCfg.Preferences.RulePriorityMode
		}

		resolver := rules.NewTemplateResolver(mode, appCfg.Rules, appCfg.FilenameRules, appCfg.Templates)
		patterns := make(map[string]string, len(appCfg.Templates))
		for _, tpl := range appCfg.Templates {
			patterns[tpl.ID] = tpl.Pattern
		}

		result.Resolutions = make(map[string]rules.TemplateResolutionResult, len(files))
		batchTemplate = identityTemplate
		opts.TemplateFor = func(f types.FileInfo) string {
			res := resolver.ResolveTemplate(f, metaByPath[f.Path])
			result.Resolutions[f.Path] = res
			if res.TemplateID == nil {
				return ""
			}
			return patterns[*res.TemplateID]
		}
	}

	result.Preview = renamer.GeneratePreview(files, batchTemplate, opts)
	return result, nil
}

// Apply executes the planned batch and records it in history. In dry-run
// mode nothing touches the disk and nothing is recorded.
func (p *Pipeline) Apply(preview renamer.Preview, proposalIDs []string) (types.BatchRenameResult, types.OperationHistoryEntry, error) {
	opType := types.OperationRename
	if p.cfg.FolderPattern != "" {
		opType = types.OperationOrganize
	}

	if p.cfg.DryRun {
		result := p.executor.Simulate(preview.Proposals, renamer.ExecuteOptions{ProposalIDs: proposalIDs})
		return result, types.OperationHistoryEntry{}, nil
	}

	result := p.executor.Execute(preview.Proposals, renamer.ExecuteOptions{ProposalIDs: proposalIDs})

	for i, r := range result.Results {
		p.emit(ProgressUpdate{
			Type:     "progress",
			Current:  i + 1,
			Total:    len(result.Results),
			Filename: r.OriginalName,
		})
	}

	entry, err := p.history.Record(renamer.HistoryEntry(opType, result))
	if err != nil {
		p.logger.Error("failed to record history", zap.Error(err))
		return result, types.OperationHistoryEntry{}, err
	}

	return result, entry, nil
}

// Run performs the whole flow: preview, execute every ready proposal,
// record history and report a summary.
func (p *Pipeline) Run() (*PreviewResult, types.BatchRenameResult, error) {
	previewResult, err := p.Preview()
	if err != nil {
		p.emit(ProgressUpdate{Type: "error", Error: err.Error()})
		return nil, types.BatchRenameResult{}, err
	}

	result, _, err := p.Apply(previewResult.Preview, nil)
	if err != nil {
		p.emit(ProgressUpdate{Type: "error", Error: err.Error()})
		return previewResult, result, err
	}

	summary := result.Summary
	p.emit(ProgressUpdate{Type: "complete", Summary: &summary})

	p.logger.Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return previewResult, result, nil
}
