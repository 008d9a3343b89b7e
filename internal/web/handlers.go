package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tidy-app/tidy/internal/config"
	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/internal/pipeline"
	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/internal/scanner"
	"github.com/tidy-app/tidy/internal/undo"
	"github.com/tidy-app/tidy/pkg/types"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ValidationError{
		Field:   field,
		Message: message,
	})
}

// Version handler

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}

// Browse handler

type BrowseResponse struct {
	Path    string     `json:"path"`
	Entries []DirEntry `json:"entries"`
}

type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = homeDir
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, os.ErrPermission) {
			writeAPIError(w, http.StatusForbidden, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var dirEntries []DirEntry
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			continue
		}
		dirEntries = append(dirEntries, DirEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(path, entry.Name()),
			IsDir: entry.IsDir(),
		})
	}

	writeJSON(w, BrowseResponse{Path: path, Entries: dirEntries})
}

// App config handlers

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.Load()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.Save(&cfg); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// Scan / preview / apply handlers

type ScanRequest struct {
	Path          string   `json:"path"`
	Recursive     bool     `json:"recursive"`
	IncludeHidden bool     `json:"includeHidden"`
	Extensions    []string `json:"extensions,omitempty"`
}

type ScanResponse struct {
	Files              []types.FileInfo `json:"files"`
	Count              int              `json:"count"`
	TotalSize          int64            `json:"totalSize"`
	TotalSizeFormatted string           `json:"totalSizeFormatted"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Path == "" {
		writeValidationError(w, "path", "path is required")
		return
	}

	sc := scanner.New(
		scanner.Recursive(req.Recursive),
		scanner.IncludeHidden(req.IncludeHidden),
		scanner.Extensions(req.Extensions),
	)
	files, err := sc.Scan(req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var totalSize int64
	for _, f := range files {
		totalSize += f.Size
	}

	writeJSON(w, ScanResponse{
		Files:              files,
		Count:              len(files),
		TotalSize:          totalSize,
		TotalSizeFormatted: types.FormatBytes(totalSize),
	})
}

type PreviewRequest struct {
	Path          string                 `json:"path"`
	Recursive     bool                   `json:"recursive"`
	IncludeHidden bool                   `json:"includeHidden"`
	Extensions    []string               `json:"extensions,omitempty"`
	Template      string                 `json:"template,omitempty"`
	FolderPattern string                 `json:"folderPattern,omitempty"`
	BaseDirectory string                 `json:"baseDirectory,omitempty"`
	PriorityMode  types.RulePriorityMode `json:"priorityMode,omitempty"`
	Jobs          int                    `json:"jobs,omitempty"`
}

func (r *PreviewRequest) toConfig(base *config.Config) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source = r.Path
	cfg.Recursive = r.Recursive
	cfg.IncludeHidden = r.IncludeHidden
	cfg.IncludeExtensions = r.Extensions
	cfg.Template = r.Template
	cfg.FolderPattern = r.FolderPattern
	cfg.BaseDirectory = r.BaseDirectory
	cfg.PriorityMode = r.PriorityMode
	if r.Jobs > 0 {
		cfg.Jobs = r.Jobs
	}
	if base != nil {
		cfg.HistoryFile = base.HistoryFile
		cfg.LogFile = base.LogFile
	}
	return cfg
}

// SetBaseConfig sets process-level defaults (history file, log file)
// applied to every request's run config.
func (s *Server) SetBaseConfig(cfg *config.Config) {
	s.baseCfg = cfg
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := req.toConfig(s.baseCfg)
	if err := cfg.Validate(); err != nil {
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Field, validationErr.Message)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p := pipeline.New(cfg, s.store, s.logger)
	result, err := p.Preview()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.lastPreview = result
	s.lastRunCfg = cfg
	s.mu.Unlock()

	writeJSON(w, result)
}

type ApplyRequest struct {
	ProposalIDs []string `json:"proposalIds,omitempty"`
	DryRun      bool     `json:"dryRun"`
}

type ApplyResponse struct {
	Result       types.BatchRenameResult      `json:"result"`
	HistoryEntry *types.OperationHistoryEntry `json:"historyEntry,omitempty"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	preview := s.lastPreview
	cfg := s.lastRunCfg
	s.mu.Unlock()

	if preview == nil {
		writeAPIError(w, http.StatusConflict, "no preview to apply; call /api/preview first")
		return
	}

	runCfg := *cfg
	runCfg.DryRun = req.DryRun

	p := pipeline.New(&runCfg, s.store, s.logger)
	p.SetProgressCallback(s.broadcastProgress)

	result, entry, err := p.Apply(preview.Preview, req.ProposalIDs)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ApplyResponse{Result: result}
	if entry.ID != "" {
		resp.HistoryEntry = &entry
	}

	s.mu.Lock()
	s.lastPreview = nil
	s.mu.Unlock()

	summary := result.Summary
	s.broadcastProgress(pipeline.ProgressUpdate{Type: "complete", Summary: &summary})
	writeJSON(w, resp)
}

var runMutex sync.Mutex

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !runMutex.TryLock() {
		writeAPIError(w, http.StatusConflict, "a batch is already running")
		return
	}

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		runMutex.Unlock()
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := req.toConfig(s.baseCfg)
	if err := cfg.Validate(); err != nil {
		runMutex.Unlock()
		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			writeValidationError(w, validationErr.Field, validationErr.Message)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]string{"status": "started"})

	go func() {
		defer runMutex.Unlock()
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("run panicked", zap.Any("panic", rec))
				s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: "internal server error"})
			}
		}()

		p := pipeline.New(cfg, s.store, s.logger)
		p.SetProgressCallback(s.broadcastProgress)

		if _, _, err := p.Run(); err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
		}
	}()
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.hub.broadcast <- data
}

func (s *Server) broadcastProgress(update pipeline.ProgressUpdate) {
	s.broadcastJSON(update)
}

// Rule handlers

type RulesResponse struct {
	Rules         []types.MetadataPatternRule `json:"rules"`
	FilenameRules []types.FilenameRule        `json:"filenameRules"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	metaRules, err := s.rules.Rules()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fnameRules, err := s.rules.FilenameRules()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, RulesResponse{Rules: metaRules, FilenameRules: fnameRules})
}

func (s *Server) handleCreateMetadataRule(w http.ResponseWriter, r *http.Request) {
	var rule types.MetadataPatternRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.rules.CreateRule(rule)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, created)
}

func (s *Server) handleUpdateMetadataRule(w http.ResponseWriter, r *http.Request) {
	var rule types.MetadataPatternRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = mux.Vars(r)["id"]

	updated, err := s.rules.UpdateRule(rule)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteMetadataRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteRule(mux.Vars(r)["id"]); err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateFilenameRule(w http.ResponseWriter, r *http.Request) {
	var rule types.FilenameRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.rules.CreateFilenameRule(rule)
	if err != nil {
		var globErr *rules.GlobError
		if errors.As(err, &globErr) {
			writeValidationError(w, "pattern", globErr.Error())
			return
		}
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, created)
}

func (s *Server) handleUpdateFilenameRule(w http.ResponseWriter, r *http.Request) {
	var rule types.FilenameRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.ID = mux.Vars(r)["id"]

	updated, err := s.rules.UpdateFilenameRule(rule)
	if err != nil {
		var globErr *rules.GlobError
		if errors.As(err, &globErr) {
			writeValidationError(w, "pattern", globErr.Error())
			return
		}
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteFilenameRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteFilenameRule(mux.Vars(r)["id"]); err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func priorityMode(raw string) (types.RulePriorityMode, bool) {
	switch types.RulePriorityMode(raw) {
	case "":
		return types.PriorityCombined, true
	case types.PriorityCombined, types.PriorityMetadataFirst, types.PriorityFilenameFirst:
		return types.RulePriorityMode(raw), true
	default:
		return "", false
	}
}

func (s *Server) handlePriorityPreview(w http.ResponseWriter, r *http.Request) {
	mode, ok := priorityMode(r.URL.Query().Get("mode"))
	if !ok {
		writeValidationError(w, "mode", "unknown priority mode")
		return
	}

	preview, err := s.rules.PreviewRulePriority(mode)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, preview)
}

type SetPriorityRequest struct {
	RuleID   string                 `json:"ruleId"`
	Family   types.RuleFamily       `json:"family"`
	Priority int                    `json:"priority"`
	Mode     types.RulePriorityMode `json:"mode,omitempty"`
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req SetPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, ok := priorityMode(string(req.Mode))
	if !ok {
		writeValidationError(w, "mode", "unknown priority mode")
		return
	}

	if err := s.rules.SetUnifiedRulePriority(req.RuleID, req.Family, req.Priority, mode); err != nil {
		var priorityErr *rules.RulePriorityError
		if errors.As(err, &priorityErr) {
			writeValidationError(w, "ruleId", priorityErr.Reason)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

type ReorderRequest struct {
	Order []rules.ReorderKey     `json:"order"`
	Mode  types.RulePriorityMode `json:"mode,omitempty"`
}

func (s *Server) handleReorderRules(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, ok := priorityMode(string(req.Mode))
	if !ok {
		writeValidationError(w, "mode", "unknown priority mode")
		return
	}

	if err := s.rules.ReorderUnifiedRules(req.Order, mode); err != nil {
		var priorityErr *rules.RulePriorityError
		if errors.As(err, &priorityErr) {
			writeValidationError(w, "order", priorityErr.Reason)
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// History and undo handlers

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := s.history.Query(history.QueryOptions{
		Limit: limit,
		Type:  types.OperationType(r.URL.Query().Get("type")),
	})
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := s.history.Get(mux.Vars(r)["id"])
	if err != nil {
		var notFound *history.ErrNotFound
		if errors.As(err, &notFound) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, entry)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func undoStatus(err error) int {
	var undoErr *undo.Error
	if errors.As(err, &undoErr) {
		switch undoErr.Code {
		case undo.CodeNotFound:
			return http.StatusNotFound
		case undo.CodeAlreadyUndone:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) handleUndoPreview(w http.ResponseWriter, r *http.Request) {
	result, err := s.undo.Preview(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, undoStatus(err), err.Error())
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	result, err := s.undo.Undo(mux.Vars(r)["id"])
	if err != nil {
		writeAPIError(w, undoStatus(err), err.Error())
		return
	}
	writeJSON(w, result)
}

// Preset handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	presets, err := pm.ListPresets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Config      config.Config `json:"config"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset := config.ConfigToPreset(&req.Config, req.Name, req.Description)
	if err := pm.SavePreset(preset); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	preset, err := pm.LoadPreset(name)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, config.PresetToConfig(preset))
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := pm.DeletePreset(name); err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
