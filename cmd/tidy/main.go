package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tidy-app/tidy/internal/config"
	"github.com/tidy-app/tidy/internal/history"
	"github.com/tidy-app/tidy/internal/log"
	"github.com/tidy-app/tidy/internal/pipeline"
	"github.com/tidy-app/tidy/internal/renamer"
	"github.com/tidy-app/tidy/internal/rules"
	"github.com/tidy-app/tidy/internal/undo"
	"github.com/tidy-app/tidy/pkg/types"
)

var (
	appVersion = "0.1.0"

	cfgFile       string
	presetName    string
	source        string
	recursive     bool
	includeHidden bool
	includeExt    []string
	jobs          int
	template      string
	folderPattern string
	baseDir       string
	priorityMode  string
	historyFile   string
	logFile       string
	logJSON       bool
	dryRun        bool

	historyLimit int
	historyType  string
	undoDryRun   bool
	rulesMode    string
	presetDesc   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Rename and organize files by their metadata",
	Long: `Tidy scans a folder, extracts metadata (EXIF, PDF, Office documents),
resolves a naming template per file from your rules, and renames or moves
files into an organized folder structure. Every run is recorded and can
be undone.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the files a run would touch",
	RunE:  runScan,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show proposed renames without changing anything",
	RunE:  runPreview,
}

var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"apply"},
	Short:   "Preview and apply renames in one pass",
	RunE:    runApply,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the rule evaluation order and priority ties",
	RunE:  runRules,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded operations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <operation-id>",
	Short: "Print one operation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded operations",
	RunE:  runHistoryClear,
}

var undoCmd = &cobra.Command{
	Use:   "undo <operation-id>",
	Short: "Reverse a recorded operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runUndo,
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved run configurations",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current flags as a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetSave,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	RunE:  runPresetList,
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetDelete,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetDeleteCmd)
	rootCmd.AddCommand(versionCmd)

	for _, cmd := range []*cobra.Command{scanCmd, previewCmd, runCmd, presetSaveCmd} {
		cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
		cmd.Flags().StringVar(&presetName, "preset", "", "load a saved preset")
		cmd.Flags().StringVarP(&source, "source", "s", "", "folder to organize")
		cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "scan subfolders")
		cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "include hidden files")
		cmd.Flags().StringSliceVarP(&includeExt, "include-ext", "e", nil, "file extensions to include")
		cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of concurrent workers (0=auto)")
		cmd.Flags().StringVarP(&template, "template", "t", "", "naming template, e.g. {date}-{name}.{ext} (empty=resolve from rules)")
		cmd.Flags().StringVar(&folderPattern, "folder-pattern", "", "folder structure pattern, e.g. {year}/{month}")
		cmd.Flags().StringVar(&baseDir, "base-dir", "", "base directory for organized folders")
		cmd.Flags().StringVar(&priorityMode, "priority-mode", "", "rule priority mode: combined, metadata-first, filename-first")
		cmd.Flags().StringVar(&historyFile, "history-file", "", "operation history file path")
		cmd.Flags().StringVar(&logFile, "log-file", "", "log file path")
		cmd.Flags().BoolVar(&logJSON, "log-json", false, "output JSON logs")
	}
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate without renaming")
	presetSaveCmd.Flags().StringVar(&presetDesc, "description", "", "preset description")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum entries to list")
	historyCmd.Flags().StringVar(&historyType, "type", "", "filter by operation type: rename, organize")
	undoCmd.Flags().BoolVar(&undoDryRun, "dry-run", false, "preview the undo without restoring files")
	undoCmd.Flags().StringVar(&historyFile, "history-file", "", "operation history file path")
	historyCmd.PersistentFlags().StringVar(&historyFile, "history-file", "", "operation history file path")
	rulesCmd.Flags().StringVar(&rulesMode, "mode", "", "priority mode to preview (default from config)")
	rulesCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case cfgFile != "":
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case presetName != "":
		pm, err := config.NewPresetManager()
		if err != nil {
			return nil, err
		}
		preset, err := pm.LoadPreset(presetName)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset: %w", err)
		}
		cfg = config.PresetToConfig(preset)
	default:
		cfg = config.DefaultConfig()
	}

	if source != "" {
		cfg.Source = source
	}
	if !recursive {
		cfg.Recursive = false
	}
	if includeHidden {
		cfg.IncludeHidden = true
	}
	if len(includeExt) > 0 {
		cfg.IncludeExtensions = includeExt
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if template != "" {
		cfg.Template = template
	}
	if folderPattern != "" {
		cfg.FolderPattern = folderPattern
	}
	if baseDir != "" {
		cfg.BaseDirectory = baseDir
	}
	if priorityMode != "" {
		cfg.PriorityMode = types.RulePriorityMode(priorityMode)
	}
	if historyFile != "" {
		cfg.HistoryFile = historyFile
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}
	if dryRun {
		cfg.DryRun = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newPipeline(cfg *config.Config) (*pipeline.Pipeline, *zap.Logger, error) {
	logger, err := log.New(log.Options{FilePath: cfg.LogFile, JSON: cfg.LogJSON})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	store := config.NewStore(cfg.AppConfigFile)
	return pipeline.New(cfg, store, logger), logger, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, logger, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	files, err := p.Scan()
	if err != nil {
		return err
	}

	var total int64
	for _, f := range files {
		fmt.Printf("%-10s  %-12s  %s\n", types.FormatBytes(f.Size), f.Category, f.RelativePath)
		total += f.Size
	}
	fmt.Printf("\n%d files, %s\n", len(files), types.FormatBytes(total))
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, logger, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	result, err := p.Preview()
	if err != nil {
		return err
	}
	printPreview(result)
	return nil
}

func printPreview(result *pipeline.PreviewResult) {
	for _, prop := range result.Preview.Proposals {
		switch prop.Status {
		case renamer.StatusReady:
			if prop.IsFolderMove {
				fmt.Printf("  move    %s -> %s\n", prop.OriginalPath, prop.ProposedPath)
			} else {
				fmt.Printf("  rename  %s -> %s\n", prop.OriginalName, prop.ProposedName)
			}
		case renamer.StatusConflict:
			reason := ""
			if prop.Conflict != nil {
				reason = prop.Conflict.Type
			}
			fmt.Printf("  conflict %s (%s)\n", prop.OriginalName, reason)
		case renamer.StatusNoChange:
			fmt.Printf("  keep    %s\n", prop.OriginalName)
		default:
			fmt.Printf("  %-7s %s\n", prop.Status, prop.OriginalName)
		}
	}

	s := result.Preview.Summary
	fmt.Printf("\n%d files: %d ready, %d conflicts, %d unchanged, %d invalid\n",
		s.Total, s.Ready, s.Conflicts, s.NoChange, s.InvalidName)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, logger, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p.SetProgressCallback(func(u pipeline.ProgressUpdate) {
		switch u.Type {
		case "progress":
			fmt.Printf("  [%d/%d] %s\n", u.Current, u.Total, u.Filename)
		case "error":
			fmt.Fprintf(os.Stderr, "  error: %s: %s\n", u.Filename, u.Error)
		}
	})

	preview, result, err := p.Run()
	if err != nil {
		return err
	}

	printPreview(preview)
	if cfg.DryRun {
		fmt.Println("\ndry run: no files were changed")
	}
	fmt.Printf("\n%d succeeded, %d failed, %d skipped\n",
		result.Summary.Succeeded, result.Summary.Failed, result.Summary.Skipped)
	for _, dir := range result.DirectoriesCreated {
		fmt.Printf("  created %s\n", dir)
	}
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if rulesMode == "" {
		rulesMode = string(cfg.PriorityMode)
	}
	if rulesMode == "" {
		rulesMode = string(types.PriorityCombined)
	}
	mgr := rules.NewManager(config.NewStore(cfg.AppConfigFile))

	preview, err := mgr.PreviewRulePriority(types.RulePriorityMode(rulesMode))
	if err != nil {
		return err
	}

	fmt.Printf("evaluation order (%s):\n", rulesMode)
	for i, ref := range preview.Order {
		fmt.Printf("  %2d. [%-8s] %-30s priority=%d\n", i+1, ref.Family, ref.Name, ref.Priority)
	}
	if len(preview.Ties) > 0 {
		fmt.Println("\npriority ties (order among these is unspecified):")
		for _, tie := range preview.Ties {
			fmt.Printf("  priority %d:\n", tie.Priority)
			for _, ref := range tie.Rules {
				fmt.Printf("    [%-8s] %s\n", ref.Family, ref.Name)
			}
		}
	}
	return nil
}

func historyStore() *history.Store {
	cfg := config.DefaultConfig()
	if historyFile != "" {
		cfg.HistoryFile = historyFile
	}
	return history.New(cfg.HistoryFile)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store := historyStore()
	entries, err := store.Query(history.QueryOptions{
		Limit: historyLimit,
		Type:  types.OperationType(historyType),
	})
	if err != nil {
		return err
	}

	for _, e := range entries {
		undone := ""
		if e.UndoneAt != nil {
			undone = "  (undone)"
		}
		fmt.Printf("%s  %-19s  %-8s  %d files%s\n", e.ID, e.Timestamp, e.OperationType, e.FileCount, undone)
	}
	fmt.Printf("\n%d operations\n", len(entries))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	entry, err := historyStore().Get(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	return historyStore().Clear()
}

func runUndo(cmd *cobra.Command, args []string) error {
	logger, err := log.New(log.Options{FilePath: logFile, JSON: logJSON})
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := undo.New(historyStore(), logger)

	var result types.UndoResult
	if undoDryRun {
		result, err = engine.Preview(args[0])
	} else {
		result, err = engine.Undo(args[0])
	}
	if err != nil {
		return err
	}

	for _, f := range result.Files {
		status := "restored"
		switch {
		case f.SkipReason != "":
			status = "skipped"
		case !f.Success:
			status = "failed"
		}
		fmt.Printf("  %-8s %s\n", status, f.OriginalPath)
	}
	fmt.Printf("\n%d restored, %d skipped, %d failed\n",
		result.FilesRestored, result.FilesSkipped, result.FilesFailed)
	if result.DryRun {
		fmt.Println("dry run: no files were changed")
	}
	return nil
}

func runPresetSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}
	if err := pm.SavePreset(config.ConfigToPreset(cfg, args[0], presetDesc)); err != nil {
		return err
	}
	fmt.Printf("saved preset %q\n", args[0])
	return nil
}

func runPresetList(cmd *cobra.Command, args []string) error {
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}
	presets, err := pm.ListPresets()
	if err != nil {
		return err
	}
	for _, p := range presets {
		fmt.Printf("%-20s  %s\n", p.Name, p.Description)
	}
	fmt.Printf("\n%d presets\n", len(presets))
	return nil
}

func runPresetDelete(cmd *cobra.Command, args []string) error {
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}
	if err := pm.DeletePreset(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted preset %q\n", args[0])
	return nil
}
