package renamer

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidy-app/tidy/pkg/types"
)

// RenameStatus is the readiness of one proposal.
type RenameStatus string

const (
	StatusReady       RenameStatus = "ready"
	StatusNoChange    RenameStatus = "no-change"
	StatusConflict    RenameStatus = "conflict"
	StatusInvalidName RenameStatus = "invalid-name"
)

// ActionType says what executing a proposal would do.
type ActionType string

const (
	ActionRename   ActionType = "rename"
	ActionMove     ActionType = "move"
	ActionNoChange ActionType = "no-change"
	ActionConflict ActionType = "conflict"
	ActionError    ActionType = "error"
)

// Issue is a machine-readable problem attached to a proposal.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Conflict carries the detail behind a conflict status.
type Conflict struct {
	Type              string  `json:"type"`
	Message           string  `json:"message"`
	ConflictingFileID *string `json:"conflictingFileId,omitempty"`
	ExistingFilePath  *string `json:"existingFilePath,omitempty"`
}

// Proposal is one file's planned rename/move.
type Proposal struct {
	ID                string       `json:"id"`
	OriginalPath      string       `json:"originalPath"`
	OriginalName      string       `json:"originalName"`
	ProposedName      string       `json:"proposedName"`
	ProposedPath      string       `json:"proposedPath"`
	Status            RenameStatus `json:"status"`
	Action            ActionType   `json:"action"`
	Issues            []Issue      `json:"issues,omitempty"`
	MetadataSources   []string     `json:"metadataSources,omitempty"`
	IsFolderMove      bool         `json:"isFolderMove"`
	DestinationFolder *string      `json:"destinationFolder,omitempty"`
	Conflict          *Conflict    `json:"conflict,omitempty"`
}

// PreviewSummary counts proposals by status.
type PreviewSummary struct {
	Total       int `json:"total"`
	Ready       int `json:"ready"`
	Conflicts   int `json:"conflicts"`
	NoChange    int `json:"noChange"`
	InvalidName int `json:"invalidName"`
}

// Preview is a full dry-run over a batch of files.
type Preview struct {
	Proposals    []Proposal     `json:"proposals"`
	Summary      PreviewSummary `json:"summary"`
	GeneratedAt  time.Time      `json:"generatedAt"`
	TemplateUsed string         `json:"templateUsed"`
}

// PreviewOptions configures GeneratePreview.
type PreviewOptions struct {
	Template TemplateOptions
	// FolderPattern, when set, switches to organize mode: files move into
	// the expanded folder under BaseDirectory (or their own directory).
	FolderPattern string
	BaseDirectory string
	// MetadataFor returns extracted metadata for a file, nil when none.
	MetadataFor func(types.FileInfo) *types.UnifiedMetadata
	// TemplateFor overrides the batch template per file. An empty return
	// falls back to the batch template.
	TemplateFor func(types.FileInfo) string
}

// GeneratePreview plans the batch in three passes: build each proposal,
// then mark duplicate proposed paths within the batch, then mark proposed
// paths already occupied on disk. Only ready proposals get demoted by the
// conflict passes, so an invalid name keeps its more specific status.
func GeneratePreview(files []types.FileInfo, templatePattern string, opts PreviewOptions) Preview {
	proposals := make([]Proposal, 0, len(files))
	byPath := make(map[string][]int)

	for _, file := range files {
		var meta *types.UnifiedMetadata
		if opts.MetadataFor != nil {
			meta = opts.MetadataFor(file)
		}

		pattern := templatePattern
		if opts.TemplateFor != nil {
			if override := opts.TemplateFor(file); override != "" {
				pattern = override
			}
		}
		proposedName, sources := ApplyTemplate(file, meta, pattern, opts.Template)

		sourceDir := filepath.Dir(file.Path)
		destDir := sourceDir
		isMove := false
		var destFolder *string
		if opts.FolderPattern != "" {
			folder := ApplyFolderPattern(file, meta, opts.FolderPattern)
			base := opts.BaseDirectory
			if base == "" {
				base = sourceDir
			}
			destDir = filepath.Join(base, filepath.FromSlash(folder))
			if destDir != sourceDir {
				isMove = true
				destFolder = &folder
			}
		}

		p := Proposal{
			ID:                uuid.NewString(),
			OriginalPath:      file.Path,
			OriginalName:      file.FullName,
			ProposedName:      proposedName,
			ProposedPath:      filepath.Join(destDir, proposedName),
			Status:            StatusReady,
			MetadataSources:   sources,
			IsFolderMove:      isMove,
			DestinationFolder: destFolder,
		}
		if isMove {
			p.Action = ActionMove
		} else {
			p.Action = ActionRename
		}

		if proposedName == file.FullName && !isMove {
			p.Status = StatusNoChange
			p.Action = ActionNoChange
		}
		if !IsValidFilename(proposedName) {
			p.Status = StatusInvalidName
			p.Action = ActionError
			p.Issues = append(p.Issues, Issue{
				Code:    "INVALID_NAME",
				Message: "Proposed filename contains invalid characters",
			})
		}

		key := strings.ToLower(p.ProposedPath)
		byPath[key] = append(byPath[key], len(proposals))
		proposals = append(proposals, p)
	}

	// batch duplicates
	for key, idxs := range byPath {
		if len(idxs) < 2 {
			continue
		}
		for n, i := range idxs {
			p := &proposals[i]
			if p.Status != StatusReady {
				continue
			}
			other := idxs[0]
			if n == 0 {
				other = idxs[1]
			}
			otherID := proposals[other].ID
			p.Status = StatusConflict
			p.Action = ActionConflict
			p.Issues = append(p.Issues, Issue{
				Code:    "DUPLICATE_NAME",
				Message: "Another file would have the same name (" + key + ")",
			})
			p.Conflict = &Conflict{
				Type:              "duplicate-name",
				Message:           "Another file in this batch would have the same name",
				ConflictingFileID: &otherID,
			}
		}
	}

	// filesystem occupancy
	for i := range proposals {
		p := &proposals[i]
		if p.Status != StatusReady || p.ProposedPath == p.OriginalPath {
			continue
		}
		if _, err := os.Stat(p.ProposedPath); err == nil {
			existing := p.ProposedPath
			p.Status = StatusConflict
			p.Action = ActionConflict
			p.Issues = append(p.Issues, Issue{
				Code:    "FILE_EXISTS",
				Message: "A file with this name already exists",
			})
			p.Conflict = &Conflict{
				Type:             "file-exists",
				Message:          "A file already exists at the proposed path",
				ExistingFilePath: &existing,
			}
		}
	}

	summary := PreviewSummary{Total: len(proposals)}
	for _, p := range proposals {
		switch p.Status {
		case StatusReady:
			summary.Ready++
		case StatusConflict:
			summary.Conflicts++
		case StatusNoChange:
			summary.NoChange++
		case StatusInvalidName:
			summary.InvalidName++
		}
	}

	return Preview{
		Proposals:    proposals,
		Summary:      summary,
		GeneratedAt:  time.Now(),
		TemplateUsed: templatePattern,
	}
}
