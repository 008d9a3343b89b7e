// Package types defines core data structures shared across tidy modules.
package types

import (
	"time"
)

// FileCategory classifies a file by its extension.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryDocument FileCategory = "document"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryArchive  FileCategory = "archive"
	CategoryCode     FileCategory = "code"
	CategoryData     FileCategory = "data"
	CategoryOther    FileCategory = "other"
)

// MetadataCapability describes how much metadata can be extracted for a file.
type MetadataCapability string

const (
	CapabilityNone     MetadataCapability = "none"
	CapabilityBasic    MetadataCapability = "basic"
	CapabilityExtended MetadataCapability = "extended"
	CapabilityFull     MetadataCapability = "full"
)

// FileInfo represents a scanned file.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`
	// Name is the filename without extension.
	Name string `json:"name"`
	// Extension is the lowercase extension without dot (e.g. "jpg").
	Extension string `json:"extension"`
	// FullName is the filename with extension.
	FullName string `json:"fullName"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// CreatedAt is the file creation time (best effort, falls back to mtime).
	CreatedAt time.Time `json:"createdAt"`
	// ModifiedAt is the file modification time.
	ModifiedAt time.Time `json:"modifiedAt"`
	// RelativePath is the path relative to the scan root.
	RelativePath string `json:"relativePath"`
	// Category is the extension-based classification.
	Category FileCategory `json:"category"`
	// MetadataSupported indicates whether an extractor exists for this file.
	MetadataSupported bool `json:"metadataSupported"`
	// MetadataCapability is the extraction depth available.
	MetadataCapability MetadataCapability `json:"metadataCapability"`
}

// ExtractionStatus reports the outcome of metadata extraction.
type ExtractionStatus string

const (
	ExtractionSuccess     ExtractionStatus = "success"
	ExtractionPartial     ExtractionStatus = "partial"
	ExtractionFailed      ExtractionStatus = "failed"
	ExtractionUnsupported ExtractionStatus = "unsupported"
)

// GPSCoordinates holds a decimal-degree position from EXIF.
type GPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ImageMetadata holds EXIF fields. All fields are nullable; a nil pointer
// means the tag was absent from the file.
type ImageMetadata struct {
	DateTaken   *time.Time      `json:"dateTaken,omitempty"`
	CameraMake  *string         `json:"cameraMake,omitempty"`
	CameraModel *string         `json:"cameraModel,omitempty"`
	GPS         *GPSCoordinates `json:"gps,omitempty"`
	Width       *int            `json:"width,omitempty"`
	Height      *int            `json:"height,omitempty"`
	Orientation *int            `json:"orientation,omitempty"`
	// ExposureTime is the shutter speed as a string fraction (e.g. "1/250").
	ExposureTime *string  `json:"exposureTime,omitempty"`
	FNumber      *float64 `json:"fNumber,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
}

// PDFMetadata holds document information dictionary fields.
type PDFMetadata struct {
	Title        *string    `json:"title,omitempty"`
	Author       *string    `json:"author,omitempty"`
	Subject      *string    `json:"subject,omitempty"`
	Keywords     *string    `json:"keywords,omitempty"`
	Creator      *string    `json:"creator,omitempty"`
	Producer     *string    `json:"producer,omitempty"`
	CreationDate *time.Time `json:"creationDate,omitempty"`
	ModDate      *time.Time `json:"modDate,omitempty"`
	PageCount    *int       `json:"pageCount,omitempty"`
}

// OfficeMetadata holds Dublin-Core and application properties from
// docx/xlsx/pptx packages.
type OfficeMetadata struct {
	Title          *string    `json:"title,omitempty"`
	Subject        *string    `json:"subject,omitempty"`
	Creator        *string    `json:"creator,omitempty"`
	Keywords       *string    `json:"keywords,omitempty"`
	Description    *string    `json:"description,omitempty"`
	LastModifiedBy *string    `json:"lastModifiedBy,omitempty"`
	Created        *time.Time `json:"created,omitempty"`
	Modified       *time.Time `json:"modified,omitempty"`
	Application    *string    `json:"application,omitempty"`
	Company        *string    `json:"company,omitempty"`
	PageCount      *int       `json:"pageCount,omitempty"`
	WordCount      *int       `json:"wordCount,omitempty"`
}

// UnifiedMetadata is the extractor-agnostic metadata record for one file.
// At most one of Image/PDF/Office is non-nil; all are nil when extraction
// failed or the file type is unsupported.
type UnifiedMetadata struct {
	File             FileInfo         `json:"file"`
	Image            *ImageMetadata   `json:"image,omitempty"`
	PDF              *PDFMetadata     `json:"pdf,omitempty"`
	Office           *OfficeMetadata  `json:"office,omitempty"`
	ExtractionStatus ExtractionStatus `json:"extractionStatus"`
	ExtractionError  string           `json:"extractionError,omitempty"`
}

// ConditionOperator identifies a rule condition comparison.
type ConditionOperator string

const (
	OpEquals       ConditionOperator = "equals"
	OpNotEquals    ConditionOperator = "not-equals"
	OpContains     ConditionOperator = "contains"
	OpStartsWith   ConditionOperator = "starts-with"
	OpEndsWith     ConditionOperator = "ends-with"
	OpGreaterThan  ConditionOperator = "greater-than"
	OpLessThan     ConditionOperator = "less-than"
	OpExists       ConditionOperator = "exists"
	OpNotExists    ConditionOperator = "not-exists"
	OpMatchesRegex ConditionOperator = "matches-regex"
)

// Condition is one field/operator/value predicate inside a metadata rule.
type Condition struct {
	// Field is a dotted path into UnifiedMetadata (e.g. "image.cameraMake").
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	// Value is the comparison operand; ignored by exists/not-exists.
	Value any `json:"value,omitempty"`
}

// MatchMode combines a rule's conditions.
type MatchMode string

const (
	// MatchAll requires every condition to match (AND).
	MatchAll MatchMode = "all"
	// MatchAny requires at least one condition to match (OR).
	MatchAny MatchMode = "any"
)

// MetadataPatternRule matches files by metadata conditions and selects a
// naming template.
type MetadataPatternRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	MatchMode  MatchMode   `json:"matchMode"`
	// Priority orders evaluation; higher values are evaluated first.
	Priority   int    `json:"priority"`
	Enabled    bool   `json:"enabled"`
	TemplateID string `json:"templateId"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// FilenameRule matches files by a glob over the full filename.
type FilenameRule struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Pattern is a glob with brace expansion (e.g. "*.{jpg,png}").
	Pattern    string `json:"pattern"`
	Priority   int    `json:"priority"`
	Enabled    bool   `json:"enabled"`
	TemplateID string `json:"templateId"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// RuleFamily tags which rule collection an entry belongs to.
type RuleFamily string

const (
	FamilyMetadata RuleFamily = "metadata"
	FamilyFilename RuleFamily = "filename"
)

// RulePriorityMode governs how the two rule families are interleaved.
type RulePriorityMode string

const (
	// PriorityCombined merges both families into one priority-sorted list.
	PriorityCombined RulePriorityMode = "combined"
	// PriorityMetadataFirst evaluates all metadata rules before any filename rule.
	PriorityMetadataFirst RulePriorityMode = "metadata-first"
	// PriorityFilenameFirst evaluates all filename rules before any metadata rule.
	PriorityFilenameFirst RulePriorityMode = "filename-first"
)

// Template is a naming pattern with placeholders.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Pattern uses placeholders like {date}, {name}, {camera}.
	Pattern   string   `json:"pattern"`
	FileTypes []string `json:"fileTypes,omitempty"`
	IsDefault bool     `json:"isDefault"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// FolderStructure defines a directory pattern for organize mode.
type FolderStructure struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	Priority    int    `json:"priority"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// OperationType classifies a recorded batch operation.
type OperationType string

const (
	OperationRename   OperationType = "rename"
	OperationMove     OperationType = "move"
	OperationOrganize OperationType = "organize"
)

// FileHistoryRecord is the durable trace of one file inside a batch operation.
type FileHistoryRecord struct {
	OriginalPath    string  `json:"originalPath"`
	NewPath         *string `json:"newPath,omitempty"`
	IsMoveOperation bool    `json:"isMoveOperation"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
}

// OperationSummary aggregates per-file outcomes of a batch operation.
type OperationSummary struct {
	Succeeded          int `json:"succeeded"`
	Skipped            int `json:"skipped"`
	Failed             int `json:"failed"`
	DirectoriesCreated int `json:"directoriesCreated"`
}

// OperationHistoryEntry is the record of one batch rename/move operation.
// Entries are immutable after creation except for UndoneAt, which a
// successful undo sets exactly once.
type OperationHistoryEntry struct {
	ID                 string              `json:"id"`
	Timestamp          string              `json:"timestamp"`
	OperationType      OperationType       `json:"operationType"`
	FileCount          int                 `json:"fileCount"`
	Summary            OperationSummary    `json:"summary"`
	DurationMs         int64               `json:"durationMs"`
	Files              []FileHistoryRecord `json:"files"`
	DirectoriesCreated []string            `json:"directoriesCreated,omitempty"`
	UndoneAt           *string             `json:"undoneAt,omitempty"`
}

// UndoFileResult reports the undo outcome for one file.
type UndoFileResult struct {
	OriginalPath string  `json:"originalPath"`
	CurrentPath  *string `json:"currentPath,omitempty"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
	SkipReason   string  `json:"skipReason,omitempty"`
}

// UndoResult is the outcome of undoing one history entry.
type UndoResult struct {
	OperationID        string           `json:"operationId"`
	Success            bool             `json:"success"`
	DryRun             bool             `json:"dryRun"`
	FilesRestored      int              `json:"filesRestored"`
	FilesSkipped       int              `json:"filesSkipped"`
	FilesFailed        int              `json:"filesFailed"`
	DirectoriesRemoved []string         `json:"directoriesRemoved,omitempty"`
	Files              []UndoFileResult `json:"files"`
	DurationMs         int64            `json:"durationMs"`
}

// RenameOutcome is the per-file result of executing a rename.
type RenameOutcome string

const (
	OutcomeSuccess RenameOutcome = "success"
	OutcomeFailed  RenameOutcome = "failed"
	OutcomeSkipped RenameOutcome = "skipped"
)

// FileRenameResult records the execution outcome for one proposal.
type FileRenameResult struct {
	ProposalID   string        `json:"proposalId"`
	OriginalPath string        `json:"originalPath"`
	OriginalName string        `json:"originalName"`
	NewPath      *string       `json:"newPath,omitempty"`
	NewName      *string       `json:"newName,omitempty"`
	IsFolderMove bool          `json:"isFolderMove"`
	Outcome      RenameOutcome `json:"outcome"`
	Error        string        `json:"error,omitempty"`
}

// BatchRenameSummary aggregates a batch execution.
type BatchRenameSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// BatchRenameResult is the complete result of one batch rename/move run.
type BatchRenameResult struct {
	Success            bool               `json:"success"`
	Results            []FileRenameResult `json:"results"`
	Summary            BatchRenameSummary `json:"summary"`
	DirectoriesCreated []string           `json:"directoriesCreated,omitempty"`
	StartedAt          time.Time          `json:"startedAt"`
	CompletedAt        time.Time          `json:"completedAt"`
	DurationMs         int64              `json:"durationMs"`
}
