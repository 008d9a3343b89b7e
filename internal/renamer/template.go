package renamer

import (
	"regexp"
	"strings"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

// Metadata source badges reported alongside a generated name, so the UI
// can show where each piece of the name came from.
const (
	SourceFilename = "filename"
	SourceFileDate = "file-date"
	SourceEXIFDate = "exif-date"
	SourceCamera   = "camera"
)

var datePlaceholder = regexp.MustCompile(`\{date:([^}]+)\}`)

// stripable date/counter patterns; removing them makes re-applying the
// same template idempotent.
var stripPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}[-_]\d{2}[-_]\d{2}[-_ ]?`),
	regexp.MustCompile(`^\d{8}[-_ ]?`),
	regexp.MustCompile(`^\d{2}[-_]\d{2}[-_]\d{4}[-_ ]?`),
	regexp.MustCompile(`[-_ ]\d{4}[-_]?\d{2}[-_]?\d{2}$`),
	regexp.MustCompile(`[-_ ]\d{1,4}$`),
	regexp.MustCompile(`\(\d{1,4}\)$`),
}

// CleanName strips leading/trailing date and counter patterns from a base
// name. If stripping removes everything the original is kept.
func CleanName(name string) string {
	out := name
	for _, re := range stripPatterns {
		out = re.ReplaceAllString(out, "")
	}
	out = strings.Trim(out, "-_ ")
	if out == "" {
		return name
	}
	return out
}

// TemplateOptions tunes ApplyTemplate.
type TemplateOptions struct {
	// DateFormat renders {date}; tokens YYYY MM DD HH mm ss.
	DateFormat string
	// StripExistingPatterns cleans dates/counters out of {name} first.
	StripExistingPatterns bool
}

// formatDate renders a date per the YYYY/MM/DD token convention the
// templates use, translated to Go's reference layout.
func formatDate(t time.Time, format string) string {
	layout := strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	).Replace(format)
	return t.Format(layout)
}

// templateDate picks the date a template placeholder refers to: the EXIF
// capture time when extraction found one, otherwise the file's mtime.
func templateDate(file types.FileInfo, meta *types.UnifiedMetadata) (time.Time, string) {
	if meta != nil && meta.Image != nil && meta.Image.DateTaken != nil {
		return *meta.Image.DateTaken, SourceEXIFDate
	}
	return file.ModifiedAt, SourceFileDate
}

// cameraName builds the {camera} value from EXIF make/model.
func cameraName(meta *types.UnifiedMetadata) string {
	if meta == nil || meta.Image == nil {
		return ""
	}
	var parts []string
	if meta.Image.CameraMake != nil {
		parts = append(parts, *meta.Image.CameraMake)
	}
	if meta.Image.CameraModel != nil {
		parts = append(parts, *meta.Image.CameraModel)
	}
	return strings.Join(parts, " ")
}

// ApplyTemplate expands a template pattern into a filename for one file.
// Supported placeholders: {name} (alias {original}), {ext}, {date},
// {date:FORMAT}, {year}, {month}, {day}, {camera}. The result always ends
// in the file's real extension and is sanitized before returning. The
// second return value lists the metadata sources that contributed.
func ApplyTemplate(file types.FileInfo, meta *types.UnifiedMetadata, pattern string, opts TemplateOptions) (string, []string) {
	dateFormat := opts.DateFormat
	if dateFormat == "" {
		dateFormat = "YYYY-MM-DD"
	}

	result := pattern
	var sources []string
	addSource := func(s string) {
		for _, existing := range sources {
			if existing == s {
				return
			}
		}
		sources = append(sources, s)
	}

	baseName := file.Name
	if opts.StripExistingPatterns {
		baseName = CleanName(baseName)
	}
	if strings.Contains(result, "{name}") || strings.Contains(result, "{original}") {
		result = strings.ReplaceAll(result, "{name}", baseName)
		result = strings.ReplaceAll(result, "{original}", baseName)
		addSource(SourceFilename)
	}

	result = strings.ReplaceAll(result, "{ext}", file.Extension)

	date, dateSource := templateDate(file, meta)
	if strings.Contains(result, "{date}") {
		result = strings.ReplaceAll(result, "{date}", formatDate(date, dateFormat))
		addSource(dateSource)
	}
	result = datePlaceholder.ReplaceAllStringFunc(result, func(m string) string {
		addSource(dateSource)
		format := datePlaceholder.FindStringSubmatch(m)[1]
		return formatDate(date, format)
	})
	if strings.Contains(result, "{year}") {
		result = strings.ReplaceAll(result, "{year}", date.Format("2006"))
		addSource(dateSource)
	}
	if strings.Contains(result, "{month}") {
		result = strings.ReplaceAll(result, "{month}", date.Format("01"))
		addSource(dateSource)
	}
	if strings.Contains(result, "{day}") {
		result = strings.ReplaceAll(result, "{day}", date.Format("02"))
		addSource(dateSource)
	}

	if strings.Contains(result, "{camera}") {
		camera := cameraName(meta)
		if camera == "" {
			camera = "unknown-camera"
		} else {
			addSource(SourceCamera)
		}
		result = strings.ReplaceAll(result, "{camera}", camera)
	}

	// guarantee the real extension survives template mistakes
	if file.Extension != "" {
		if !strings.Contains(result, ".") {
			result += "." + file.Extension
		} else if !strings.HasSuffix(result, "."+file.Extension) {
			if pos := strings.LastIndexByte(result, '.'); pos >= 0 {
				result = result[:pos] + "." + file.Extension
			}
		}
	}

	return Sanitize(result, '_').Sanitized, sources
}

// ApplyFolderPattern expands a directory pattern ({year}, {month}, {day},
// {category}, {extension}/{ext}) into a relative folder path with forward
// slashes and no empty segments.
func ApplyFolderPattern(file types.FileInfo, meta *types.UnifiedMetadata, pattern string) string {
	date, _ := templateDate(file, meta)

	result := strings.NewReplacer(
		"{year}", date.Format("2006"),
		"{month}", date.Format("01"),
		"{day}", date.Format("02"),
		"{category}", categoryFolder(file.Category),
		"{extension}", file.Extension,
		"{ext}", file.Extension,
	).Replace(pattern)

	result = strings.ReplaceAll(result, "\\", "/")
	result = strings.Trim(result, "/")
	for strings.Contains(result, "//") {
		result = strings.ReplaceAll(result, "//", "/")
	}
	return result
}

func categoryFolder(cat types.FileCategory) string {
	switch cat {
	case types.CategoryImage:
		return "Images"
	case types.CategoryDocument:
		return "Documents"
	case types.CategoryVideo:
		return "Videos"
	case types.CategoryAudio:
		return "Audio"
	case types.CategoryArchive:
		return "Archives"
	case types.CategoryCode:
		return "Code"
	case types.CategoryData:
		return "Data"
	default:
		return "Other"
	}
}
