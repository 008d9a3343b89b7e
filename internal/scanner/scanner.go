// Package scanner walks a folder and produces FileInfo records.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidy-app/tidy/pkg/types"
)

var categoryByExt = map[string]types.FileCategory{
	"jpg": types.CategoryImage, "jpeg": types.CategoryImage, "png": types.CategoryImage,
	"gif": types.CategoryImage, "bmp": types.CategoryImage, "webp": types.CategoryImage,
	"tiff": types.CategoryImage, "tif": types.CategoryImage, "heic": types.CategoryImage,
	"raw": types.CategoryImage, "cr2": types.CategoryImage, "nef": types.CategoryImage,
	"svg": types.CategoryImage,

	"pdf": types.CategoryDocument, "doc": types.CategoryDocument, "docx": types.CategoryDocument,
	"xls": types.CategoryDocument, "xlsx": types.CategoryDocument, "ppt": types.CategoryDocument,
	"pptx": types.CategoryDocument, "odt": types.CategoryDocument, "txt": types.CategoryDocument,
	"rtf": types.CategoryDocument, "md": types.CategoryDocument,

	"mp4": types.CategoryVideo, "mov": types.CategoryVideo, "avi": types.CategoryVideo,
	"mkv": types.CategoryVideo, "webm": types.CategoryVideo, "wmv": types.CategoryVideo,
	"m4v": types.CategoryVideo, "flv": types.CategoryVideo,

	"mp3": types.CategoryAudio, "wav": types.CategoryAudio, "flac": types.CategoryAudio,
	"aac": types.CategoryAudio, "ogg": types.CategoryAudio, "m4a": types.CategoryAudio,

	"zip": types.CategoryArchive, "tar": types.CategoryArchive, "gz": types.CategoryArchive,
	"rar": types.CategoryArchive, "7z": types.CategoryArchive, "bz2": types.CategoryArchive,

	"go": types.CategoryCode, "rs": types.CategoryCode, "py": types.CategoryCode,
	"js": types.CategoryCode, "ts": types.CategoryCode, "c": types.CategoryCode,
	"cpp": types.CategoryCode, "h": types.CategoryCode, "java": types.CategoryCode,
	"sh": types.CategoryCode, "html": types.CategoryCode, "css": types.CategoryCode,

	"json": types.CategoryData, "xml": types.CategoryData, "csv": types.CategoryData,
	"yaml": types.CategoryData, "yml": types.CategoryData, "toml": types.CategoryData,
	"sql": types.CategoryData,
}

// capabilityByExt marks extensions an extractor exists for.
var capabilityByExt = map[string]types.MetadataCapability{
	"jpg": types.CapabilityFull, "jpeg": types.CapabilityFull,
	"tiff": types.CapabilityFull, "tif": types.CapabilityFull,
	"heic": types.CapabilityBasic, "png": types.CapabilityBasic,
	"pdf":  types.CapabilityExtended,
	"docx": types.CapabilityExtended, "xlsx": types.CapabilityExtended,
	"pptx": types.CapabilityExtended,
}

// Categorize maps an extension (lowercase, no dot) to its category.
func Categorize(ext string) types.FileCategory {
	if cat, ok := categoryByExt[ext]; ok {
		return cat
	}
	return types.CategoryOther
}

// Capability reports the metadata extraction depth for an extension.
func Capability(ext string) types.MetadataCapability {
	if c, ok := capabilityByExt[ext]; ok {
		return c
	}
	return types.CapabilityNone
}

type Scanner struct {
	recursive     bool
	includeHidden bool
	includeExt    map[string]bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// Recursive makes Scan descend into subdirectories.
func Recursive(on bool) Option {
	return func(s *Scanner) { s.recursive = on }
}

// IncludeHidden makes Scan keep dotfiles and dot-directories.
func IncludeHidden(on bool) Option {
	return func(s *Scanner) { s.includeHidden = on }
}

// Extensions limits Scan to the given extensions. Empty means all files.
func Extensions(exts []string) Option {
	return func(s *Scanner) {
		if len(exts) == 0 {
			return
		}
		s.includeExt = make(map[string]bool, len(exts))
		for _, ext := range exts {
			s.includeExt[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
		}
	}
}

func New(opts ...Option) *Scanner {
	s := &Scanner{recursive: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks root and returns one FileInfo per accepted file. Unreadable
// entries are skipped, not fatal.
func (s *Scanner) Scan(root string) ([]types.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, &fs.PathError{Op: "scan", Path: root, Err: fs.ErrInvalid}
	}

	var files []types.FileInfo
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		hidden := strings.HasPrefix(d.Name(), ".")
		if d.IsDir() {
			if path == root {
				return nil
			}
			if (hidden && !s.includeHidden) || !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden && !s.includeHidden {
			return nil
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if s.includeExt != nil && !s.includeExt[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = d.Name()
		}

		name := strings.TrimSuffix(d.Name(), filepath.Ext(path))

		capability := Capability(ext)
		files = append(files, types.FileInfo{
			Path:               path,
			Name:               name,
			Extension:          ext,
			FullName:           d.Name(),
			Size:               info.Size(),
			CreatedAt:          createdAt(info),
			ModifiedAt:         info.ModTime(),
			RelativePath:       rel,
			Category:           Categorize(ext),
			MetadataSupported:  capability != types.CapabilityNone,
			MetadataCapability: capability,
		})
		return nil
	})

	return files, err
}
