package scanner

import (
	"io/fs"
	"time"
)

// createdAt returns the best available creation time. Birth time is not
// portable across platforms, so this falls back to mtime, which is what
// the {date} template placeholder ends up using for non-EXIF files.
func createdAt(info fs.FileInfo) time.Time {
	return info.ModTime()
}
