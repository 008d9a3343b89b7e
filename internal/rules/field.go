package rules

import (
	"strings"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

// FieldValue is the result of resolving a dotted field path.
// Exists is false when any node along the path is absent; Value is nil in
// that case. Numeric and date fields keep their native Go types so the
// condition evaluator can compare them by value and by instant.
type FieldValue struct {
	Exists bool
	Value  any
}

func absent() FieldValue       { return FieldValue{} }
func present(v any) FieldValue { return FieldValue{Exists: true, Value: v} }

// ResolveField resolves a dot-separated path (e.g. "image.cameraMake")
// against a metadata record. Missing intermediates yield Exists=false, never
// an error; only structurally malformed paths (empty segments) fail.
func ResolveField(meta *types.UnifiedMetadata, path string) (FieldValue, error) {
	if strings.TrimSpace(path) == "" {
		return absent(), &FieldResolutionError{Path: path, Reason: "empty path"}
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return absent(), &FieldResolutionError{Path: path, Reason: "empty segment"}
		}
	}
	if meta == nil {
		return absent(), nil
	}

	switch segments[0] {
	case "file":
		return resolveFile(&meta.File, segments[1:]), nil
	case "image":
		return resolveImage(meta.Image, segments[1:]), nil
	case "pdf":
		return resolvePDF(meta.PDF, segments[1:]), nil
	case "office":
		return resolveOffice(meta.Office, segments[1:]), nil
	case "extractionStatus":
		if len(segments) > 1 {
			return absent(), nil
		}
		return present(string(meta.ExtractionStatus)), nil
	case "extractionError":
		if len(segments) > 1 {
			return absent(), nil
		}
		if meta.ExtractionError == "" {
			return absent(), nil
		}
		return present(meta.ExtractionError), nil
	default:
		return absent(), nil
	}
}

func resolveFile(f *types.FileInfo, rest []string) FieldValue {
	if len(rest) != 1 {
		return absent()
	}
	switch rest[0] {
	case "path":
		return present(f.Path)
	case "name":
		return present(f.Name)
	case "extension":
		return present(f.Extension)
	case "fullName":
		return present(f.FullName)
	case "size":
		return present(f.Size)
	case "createdAt":
		return present(f.CreatedAt)
	case "modifiedAt":
		return present(f.ModifiedAt)
	case "relativePath":
		return present(f.RelativePath)
	case "category":
		return present(string(f.Category))
	case "metadataSupported":
		return present(f.MetadataSupported)
	case "metadataCapability":
		return present(string(f.MetadataCapability))
	default:
		return absent()
	}
}

func resolveImage(img *types.ImageMetadata, rest []string) FieldValue {
	if img == nil {
		return absent()
	}
	if len(rest) == 0 {
		return present(img)
	}
	switch rest[0] {
	case "gps":
		return resolveGPS(img.GPS, rest[1:])
	}
	if len(rest) != 1 {
		return absent()
	}
	switch rest[0] {
	case "dateTaken":
		return timeField(img.DateTaken)
	case "cameraMake":
		return stringField(img.CameraMake)
	case "cameraModel":
		return stringField(img.CameraModel)
	case "width":
		return intField(img.Width)
	case "height":
		return intField(img.Height)
	case "orientation":
		return intField(img.Orientation)
	case "exposureTime":
		return stringField(img.ExposureTime)
	case "fNumber":
		return floatField(img.FNumber)
	case "iso":
		return intField(img.ISO)
	default:
		return absent()
	}
}

func resolveGPS(gps *types.GPSCoordinates, rest []string) FieldValue {
	if gps == nil {
		return absent()
	}
	if len(rest) == 0 {
		return present(gps)
	}
	if len(rest) != 1 {
		return absent()
	}
	switch rest[0] {
	case "latitude":
		return present(gps.Latitude)
	case "longitude":
		return present(gps.Longitude)
	default:
		return absent()
	}
}

func resolvePDF(pdf *types.PDFMetadata, rest []string) FieldValue {
	if pdf == nil {
		return absent()
	}
	if len(rest) == 0 {
		return present(pdf)
	}
	if len(rest) != 1 {
		return absent()
	}
	switch rest[0] {
	case "title":
		return stringField(pdf.Title)
	case "author":
		return stringField(pdf.Author)
	case "subject":
		return stringField(pdf.Subject)
	case "keywords":
		return stringField(pdf.Keywords)
	case "creator":
		return stringField(pdf.Creator)
	case "producer":
		return stringField(pdf.Producer)
	case "creationDate":
		return timeField(pdf.CreationDate)
	case "modDate":
		return timeField(pdf.ModDate)
	case "pageCount":
		return intField(pdf.PageCount)
	default:
		return absent()
	}
}

func resolveOffice(off *types.OfficeMetadata, rest []string) FieldValue {
	if off == nil {
		return absent()
	}
	if len(rest) == 0 {
		return present(off)
	}
	if len(rest) != 1 {
		return absent()
	}
	switch rest[0] {
	case "title":
		return stringField(off.Title)
	case "subject":
		return stringField(off.Subject)
	case "creator":
		return stringField(off.Creator)
	case "keywords":
		return stringField(off.Keywords)
	case "description":
		return stringField(off.Description)
	case "lastModifiedBy":
		return stringField(off.LastModifiedBy)
	case "created":
		return timeField(off.Created)
	case "modified":
		return timeField(off.Modified)
	case "application":
		return stringField(off.Application)
	case "company":
		return stringField(off.Company)
	case "pageCount":
		return intField(off.PageCount)
	case "wordCount":
		return intField(off.WordCount)
	default:
		return absent()
	}
}

func stringField(s *string) FieldValue {
	if s == nil {
		return absent()
	}
	return present(*s)
}

func intField(n *int) FieldValue {
	if n == nil {
		return absent()
	}
	return present(*n)
}

func floatField(f *float64) FieldValue {
	if f == nil {
		return absent()
	}
	return present(*f)
}

func timeField(t *time.Time) FieldValue {
	if t == nil {
		return absent()
	}
	return present(*t)
}
