// Package metadata extracts EXIF, PDF and Office document properties into
// a unified record per file.
package metadata

import (
	"github.com/tidy-app/tidy/pkg/types"
)

// Extractor dispatches to the format-specific extractors. Extract never
// returns an error: failures are encoded in the record's ExtractionStatus
// and ExtractionError so one unreadable file cannot break a batch.
type Extractor struct {
	exif   *EXIFExtractor
	pdf    *PDFExtractor
	office *OfficeExtractor
}

func New() *Extractor {
	return &Extractor{
		exif:   NewEXIFExtractor(),
		pdf:    NewPDFExtractor(),
		office: NewOfficeExtractor(),
	}
}

func (e *Extractor) Extract(file types.FileInfo) types.UnifiedMetadata {
	meta := types.UnifiedMetadata{File: file}

	if !file.MetadataSupported {
		meta.ExtractionStatus = types.ExtractionUnsupported
		return meta
	}

	switch file.Extension {
	case "jpg", "jpeg", "tiff", "tif", "heic", "png":
		img, err := e.exif.Extract(file.Path)
		meta.Image = img
		finish(&meta, img != nil, err)
	case "pdf":
		pdf, err := e.pdf.Extract(file.Path)
		meta.PDF = pdf
		finish(&meta, pdf != nil, err)
	case "docx", "xlsx", "pptx":
		office, err := e.office.Extract(file.Path)
		meta.Office = office
		finish(&meta, office != nil, err)
	default:
		meta.ExtractionStatus = types.ExtractionUnsupported
	}
	return meta
}

func finish(meta *types.UnifiedMetadata, gotData bool, err error) {
	switch {
	case err == nil:
		meta.ExtractionStatus = types.ExtractionSuccess
	case gotData:
		meta.ExtractionStatus = types.ExtractionPartial
		meta.ExtractionError = err.Error()
	default:
		meta.ExtractionStatus = types.ExtractionFailed
		meta.ExtractionError = err.Error()
	}
}
