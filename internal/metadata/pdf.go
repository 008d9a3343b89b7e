package metadata

import (
	"os"

	"github.com/unidoc/unipdf/v3/core"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/tidy-app/tidy/pkg/types"
)

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the document information dictionary and page count.
func (e *PDFExtractor) Extract(path string) (*types.PDFMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, err
	}

	pdf := &types.PDFMetadata{}

	if pages, err := reader.GetNumPages(); err == nil {
		pdf.PageCount = &pages
	}

	info, err := reader.GetPdfInfo()
	if err != nil {
		// page count alone is still useful
		return pdf, err
	}

	pdf.Title = pdfString(info.Title)
	pdf.Author = pdfString(info.Author)
	pdf.Subject = pdfString(info.Subject)
	pdf.Keywords = pdfString(info.Keywords)
	pdf.Creator = pdfString(info.Creator)
	pdf.Producer = pdfString(info.Producer)
	if info.CreationDate != nil {
		t := info.CreationDate.ToGoTime()
		pdf.CreationDate = &t
	}
	if info.ModifiedDate != nil {
		t := info.ModifiedDate.ToGoTime()
		pdf.ModDate = &t
	}

	return pdf, nil
}

func pdfString(s *core.PdfObjectString) *string {
	if s == nil {
		return nil
	}
	decoded := s.Decoded()
	if decoded == "" {
		return nil
	}
	return &decoded
}
