package metadata

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

type OfficeExtractor struct{}

func NewOfficeExtractor() *OfficeExtractor {
	return &OfficeExtractor{}
}

// coreProperties maps docProps/core.xml (Dublin Core).
type coreProperties struct {
	XMLName        xml.Name `xml:"coreProperties"`
	Title          string   `xml:"title"`
	Subject        string   `xml:"subject"`
	Creator        string   `xml:"creator"`
	Keywords       string   `xml:"keywords"`
	Description    string   `xml:"description"`
	LastModifiedBy string   `xml:"lastModifiedBy"`
	Created        string   `xml:"created"`
	Modified       string   `xml:"modified"`
}

// appProperties maps docProps/app.xml.
type appProperties struct {
	XMLName     xml.Name `xml:"Properties"`
	Application string   `xml:"Application"`
	Company     string   `xml:"Company"`
	Pages       *int     `xml:"Pages"`
	Words       *int     `xml:"Words"`
}

// Extract reads document properties from an OOXML package (docx, xlsx,
// pptx). The package is a zip: core.xml is required, app.xml optional.
func (e *OfficeExtractor) Extract(path string) (*types.OfficeMetadata, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	coreData, err := readZipFile(&zr.Reader, "docProps/core.xml")
	if err != nil {
		return nil, errors.New("not an OOXML package: " + err.Error())
	}

	var core coreProperties
	if err := xml.Unmarshal(coreData, &core); err != nil {
		return nil, err
	}

	office := &types.OfficeMetadata{
		Title:          optional(core.Title),
		Subject:        optional(core.Subject),
		Creator:        optional(core.Creator),
		Keywords:       optional(core.Keywords),
		Description:    optional(core.Description),
		LastModifiedBy: optional(core.LastModifiedBy),
		Created:        parseW3CDate(core.Created),
		Modified:       parseW3CDate(core.Modified),
	}

	if appData, err := readZipFile(&zr.Reader, "docProps/app.xml"); err == nil {
		var app appProperties
		if err := xml.Unmarshal(appData, &app); err == nil {
			office.Application = optional(app.Application)
			office.Company = optional(app.Company)
			office.PageCount = app.Pages
			office.WordCount = app.Words
		}
	}

	return office, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.New(name + " not found")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseW3CDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
