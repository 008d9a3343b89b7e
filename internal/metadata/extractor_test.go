package metadata

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidy-app/tidy/pkg/types"
)

func fileInfo(path, ext string, supported bool) types.FileInfo {
	return types.FileInfo{
		Path:              path,
		Extension:         ext,
		FullName:          filepath.Base(path),
		MetadataSupported: supported,
	}
}

func TestExtract_UnsupportedFile(t *testing.T) {
	e := New()

	meta := e.Extract(fileInfo("/tmp/notes.txt", "txt", false))
	if meta.ExtractionStatus != types.ExtractionUnsupported {
		t.Errorf("got %s", meta.ExtractionStatus)
	}
	if meta.Image != nil || meta.PDF != nil || meta.Office != nil {
		t.Error("unsupported file should carry no section")
	}
}

func TestExtract_MissingFileNeverPanics(t *testing.T) {
	e := New()

	meta := e.Extract(fileInfo("/path/does/not/exist.jpg", "jpg", true))
	if meta.ExtractionStatus != types.ExtractionFailed {
		t.Errorf("got %s", meta.ExtractionStatus)
	}
	if meta.ExtractionError == "" {
		t.Error("failure should carry the error message")
	}
}

func TestExtract_PlainFileWithoutEXIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, []byte("not-a-real-jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := New().Extract(fileInfo(path, "jpg", true))
	if meta.ExtractionStatus != types.ExtractionFailed {
		t.Errorf("got %s", meta.ExtractionStatus)
	}
	if !strings.Contains(meta.ExtractionError, "no EXIF data") {
		t.Errorf("unexpected error message: %s", meta.ExtractionError)
	}
}

func writeDocx(t *testing.T, path, coreXML, appXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	if coreXML != "" {
		w, _ := zw.Create("docProps/core.xml")
		w.Write([]byte(coreXML))
	}
	if appXML != "" {
		w, _ := zw.Create("docProps/app.xml")
		w.Write([]byte(appXML))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

const sampleCoreXML = `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Quarterly Report</dc:title>
  <dc:creator>Dana</dc:creator>
  <cp:lastModifiedBy>Sam</cp:lastModifiedBy>
  <dcterms:created>2024-03-01T09:00:00Z</dcterms:created>
  <dcterms:modified>2024-03-05T17:30:00Z</dcterms:modified>
</cp:coreProperties>`

const sampleAppXML = `<?xml version="1.0"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
  <Application>Microsoft Word</Application>
  <Company>Acme</Company>
  <Pages>12</Pages>
  <Words>3400</Words>
</Properties>`

func TestExtract_OfficeProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	writeDocx(t, path, sampleCoreXML, sampleAppXML)

	meta := New().Extract(fileInfo(path, "docx", true))
	if meta.ExtractionStatus != types.ExtractionSuccess {
		t.Fatalf("got %s (%s)", meta.ExtractionStatus, meta.ExtractionError)
	}
	office := meta.Office
	if office == nil {
		t.Fatal("expected office section")
	}
	if office.Title == nil || *office.Title != "Quarterly Report" {
		t.Errorf("title: %+v", office.Title)
	}
	if office.Creator == nil || *office.Creator != "Dana" {
		t.Errorf("creator: %+v", office.Creator)
	}
	if office.Created == nil || office.Created.Year() != 2024 {
		t.Errorf("created: %+v", office.Created)
	}
	if office.Application == nil || *office.Application != "Microsoft Word" {
		t.Errorf("application: %+v", office.Application)
	}
	if office.PageCount == nil || *office.PageCount != 12 {
		t.Errorf("pageCount: %+v", office.PageCount)
	}
}

func TestExtract_OfficeWithoutAppXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.docx")
	writeDocx(t, path, sampleCoreXML, "")

	meta := New().Extract(fileInfo(path, "docx", true))
	if meta.ExtractionStatus != types.ExtractionSuccess {
		t.Fatalf("got %s (%s)", meta.ExtractionStatus, meta.ExtractionError)
	}
	if meta.Office.Application != nil {
		t.Error("app.xml fields should stay nil without app.xml")
	}
}

func TestExtract_OfficeNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	if err := os.WriteFile(path, []byte("this is not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := New().Extract(fileInfo(path, "docx", true))
	if meta.ExtractionStatus != types.ExtractionFailed {
		t.Errorf("got %s", meta.ExtractionStatus)
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := New().Extract(fileInfo(path, "pdf", true))
	if meta.ExtractionStatus != types.ExtractionFailed {
		t.Errorf("got %s", meta.ExtractionStatus)
	}
	if meta.ExtractionError == "" {
		t.Error("failure should carry the error message")
	}
}
