package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidy-app/tidy/pkg/types"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func names(files []types.FileInfo) map[string]types.FileInfo {
	m := make(map[string]types.FileInfo, len(files))
	for _, f := range files {
		m[f.FullName] = f
	}
	return m
}

func TestScan_Basic(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "photo.JPG", "report.pdf", "notes.txt")

	files, err := New().Scan(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	byName := names(files)
	photo := byName["photo.JPG"]
	if photo.Name != "photo" || photo.Extension != "jpg" {
		t.Errorf("name/extension split wrong: %+v", photo)
	}
	if photo.Category != types.CategoryImage || !photo.MetadataSupported {
		t.Errorf("jpg should be a supported image: %+v", photo)
	}
	if byName["notes.txt"].MetadataSupported {
		t.Error("txt has no extractor")
	}
	if byName["report.pdf"].MetadataCapability != types.CapabilityExtended {
		t.Errorf("pdf capability: %+v", byName["report.pdf"])
	}
}

func TestScan_RecursiveAndFlat(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "top.txt", filepath.Join("sub", "nested.txt"))

	files, err := New().Scan(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("recursive scan should find both, got %d", len(files))
	}

	byName := names(files)
	if byName["nested.txt"].RelativePath != filepath.Join("sub", "nested.txt") {
		t.Errorf("relative path: %+v", byName["nested.txt"])
	}

	files, err = New(Recursive(false)).Scan(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].FullName != "top.txt" {
		t.Errorf("flat scan should only find top.txt, got %+v", files)
	}
}

func TestScan_HiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "visible.txt", ".hidden.txt", filepath.Join(".git", "config"))

	files, _ := New().Scan(root)
	if len(files) != 1 {
		t.Errorf("hidden entries should be skipped by default, got %d", len(files))
	}

	files, _ = New(IncludeHidden(true)).Scan(root)
	if len(files) != 3 {
		t.Errorf("expected 3 with hidden included, got %d", len(files))
	}
}

func TestScan_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.png", "c.txt")

	files, err := New(Extensions([]string{"jpg", ".PNG"})).Scan(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected jpg+png only, got %+v", files)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := New().Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing root should error")
	}
}

func TestCategorize(t *testing.T) {
	cases := map[string]types.FileCategory{
		"jpg": types.CategoryImage,
		"pdf": types.CategoryDocument,
		"mp4": types.CategoryVideo,
		"zip": types.CategoryArchive,
		"go":  types.CategoryCode,
		"csv": types.CategoryData,
		"xyz": types.CategoryOther,
	}
	for ext, want := range cases {
		if got := Categorize(ext); got != want {
			t.Errorf("Categorize(%q) = %s, want %s", ext, got, want)
		}
	}
}
