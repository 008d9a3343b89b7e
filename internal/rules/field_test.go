package rules

import (
	"testing"
	"time"

	"github.com/tidy-app/tidy/pkg/types"
)

func strptr(s string) *string        { return &s }
func intptr(n int) *int              { return &n }
func floatptr(f float64) *float64    { return &f }
func timeptr(t time.Time) *time.Time { return &t }

func sampleMetadata() *types.UnifiedMetadata {
	taken := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	return &types.UnifiedMetadata{
		File: types.FileInfo{
			Path:      "/photos/IMG_0001.jpg",
			Name:      "IMG_0001",
			Extension: "jpg",
			FullName:  "IMG_0001.jpg",
			Size:      2048,
			Category:  types.CategoryImage,
		},
		Image: &types.ImageMetadata{
			DateTaken:  timeptr(taken),
			CameraMake: strptr("Canon"),
			ISO:        intptr(400),
			FNumber:    floatptr(2.8),
			GPS:        &types.GPSCoordinates{Latitude: 37.77, Longitude: -122.42},
		},
		ExtractionStatus: types.ExtractionSuccess,
	}
}

func TestResolveField_PresentValues(t *testing.T) {
	meta := sampleMetadata()

	fv, err := ResolveField(meta, "image.cameraMake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fv.Exists || fv.Value != "Canon" {
		t.Errorf("expected Canon, got %+v", fv)
	}

	fv, _ = ResolveField(meta, "file.size")
	if !fv.Exists || fv.Value != int64(2048) {
		t.Errorf("expected 2048, got %+v", fv)
	}

	fv, _ = ResolveField(meta, "image.gps.latitude")
	if !fv.Exists || fv.Value != 37.77 {
		t.Errorf("expected 37.77, got %+v", fv)
	}

	fv, _ = ResolveField(meta, "extractionStatus")
	if !fv.Exists || fv.Value != "success" {
		t.Errorf("expected success, got %+v", fv)
	}
}

func TestResolveField_AbsentValues(t *testing.T) {
	meta := sampleMetadata()

	// nil section
	fv, err := ResolveField(meta, "pdf.title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv.Exists {
		t.Errorf("pdf.title should be absent, got %+v", fv)
	}

	// nil leaf pointer
	fv, _ = ResolveField(meta, "image.cameraModel")
	if fv.Exists {
		t.Errorf("image.cameraModel should be absent, got %+v", fv)
	}

	// unknown field name
	fv, _ = ResolveField(meta, "image.shutterCount")
	if fv.Exists {
		t.Errorf("unknown field should be absent, got %+v", fv)
	}

	// empty extraction error resolves as absent
	fv, _ = ResolveField(meta, "extractionError")
	if fv.Exists {
		t.Errorf("empty extractionError should be absent, got %+v", fv)
	}
}

func TestResolveField_MalformedPath(t *testing.T) {
	meta := sampleMetadata()

	if _, err := ResolveField(meta, ""); err == nil {
		t.Error("empty path should error")
	}
	if _, err := ResolveField(meta, "image..cameraMake"); err == nil {
		t.Error("empty segment should error")
	}
}

func TestResolveField_NilMetadata(t *testing.T) {
	fv, err := ResolveField(nil, "image.cameraMake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv.Exists {
		t.Errorf("nil metadata should resolve absent, got %+v", fv)
	}
}
