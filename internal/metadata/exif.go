package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/tidy-app/tidy/pkg/types"
)

type EXIFExtractor struct{}

func NewEXIFExtractor() *EXIFExtractor {
	return &EXIFExtractor{}
}

// Extract reads EXIF tags from an image file. Missing individual tags are
// not errors; the corresponding fields stay nil.
func (e *EXIFExtractor) Extract(path string) (*types.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, errors.New("no EXIF data: " + err.Error())
	}

	img := &types.ImageMetadata{}

	if t, err := x.DateTime(); err == nil {
		img.DateTaken = &t
	} else if t, ok := tagTime(x, exif.DateTimeDigitized); ok {
		img.DateTaken = &t
	}

	img.CameraMake = tagString(x, exif.Make)
	img.CameraModel = tagString(x, exif.Model)
	img.Width = tagInt(x, exif.PixelXDimension)
	img.Height = tagInt(x, exif.PixelYDimension)
	img.Orientation = tagInt(x, exif.Orientation)
	img.ISO = tagInt(x, exif.ISOSpeedRatings)
	img.ExposureTime = tagRatString(x, exif.ExposureTime)
	img.FNumber = tagRatFloat(x, exif.FNumber)

	if lat, lng, err := x.LatLong(); err == nil {
		img.GPS = &types.GPSCoordinates{Latitude: lat, Longitude: lng}
	}

	return img, nil
}

func tagString(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil || s == "" {
		return nil
	}
	return &s
}

func tagInt(x *exif.Exif, name exif.FieldName) *int {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	n, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &n
}

func tagTime(x *exif.Exif, name exif.FieldName) (time.Time, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return time.Time{}, false
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// tagRatString renders a rational tag as a fraction, the conventional form
// for shutter speeds.
func tagRatString(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	r := fmt.Sprintf("%d/%d", num, den)
	return &r
}

func tagRatFloat(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	f := float64(num) / float64(den)
	return &f
}
