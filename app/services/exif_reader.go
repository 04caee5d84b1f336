package services

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// ErrNoEXIF means the image carries no EXIF block at all. Callers treat it as empty metadata.
var ErrNoEXIF = errors.New("image has no exif data")

// ImageMetadata is what can be read from the EXIF block of one image
type ImageMetadata struct {
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
}

// HasLocation reports whether both coordinates were read
func (m ImageMetadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// MetadataExtractor reads capture time and GPS position from raw image bytes
type MetadataExtractor interface {
	Extract(data []byte) (ImageMetadata, error)
}

// ExifReader implements MetadataExtractor with goexif
type ExifReader struct{}

func NewExifReader() *ExifReader {
	return &ExifReader{}
}

// Extract returns whatever tags are present. Missing tags are normal and leave fields nil.
func (r *ExifReader) Extract(data []byte) (ImageMetadata, error) {
	var out ImageMetadata

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return out, fmt.Errorf("%w: %v", ErrNoEXIF, err)
	}

	out.CapturedAt = captureTime(x)

	lat, latErr := gpsCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	lon, lonErr := gpsCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	switch {
	case latErr == nil && lonErr == nil:
		if lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
			out.Latitude = &lat
			out.Longitude = &lon
		}
	case isMissingTag(latErr) && isMissingTag(lonErr):
	default:
		return out, fmt.Errorf("malformed gps tags: %w", errors.Join(latErr, lonErr))
	}
	return out, nil
}

// captureTime prefers DateTimeOriginal and falls back to DateTime. Values are read as UTC.
func captureTime(x *exif.Exif) *time.Time {
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
		t, err := time.ParseInLocation(exifTimeLayout, raw, time.UTC)
		if err != nil {
			continue
		}
		return &t
	}
	return nil
}

func gpsCoordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, err
	}
	if tag.Count < 3 {
		return 0, fmt.Errorf("%s has %d components", valueField, tag.Count)
	}
	var dms [3]float64
	for i := range dms {
		v, err := rationalAt(tag, i)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", valueField, err)
		}
		dms[i] = v
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		if s, err := refTag.StringVal(); err == nil {
			ref = s
		}
	}
	return DMSToDecimal(dms[0], dms[1], dms[2], ref), nil
}

func rationalAt(tag *tiff.Tag, i int) (float64, error) {
	num, den, err := tag.Rat2(i)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, fmt.Errorf("zero denominator at component %d", i)
	}
	return float64(num) / float64(den), nil
}

func isMissingTag(err error) bool {
	var notPresent exif.TagNotPresentError
	return errors.As(err, &notPresent)
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees.
// South and west references yield a negative value.
func DMSToDecimal(degrees, minutes, seconds float64, ref string) float64 {
	v := degrees + minutes/60 + seconds/3600
	switch strings.ToUpper(strings.TrimSpace(strings.TrimRight(ref, "\x00"))) {
	case "S", "W":
		return -v
	}
	return v
}
