package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"unicode/utf8"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{name: "empty", text: "", maxWidth: 5, want: nil},
		{name: "fits", text: "hello", maxWidth: 5, want: []string{"hello"}},
		{name: "longest prefix per line", text: "hello world", maxWidth: 5, want: []string{"hello", " worl", "d"}},
		{name: "newlines end lines", text: "ab\r\ncd", maxWidth: 10, want: []string{"ab", "cd"}},
		{name: "blank line kept", text: "ab\n\ncd", maxWidth: 10, want: []string{"ab", "", "cd"}},
		{name: "at least one rune per line", text: "xyz", maxWidth: 0, want: []string{"x", "y", "z"}},
		{name: "multibyte runes", text: "سلام دنیا", maxWidth: 4, want: []string{"سلام", " دنی", "ا"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapText(tt.text, tt.maxWidth, runeWidth))
		})
	}
}

func TestFitImage(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		maxW, maxH   float64
		wantW, wantH float64
	}{
		{name: "wide", w: 200, h: 100, maxW: 100, maxH: 100, wantW: 100, wantH: 50},
		{name: "tall", w: 50, h: 100, maxW: 100, maxH: 100, wantW: 50, wantH: 100},
		{name: "upscaled", w: 10, h: 10, maxW: 100, maxH: 50, wantW: 50, wantH: 50},
		{name: "empty", w: 0, h: 10, maxW: 100, maxH: 100, wantW: 0, wantH: 0},
		{name: "a4 landscape is width bound", w: 400, h: 300, maxW: 476, maxH: 505.2, wantW: 476, wantH: 357},
		{name: "a4 portrait is height bound", w: 300, h: 400, maxW: 476, maxH: 505.2, wantW: 378.9, wantH: 505.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitImage(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
		})
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 140, B: 200, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFPDFRenderer_Render(t *testing.T) {
	renderer := NewFPDFRenderer(&config.ExportConfig{FontSize: 12, MaxImagePixels: 64, JPEGQuality: 80})

	document, err := renderer.Render([]ExportPage{
		{PhotoID: 1, Image: testPNG(t, 120, 80), Text: "First morning at the coast."},
		{PhotoID: 2, Image: testPNG(t, 40, 90), Text: ""},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(document, []byte("%PDF")))
}

func TestFPDFRenderer_RejectsUndecodableImage(t *testing.T) {
	renderer := NewFPDFRenderer(&config.ExportConfig{FontSize: 12})

	_, err := renderer.Render([]ExportPage{{PhotoID: 9, Image: []byte("broken")}})
	assert.ErrorContains(t, err, "photo 9")
}

func TestPrepareImage_CapsLongSide(t *testing.T) {
	jpg, w, h, err := prepareImage(testPNG(t, 200, 100), 50, 80)
	require.NoError(t, err)
	assert.Equal(t, 50, w)
	assert.Equal(t, 25, h)

	decoded, format, err := image.Decode(bytes.NewReader(jpg))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 50, decoded.Bounds().Dx())
}
