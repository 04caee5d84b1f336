package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"sort"

	"github.com/amirphl/trip-to-travel/config"
	"github.com/amirphl/trip-to-travel/utils"
	"github.com/go-pdf/fpdf"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	pdfFontFamily     = "journal"
	pdfCoreFontFamily = "Helvetica"

	// Fraction of the page height the image may occupy, leaving room for the text below it.
	// Only portrait images reach it.
	pageHeightRatio = 0.6

	lineHeightFactor = 1.4
)

// ExportPage is one photo and the text printed under it
type ExportPage struct {
	PhotoID uint
	Image   []byte
	Text    string
}

// PDFRenderer lays out one page per photo and returns the document bytes
type PDFRenderer interface {
	Render(pages []ExportPage) ([]byte, error)
}

// FPDFRenderer implements PDFRenderer with go-pdf/fpdf on A4 portrait pages
type FPDFRenderer struct {
	config *config.ExportConfig
}

func NewFPDFRenderer(cfg *config.ExportConfig) *FPDFRenderer {
	return &FPDFRenderer{config: cfg}
}

func (r *FPDFRenderer) Render(pages []ExportPage) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	family := pdfCoreFontFamily
	translate := func(s string) string { return s }
	if r.config.FontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", r.config.FontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to register font %s: %w", r.config.FontPath, err)
		}
		family = pdfFontFamily
	} else {
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetFont(family, "", r.config.FontSize)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	pageW, pageH := pdf.GetPageSize()
	maxW := pageW * utils.ExportPageWidthRatio
	maxH := pageH * pageHeightRatio
	lineH := r.config.FontSize * lineHeightFactor
	measure := func(s string) float64 { return pdf.GetStringWidth(translate(s)) }

	for i, page := range pages {
		jpg, w, h, err := prepareImage(page.Image, r.config.MaxImagePixels, r.config.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", page.PhotoID, err)
		}
		dispW, dispH := FitImage(float64(w), float64(h), maxW, maxH)
		lines := WrapText(page.Text, maxW, measure)

		blockH := dispH
		if len(lines) > 0 {
			blockH += r.config.FontSize + float64(len(lines))*lineH
		}
		top := (pageH - blockH) / 2

		pdf.AddPage()
		name := fmt.Sprintf("photo-%d-%d", i, page.PhotoID)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(jpg))
		pdf.ImageOptions(name, (pageW-dispW)/2, top, dispW, dispH, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")

		y := top + dispH + r.config.FontSize
		left := (pageW - maxW) / 2
		for _, line := range lines {
			pdf.SetXY(left, y)
			pdf.CellFormat(maxW, lineH, translate(line), "", 0, "L", false, 0, "")
			y += lineH
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to lay out photo %d: %w", page.PhotoID, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FitImage scales w x h uniformly so it fits inside maxW x maxH.
func FitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := maxW / w
	if hs := maxH / h; hs < scale {
		scale = hs
	}
	return w * scale, h * scale
}

// WrapText breaks text into lines no wider than maxWidth. Each line is the longest
// prefix of the remaining text that fits, and always holds at least one rune.
// Newlines always end a line.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for _, paragraph := range splitLines(text) {
		runes := []rune(paragraph)
		if len(runes) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(runes) > 0 {
			// smallest n in [1, len] whose prefix overflows, minus one
			n := sort.Search(len(runes), func(i int) bool {
				return measure(string(runes[:i+1])) > maxWidth
			})
			if n == 0 {
				n = 1
			}
			lines = append(lines, string(runes[:n]))
			runes = runes[n:]
		}
	}
	return lines
}

func splitLines(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '\n' {
			out = append(out, trimCR(text[start:i]))
			start = i + 1
		}
	}
	return append(out, trimCR(text[start:]))
}

func trimCR(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\r' {
		return s[:n-1]
	}
	return s
}

// prepareImage decodes any supported format, flattens it on white, caps the long
// side at maxPx and re-encodes as JPEG.
func prepareImage(data []byte, maxPx, quality int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, 0, 0, fmt.Errorf("image has no pixels")
	}

	nw, nh := w, h
	if maxPx > 0 && (w > maxPx || h > maxPx) {
		if w >= h {
			nw, nh = maxPx, max(1, h*maxPx/w)
		} else {
			nw, nh = max(1, w*maxPx/h), maxPx
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nw, nh, nil
}
