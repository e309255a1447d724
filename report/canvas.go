/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"

	"github.com/humaidq/pathreport/utils"
)

// FontStyle is a gofpdf style string.
type FontStyle string

// Font styles.
const (
	FontRegular    FontStyle = ""
	FontBold       FontStyle = "B"
	FontItalic     FontStyle = "I"
	FontBoldItalic FontStyle = "BI"
)

// StyleFor returns the font style for the given emphasis.
func StyleFor(bold, italic bool) FontStyle {
	switch {
	case bold && italic:
		return FontBoldItalic
	case bold:
		return FontBold
	case italic:
		return FontItalic
	default:
		return FontRegular
	}
}

// Canvas is the drawing surface the layout engine writes to. Coordinates
// are millimetres from the top-left corner of the page; Text places the
// baseline at y.
type Canvas interface {
	AddPage()
	PageCount() int
	PageSize() (width, height float64)

	SetFont(style FontStyle, sizePt float64)
	SetTextColor(c utils.Color)
	SetFillColor(c utils.Color)
	SetDrawColor(c utils.Color)
	SetLineWidth(width float64)

	Text(x, y float64, s string)
	StringWidth(s string) float64
	SplitText(s string, width float64) []string

	Rect(x, y, w, h float64, style string)
	Line(x1, y1, x2, y2 float64)
	Image(img *Image, x, y, w, h float64)

	Output(w io.Writer) error
}

const fontFamily = "Helvetica"

// Glyphs missing from the core fonts' cp1252 encoding.
var glyphFallbacks = strings.NewReplacer(
	"≥", ">=",
	"≤", "<=",
	"≠", "!=",
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"→", "->",
	"←", "<-",
	"√", "sqrt",
	"∞", "inf",
)

// pdfCanvas draws onto a gofpdf document using the core Helvetica family.
type pdfCanvas struct {
	pdf        *gofpdf.Fpdf
	translate  func(string) string
	registered map[string]bool
	broken     map[string]bool
}

func newPDFCanvas(title string, created time.Time) *pdfCanvas {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("pathreport", true)
	pdf.SetCreationDate(created)
	pdf.SetFont(fontFamily, "", 9)

	return &pdfCanvas{
		pdf:        pdf,
		translate:  pdf.UnicodeTranslatorFromDescriptor(""),
		registered: make(map[string]bool),
		broken:     make(map[string]bool),
	}
}

func (c *pdfCanvas) encode(s string) string {
	return c.translate(glyphFallbacks.Replace(s))
}

func (c *pdfCanvas) AddPage() {
	c.pdf.AddPage()
}

func (c *pdfCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *pdfCanvas) PageSize() (float64, float64) {
	return c.pdf.GetPageSize()
}

func (c *pdfCanvas) SetFont(style FontStyle, sizePt float64) {
	c.pdf.SetFont(fontFamily, string(style), sizePt)
}

func (c *pdfCanvas) SetTextColor(col utils.Color) {
	c.pdf.SetTextColor(col.R, col.G, col.B)
}

func (c *pdfCanvas) SetFillColor(col utils.Color) {
	c.pdf.SetFillColor(col.R, col.G, col.B)
}

func (c *pdfCanvas) SetDrawColor(col utils.Color) {
	c.pdf.SetDrawColor(col.R, col.G, col.B)
}

func (c *pdfCanvas) SetLineWidth(width float64) {
	c.pdf.SetLineWidth(width)
}

func (c *pdfCanvas) Text(x, y float64, s string) {
	if s == "" {
		return
	}
	c.pdf.Text(x, y, c.encode(s))
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	return c.pdf.GetStringWidth(c.encode(s))
}

// SplitText word-wraps s to width using the current font. Explicit
// newlines are kept. Words wider than the line are broken by character.
func (c *pdfCanvas) SplitText(s string, width float64) []string {
	return wrapText(c.StringWidth, s, width)
}

func (c *pdfCanvas) Rect(x, y, w, h float64, style string) {
	c.pdf.Rect(x, y, w, h, style)
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

// Image places a pre-fetched image. An image gofpdf cannot read is logged
// and skipped without failing the document.
func (c *pdfCanvas) Image(img *Image, x, y, w, h float64) {
	if img == nil || len(img.Data) == 0 {
		return
	}

	opts := gofpdf.ImageOptions{ImageType: img.Type, ReadDpi: false}

	if !c.registered[img.Name] {
		c.registered[img.Name] = true
		c.pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		if c.pdf.Err() {
			logger.Warn("Failed to embed image", "asset", img.Name, "error", c.pdf.Error())
			c.pdf.ClearError()
			c.broken[img.Name] = true
		}
	}

	if c.broken[img.Name] {
		return
	}

	c.pdf.ImageOptions(img.Name, x, y, w, h, false, opts, 0, "")
}

func (c *pdfCanvas) Output(w io.Writer) error {
	return c.pdf.Output(w)
}

// wrapText greedily fills lines up to width as measured by measure.
func wrapText(measure func(string) float64, s string, width float64) []string {
	var lines []string

	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}

			if measure(candidate) <= width || (line == "" && width <= 0) {
				line = candidate
				continue
			}

			if line != "" {
				lines = append(lines, line)
				line = ""
			}

			if measure(word) <= width {
				line = word
				continue
			}

			// Break an over-long word by character.
			pieces := breakWord(measure, word, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return []string{""}
	}

	return lines
}

func breakWord(measure func(string) float64, word string, width float64) []string {
	var pieces []string

	current := ""
	for len(word) > 0 {
		r, size := utf8.DecodeRuneInString(word)
		word = word[size:]

		next := current + string(r)
		if current != "" && measure(next) > width {
			pieces = append(pieces, current)
			next = string(r)
		}
		current = next
	}

	return append(pieces, current)
}
