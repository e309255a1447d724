/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"github.com/mazznoer/csscolorparser"
)

// Millimetres per CSS pixel and per typographic point.
const (
	MMPerPx = 25.4 / 96
	MMPerPt = 25.4 / 72
)

// Color is an opaque RGB colour.
type Color struct {
	R, G, B int
}

// Length is a CSS length as written, resolved against a base font size when
// it is relative.
type Length struct {
	Value float64
	Unit  string
}

// IsZero reports whether the length was never set.
func (l Length) IsZero() bool {
	return l.Unit == "" && l.Value == 0
}

// Points resolves a font-size length to points. px converts at 0.75pt,
// em and rem multiply the base, and percentages scale it.
func (l Length) Points(base float64) float64 {
	switch l.Unit {
	case "px":
		return l.Value * 0.75
	case "pt", "":
		return l.Value
	case "em", "rem":
		return l.Value * base
	case "%":
		return base * l.Value / 100
	case "mm":
		return l.Value / MMPerPt
	case "cm":
		return l.Value * 10 / MMPerPt
	default:
		return base
	}
}

// MM resolves a spacing length to millimetres.
func (l Length) MM(basePt float64) float64 {
	switch l.Unit {
	case "px", "":
		return l.Value * MMPerPx
	case "pt":
		return l.Value * MMPerPt
	case "mm":
		return l.Value
	case "cm":
		return l.Value * 10
	case "em", "rem":
		return l.Value * basePt * MMPerPt
	default:
		return 0
	}
}

// Style holds the subset of inline CSS that the report renderer honours.
// Pointer and zero-valued fields mean "inherit".
type Style struct {
	Color       *Color
	Background  *Color
	Bold        *bool
	Italic      *bool
	FontSize    Length
	TextAlign   string
	Margin      Length
	Padding     Length
	BorderWidth Length
	BorderColor *Color
	BorderStyle string
}

// HasBorder reports whether any border property was set.
func (s Style) HasBorder() bool {
	return !s.BorderWidth.IsZero() || s.BorderColor != nil || s.BorderStyle != ""
}

// Merge returns s with every field set in over replacing it.
func (s Style) Merge(over Style) Style {
	if over.Color != nil {
		s.Color = over.Color
	}
	if over.Background != nil {
		s.Background = over.Background
	}
	if over.Bold != nil {
		s.Bold = over.Bold
	}
	if over.Italic != nil {
		s.Italic = over.Italic
	}
	if !over.FontSize.IsZero() {
		s.FontSize = over.FontSize
	}
	if over.TextAlign != "" {
		s.TextAlign = over.TextAlign
	}
	if !over.Margin.IsZero() {
		s.Margin = over.Margin
	}
	if !over.Padding.IsZero() {
		s.Padding = over.Padding
	}
	if !over.BorderWidth.IsZero() {
		s.BorderWidth = over.BorderWidth
	}
	if over.BorderColor != nil {
		s.BorderColor = over.BorderColor
	}
	if over.BorderStyle != "" {
		s.BorderStyle = over.BorderStyle
	}
	return s
}

var parseDeclarations = parser.ParseDeclarations

// ParseInlineStyle reads a style attribute. Unknown properties and values
// that fail to parse are ignored.
func ParseInlineStyle(attr string) Style {
	var style Style

	if strings.TrimSpace(attr) == "" {
		return style
	}

	decls, err := parseDeclarations(attr)
	if err != nil {
		return style
	}

	for _, decl := range decls {
		value := strings.TrimSpace(decl.Value)
		switch strings.ToLower(strings.TrimSpace(decl.Property)) {
		case "color":
			style.Color = ParseColor(value)
		case "background-color", "background":
			style.Background = ParseColor(value)
		case "font-weight":
			style.Bold = boolPtr(isBoldWeight(value))
		case "font-style":
			v := strings.ToLower(value)
			style.Italic = boolPtr(v == "italic" || v == "oblique")
		case "font-size":
			if l, err := ParseLength(value); err == nil {
				style.FontSize = l
			}
		case "text-align":
			style.TextAlign = strings.ToLower(value)
		case "margin":
			if l, err := ParseLength(firstField(value)); err == nil {
				style.Margin = l
			}
		case "padding":
			if l, err := ParseLength(firstField(value)); err == nil {
				style.Padding = l
			}
		case "border-width":
			if l, err := ParseLength(firstField(value)); err == nil {
				style.BorderWidth = l
			}
		case "border-color":
			style.BorderColor = ParseColor(value)
		case "border-style":
			style.BorderStyle = strings.ToLower(value)
		case "border":
			parseBorderShorthand(value, &style)
		}
	}

	return style
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "solid": true, "dashed": true, "dotted": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

func parseBorderShorthand(value string, style *Style) {
	for _, field := range strings.Fields(value) {
		lower := strings.ToLower(field)
		if borderStyles[lower] {
			style.BorderStyle = lower
			continue
		}
		if l, err := ParseLength(field); err == nil {
			style.BorderWidth = l
			continue
		}
		if c := ParseColor(field); c != nil {
			style.BorderColor = c
		}
	}
}

// ParseColor parses any CSS colour. Fully transparent colours and
// unparseable values return nil.
func ParseColor(value string) *Color {
	c, err := csscolorparser.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil
	}

	r, g, b, a := c.RGBA255()
	if a == 0 {
		return nil
	}

	return &Color{R: int(r), G: int(g), B: int(b)}
}

var lengthUnits = []string{"rem", "px", "pt", "em", "mm", "cm", "%"}

// ParseLength parses a CSS length such as "12px", "1.2em" or "90%".
// A bare number, zero included, is taken as pixels.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, errInvalidLength
	}

	unit := ""
	for _, u := range lengthUnits {
		if strings.HasSuffix(v, u) {
			unit = u
			v = strings.TrimSpace(strings.TrimSuffix(v, u))
			break
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, errInvalidLength
	}

	if unit == "" {
		unit = "px"
	}

	return Length{Value: n, Unit: unit}, nil
}

func isBoldWeight(value string) bool {
	v := strings.ToLower(value)
	switch v {
	case "bold", "bolder":
		return true
	case "normal", "lighter":
		return false
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 600
}

func firstField(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func boolPtr(b bool) *bool {
	return &b
}
