/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"strings"
)

// normalColumns are the column widths of a parameter row in normal mode.
// A zero width means the column is folded into Value.
type normalColumns struct {
	Param float64
	Value float64
	Unit  float64
	Range float64
}

// layoutNormalColumns splits width 40/15/15/30. A row without unit and
// range gives both widths to Value; a row without unit gives Value the
// unit width.
func layoutNormalColumns(width float64, hasUnit, hasRange bool) normalColumns {
	cols := normalColumns{
		Param: width * 0.40,
		Value: width * 0.15,
		Unit:  width * 0.15,
		Range: width * 0.30,
	}

	switch {
	case !hasUnit && !hasRange:
		cols.Value += cols.Unit + cols.Range
		cols.Unit, cols.Range = 0, 0
	case !hasUnit:
		cols.Value += cols.Unit
		cols.Unit = 0
	}

	return cols
}

// testSection lays out one test: title bar, column headings, global rows,
// subheading groups and descriptions.
func (d *document) testSection(cur cursor, key string, t TestResult) cursor {
	cur = d.titleBar(cur, DisplayName(key, t))
	cur = d.columnHeadings(cur)

	claimed := make(map[string]bool)
	for _, sh := range t.Subheadings {
		for _, name := range sh.ParameterNames {
			claimed[name] = true
		}
	}

	for _, p := range t.Parameters {
		if claimed[p.Name] {
			continue
		}
		cur = d.parameterRow(cur, p, 0)
	}

	for _, sh := range t.Subheadings {
		var params []Parameter
		for _, name := range sh.ParameterNames {
			p, ok := t.Parameter(name)
			if !ok {
				logger.Debug("Subheading names a missing parameter", "test", key, "parameter", name)
				continue
			}
			if printable(p) {
				params = append(params, p)
			}
		}
		if len(params) == 0 {
			continue
		}

		cur = d.subheadingLabel(cur, sh.Title)
		for _, p := range params {
			cur = d.parameterRow(cur, p, 0)
		}
	}

	for _, desc := range t.Descriptions {
		cur = d.description(cur, desc)
	}

	return cur.advance(lineHeight / 2)
}

// printable reports whether a parameter produces at least one row.
func printable(p Parameter) bool {
	if p.Hidden() {
		return false
	}
	if strings.TrimSpace(p.Value.String()) != "" {
		return true
	}
	for _, child := range p.Subparameters {
		if printable(child) {
			return true
		}
	}
	return false
}

func (d *document) columnHeadings(cur cursor) cursor {
	cur = d.ensure(cur, lineHeight*2)

	cols := layoutNormalColumns(d.contentWidth(), true, true)

	d.c.SetFont(FontBold, baseFontPt)
	d.c.SetTextColor(colorText)

	x := marginX
	for _, col := range []struct {
		title string
		width float64
	}{
		{"TEST", cols.Param},
		{"RESULT", cols.Value},
		{"UNIT", cols.Unit},
		{"REFERENCE RANGE", cols.Range},
	} {
		d.drawLines(x+cellInset, cur.y, col.width-2*cellInset, []string{col.title}, "", baseFontPt)
		x += col.width
	}

	d.c.SetDrawColor(colorRule)
	d.c.SetLineWidth(0.2)
	d.c.Line(marginX, cur.y+lineHeight, marginX+d.contentWidth(), cur.y+lineHeight)

	return cur.advance(lineHeight + 1)
}

func (d *document) subheadingLabel(cur cursor, title string) cursor {
	title = strings.TrimSpace(title)
	if title == "" {
		return cur
	}

	cur = d.ensure(cur, lineHeight*2)

	d.c.SetFont(FontBold, baseFontPt)
	d.c.SetTextColor(colorTitleBar)
	d.c.Text(marginX+cellInset, cur.y+baselineOffset(lineHeight, baseFontPt), title)
	d.c.SetTextColor(colorText)

	return cur.advance(lineHeight)
}

// indentWidth is the horizontal offset of one subparameter level: the
// width of two spaces.
func (d *document) indentWidth(depth int) float64 {
	if depth == 0 {
		return 0
	}
	d.c.SetFont(FontRegular, baseFontPt)
	return float64(depth) * d.c.StringWidth("  ")
}

// parameterRow draws p and, recursively, its subparameters. Each row is
// checked against the footer on its own, so a parent and its children may
// land on different pages.
func (d *document) parameterRow(cur cursor, p Parameter, depth int) cursor {
	if p.Hidden() {
		return cur
	}

	value := strings.TrimSpace(p.Value.String())
	if value == "" && len(p.Subparameters) == 0 {
		return cur
	}

	indent := d.indentWidth(depth)
	rng := ResolveRange(p, d.ageDays, d.gender)

	if value == "" {
		if printable(p) {
			cur = d.labelRow(cur, p.Name, indent)
		}
	} else {
		cur = d.valueRow(cur, p, value, rng, indent)
	}

	for _, child := range p.Subparameters {
		cur = d.parameterRow(cur, child, depth+1)
	}

	return cur
}

func (d *document) labelRow(cur cursor, name string, indent float64) cursor {
	width := d.contentWidth() - indent - 2*cellInset

	d.c.SetFont(FontBold, baseFontPt)
	lines := d.c.SplitText(name, width)
	h := lineHeight * float64(len(lines))

	cur = d.ensure(cur, h)
	d.c.SetFont(FontBold, baseFontPt)
	d.drawLines(marginX+indent+cellInset, cur.y, width, lines, "", baseFontPt)

	return cur.advance(h)
}

func (d *document) valueRow(cur cursor, p Parameter, value, rng string, indent float64) cursor {
	unit := strings.TrimSpace(p.Unit)
	cols := layoutNormalColumns(d.contentWidth(), unit != "", strings.TrimSpace(rng) != "")
	valueStyle := StyleFor(IsOutOfRange(value, rng), false)

	nameW := cols.Param - indent - 2*cellInset

	d.c.SetFont(FontRegular, baseFontPt)
	nameLines := d.c.SplitText(p.Name, nameW)

	var unitLines, rangeLines []string
	if cols.Unit > 0 {
		unitLines = d.c.SplitText(unit, cols.Unit-2*cellInset)
	}
	if cols.Range > 0 {
		rangeLines = d.c.SplitText(rng, cols.Range-2*cellInset)
	}

	d.c.SetFont(valueStyle, baseFontPt)
	valueLines := d.c.SplitText(value, cols.Value-2*cellInset)

	rows := max(len(nameLines), len(valueLines), len(unitLines), len(rangeLines))
	h := lineHeight * float64(rows)

	cur = d.ensure(cur, h)

	x := marginX
	d.c.SetFont(FontRegular, baseFontPt)
	d.drawLines(x+indent+cellInset, cur.y, nameW, nameLines, "", baseFontPt)
	x += cols.Param

	d.c.SetFont(valueStyle, baseFontPt)
	d.drawLines(x+cellInset, cur.y, cols.Value-2*cellInset, valueLines, "", baseFontPt)
	x += cols.Value

	d.c.SetFont(FontRegular, baseFontPt)
	if cols.Unit > 0 {
		d.drawLines(x+cellInset, cur.y, cols.Unit-2*cellInset, unitLines, "", baseFontPt)
		x += cols.Unit
	}
	if cols.Range > 0 {
		d.drawLines(x+cellInset, cur.y, cols.Range-2*cellInset, rangeLines, "", baseFontPt)
	}

	return cur.advance(h)
}

// description prints a bold heading followed by its rich-text body.
func (d *document) description(cur cursor, desc Description) cursor {
	heading := strings.TrimSpace(desc.Heading)
	content := strings.TrimSpace(desc.Content)
	if heading == "" && content == "" {
		return cur
	}

	cur = cur.advance(lineHeight / 2)

	if heading != "" {
		cur = d.ensure(cur, lineHeight*2)
		d.c.SetFont(FontBold, baseFontPt)
		d.c.SetTextColor(colorText)
		lines := d.c.SplitText(heading, d.contentWidth())
		d.drawLines(marginX, cur.y, d.contentWidth(), lines, "", baseFontPt)
		cur = cur.advance(lineHeight * float64(len(lines)))
	}

	if content != "" {
		cur = d.renderRichText(cur, content, marginX, d.contentWidth())
	}

	return cur
}
