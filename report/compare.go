/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/humaidq/pathreport/utils"
)

const comparisonDateLayout = "02-Jan-2006"

// comparisonColumns are the widths of a comparison table: Parameter 30%,
// Range 20%, and the rest split evenly among the date columns.
type comparisonColumns struct {
	Param float64
	Range float64
	Dates []float64
}

func layoutComparisonColumns(width float64, dates int) comparisonColumns {
	cols := comparisonColumns{
		Param: width * 0.30,
		Range: width * 0.20,
	}

	if dates <= 0 {
		return cols
	}

	each := (width - cols.Param - cols.Range) / float64(dates)
	cols.Dates = make([]float64, dates)
	for i := range cols.Dates {
		cols.Dates[i] = each
	}

	return cols
}

func (c comparisonColumns) datesWidth() float64 {
	total := 0.0
	for _, w := range c.Dates {
		total += w
	}
	return total
}

// comparisonKeys returns the test keys to compare: selected tests first in
// selection order, then any remaining selections in key order.
func comparisonKeys(req Request) []string {
	seen := make(map[string]bool)

	var keys []string
	for _, key := range req.SelectedTests {
		if _, ok := req.Comparisons[key]; ok && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	var rest []string
	for key := range req.Comparisons {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}

// selectedDates returns the distinct selected dates, newest first.
func selectedDates(sel ComparisonSelection) []time.Time {
	var dates []time.Time
	for _, t := range sel.SelectedDates {
		if !slices.ContainsFunc(dates, t.Equal) {
			dates = append(dates, t)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	return dates
}

// entriesByDate matches each selected date to the historical entry
// reported at that instant. Dates without an entry map to nil.
func entriesByDate(history []HistoricalEntry, dates []time.Time) []*HistoricalEntry {
	out := make([]*HistoricalEntry, len(dates))
	for i, date := range dates {
		for j := range history {
			if history[j].ReportedOn.Equal(date) {
				out[i] = &history[j]
				break
			}
		}
	}
	return out
}

// findParameter searches a parameter tree by name.
func findParameter(params []Parameter, name string) (Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
		if child, ok := findParameter(p.Subparameters, name); ok {
			return child, true
		}
	}
	return Parameter{}, false
}

// comparisonTable lays out one test's values across the selected dates.
func (d *document) comparisonTable(cur cursor, key string, t TestResult, sel ComparisonSelection) cursor {
	dates := selectedDates(sel)
	entries := entriesByDate(d.req.Historical[key], dates)
	cols := layoutComparisonColumns(d.contentWidth(), len(dates))

	title := strings.TrimSpace(sel.TestName)
	if title == "" {
		title = DisplayName(key, t)
	}

	cur = d.titleBar(cur, title)
	cur = d.comparisonHeader(cur, cols, dates)

	for _, p := range t.Parameters {
		cur = d.comparisonRow(cur, cols, dates, entries, p, 0)
	}

	return cur.advance(lineHeight / 2)
}

func (d *document) comparisonHeader(cur cursor, cols comparisonColumns, dates []time.Time) cursor {
	titles := []string{"PARAMETER", "RANGE"}
	widths := []float64{cols.Param, cols.Range}
	for i, date := range dates {
		titles = append(titles, date.Format(comparisonDateLayout))
		widths = append(widths, cols.Dates[i])
	}

	d.c.SetFont(FontBold, baseFontPt)
	lines := make([][]string, len(titles))
	rows := 1
	for i, title := range titles {
		lines[i] = d.c.SplitText(title, widths[i]-2*cellInset)
		rows = max(rows, len(lines[i]))
	}
	h := lineHeight * float64(rows)

	cur = d.ensure(cur, h+lineHeight)

	x := marginX
	for i := range titles {
		d.cellBox(x, cur.y, widths[i], h, &colorHeaderFill)
		d.c.SetFont(FontBold, baseFontPt)
		d.c.SetTextColor(colorText)
		d.drawLines(x+cellInset, cur.y, widths[i]-2*cellInset, lines[i], "center", baseFontPt)
		x += widths[i]
	}

	return cur.advance(h)
}

// comparisonRow draws p across the dates and recurses into subparameters.
// Text values collapse into one cell spanning every date column that shows
// only the latest value.
func (d *document) comparisonRow(cur cursor, cols comparisonColumns, dates []time.Time, entries []*HistoricalEntry, p Parameter, depth int) cursor {
	if p.Hidden() {
		return cur
	}

	values := make([]string, len(dates))
	found := false
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		if hp, ok := findParameter(entry.Parameters, p.Name); ok {
			values[i] = strings.TrimSpace(hp.Value.String())
			found = found || values[i] != ""
		}
	}

	latest := strings.TrimSpace(p.Value.String())
	if len(values) > 0 && values[0] != "" {
		latest = values[0]
	}

	if !found && latest == "" && len(p.Subparameters) == 0 {
		return cur
	}

	indent := d.indentWidth(depth)
	rng := ResolveRange(p, d.ageDays, d.gender)

	name := p.Name
	if unit := strings.TrimSpace(p.Unit); unit != "" {
		name += " (" + unit + ")"
	}

	if !found && latest == "" {
		cur = d.comparisonCells(cur, cols, indent, name, "", nil, nil, true)
	} else if isTextValue(p, latest) {
		cur = d.comparisonCells(cur, cols, indent, name, rng, []string{latest}, []float64{cols.datesWidth()}, false)
	} else {
		cur = d.comparisonCells(cur, cols, indent, name, rng, values, cols.Dates, false)
	}

	for _, child := range p.Subparameters {
		cur = d.comparisonRow(cur, cols, dates, entries, child, depth+1)
	}

	return cur
}

// isTextValue reports whether a parameter's results are not comparable
// numerically.
func isTextValue(p Parameter, latest string) bool {
	if strings.EqualFold(p.ValueType, ValueTypeText) {
		return true
	}
	_, ok := ParseNumericValue(latest)
	return !ok
}

func (d *document) comparisonCells(cur cursor, cols comparisonColumns, indent float64, name, rng string, values []string, widths []float64, label bool) cursor {
	nameStyle := FontRegular
	if label {
		nameStyle = FontBold
	}

	d.c.SetFont(nameStyle, baseFontPt)
	nameLines := d.c.SplitText(name, cols.Param-indent-2*cellInset)

	d.c.SetFont(FontRegular, baseFontPt)
	rangeLines := d.c.SplitText(rng, cols.Range-2*cellInset)

	valueLines := make([][]string, len(values))
	valueStyles := make([]FontStyle, len(values))
	rows := max(len(nameLines), len(rangeLines))
	for i, v := range values {
		valueStyles[i] = StyleFor(IsOutOfRange(v, rng), false)
		d.c.SetFont(valueStyles[i], baseFontPt)
		valueLines[i] = d.c.SplitText(v, widths[i]-2*cellInset)
		rows = max(rows, len(valueLines[i]))
	}
	h := lineHeight * float64(rows)

	cur = d.ensure(cur, h)

	x := marginX
	d.cellBox(x, cur.y, cols.Param, h, nil)
	d.c.SetFont(nameStyle, baseFontPt)
	d.c.SetTextColor(colorText)
	d.drawLines(x+indent+cellInset, cur.y, cols.Param-indent-2*cellInset, nameLines, "", baseFontPt)
	x += cols.Param

	d.cellBox(x, cur.y, cols.Range, h, nil)
	d.c.SetFont(FontRegular, baseFontPt)
	d.drawLines(x+cellInset, cur.y, cols.Range-2*cellInset, rangeLines, "center", baseFontPt)
	x += cols.Range

	if label {
		d.cellBox(x, cur.y, cols.datesWidth(), h, nil)
		return cur.advance(h)
	}

	for i := range values {
		d.cellBox(x, cur.y, widths[i], h, nil)
		d.c.SetFont(valueStyles[i], baseFontPt)
		d.drawLines(x+cellInset, cur.y, widths[i]-2*cellInset, valueLines[i], "center", baseFontPt)
		x += widths[i]
	}

	return cur.advance(h)
}

// cellBox strokes a thin cell border, filling it first when fill is set.
func (d *document) cellBox(x, y, w, h float64, fill *utils.Color) {
	d.c.SetDrawColor(colorRule)
	d.c.SetLineWidth(0.1)

	if fill != nil {
		d.c.SetFillColor(*fill)
		d.c.Rect(x, y, w, h, "FD")
		return
	}

	d.c.Rect(x, y, w, h, "D")
}
