/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/humaidq/pathreport/utils"
)

const bullet = "• "

var headingSizes = map[string]float64{
	"h1": 14,
	"h2": 13,
	"h3": 12,
	"h4": 11,
	"h5": 10,
	"h6": 10,
}

// textStyle is the resolved style of a run of rich text.
type textStyle struct {
	bold       bool
	italic     bool
	sizePt     float64
	color      utils.Color
	background *utils.Color
	align      string

	// fill is the background of the enclosing block, painted across the
	// full line width.
	fill *utils.Color
}

func baseTextStyle() textStyle {
	return textStyle{sizePt: baseFontPt, color: colorText}
}

func (s textStyle) font() FontStyle {
	return StyleFor(s.bold, s.italic)
}

// apply layers an element's tag semantics and inline style over s.
func (s textStyle) apply(n *utils.RichNode) textStyle {
	switch n.Tag {
	case "strong", "b", "th":
		s.bold = true
	case "em", "i":
		s.italic = true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		s.bold = true
		s.sizePt = headingSizes[n.Tag]
	}

	// Backgrounds do not inherit: blocks fill lines, spans fill words.
	s.background = nil

	st := n.Style
	if st.Color != nil {
		s.color = *st.Color
	}
	if st.Bold != nil {
		s.bold = *st.Bold
	}
	if st.Italic != nil {
		s.italic = *st.Italic
	}
	if !st.FontSize.IsZero() {
		if pt := st.FontSize.Points(s.sizePt); pt > 0 {
			s.sizePt = pt
		}
	}
	if st.TextAlign != "" {
		s.align = strings.ToLower(st.TextAlign)
	}

	if st.Background != nil {
		if utils.IsBlockTag(n.Tag) {
			s.fill = st.Background
		} else {
			s.background = st.Background
		}
	}

	return s
}

// lineHeightFor is the height of a line set at sizePt.
func lineHeightFor(sizePt float64) float64 {
	return max(lineHeight, sizePt*utils.MMPerPt*1.4)
}

// run is inline text sharing one style. A run with text "\n" is a forced
// line break.
type run struct {
	text  string
	style textStyle
}

// renderRichText lays out an HTML fragment in the column [x, x+maxWidth].
// A fragment that fails to parse is drawn as plain wrapped text.
func (d *document) renderRichText(cur cursor, fragment string, x, maxWidth float64) cursor {
	root, err := utils.ParseRichText(fragment)
	if err != nil {
		logger.Debug("Rendering rich text as plain text", "error", err)
		return d.plainText(cur, utils.PlainText(fragment), x, maxWidth)
	}

	return d.flow(cur, root, baseTextStyle(), x, maxWidth)
}

func (d *document) plainText(cur cursor, text string, x, maxWidth float64) cursor {
	d.c.SetFont(FontRegular, baseFontPt)
	d.c.SetTextColor(colorText)

	for _, line := range d.c.SplitText(text, maxWidth) {
		cur = d.ensure(cur, lineHeight)
		d.c.SetFont(FontRegular, baseFontPt)
		d.c.Text(x, cur.y+baselineOffset(lineHeight, baseFontPt), line)
		cur = cur.advance(lineHeight)
	}

	return cur
}

// flow lays out the children of n: inline content is gathered into
// paragraphs, block children are laid out in turn.
func (d *document) flow(cur cursor, n *utils.RichNode, st textStyle, x, width float64) cursor {
	var runs []run

	flush := func() {
		cur = d.paragraph(cur, runs, st, x, width)
		runs = nil
	}

	for _, child := range n.Children {
		switch {
		case child.IsText():
			runs = append(runs, run{text: child.Text, style: st})
		case child.Tag == "br":
			runs = append(runs, run{text: "\n", style: st})
		case child.Tag == "table":
			flush()
			cur = d.renderTable(cur, utils.ParseTable(child), x, width)
		case child.Tag == "ul" || child.Tag == "ol":
			flush()
			cur = d.list(cur, child, st.apply(child), x, width)
		case child.Tag == "hr":
			flush()
			cur = d.rule(cur, x, width)
		case utils.IsBlockTag(child.Tag):
			flush()
			cur = d.block(cur, child, st, x, width)
		default:
			runs = d.inlineRuns(runs, child, st)
		}
	}

	flush()

	return cur
}

func (d *document) inlineRuns(runs []run, n *utils.RichNode, parent textStyle) []run {
	st := parent.apply(n)

	for _, child := range n.Children {
		switch {
		case child.IsText():
			runs = append(runs, run{text: child.Text, style: st})
		case child.Tag == "br":
			runs = append(runs, run{text: "\n", style: st})
		default:
			runs = d.inlineRuns(runs, child, st)
		}
	}

	return runs
}

// block lays out a block element with its margin, padding and border.
func (d *document) block(cur cursor, n *utils.RichNode, parent textStyle, x, width float64) cursor {
	st := parent.apply(n)

	margin := n.Style.Margin.MM(st.sizePt)
	padding := n.Style.Padding.MM(st.sizePt)

	cur = cur.advance(margin)
	top, startPage := cur, d.c.PageCount()

	if padding > 0 && st.fill != nil {
		d.c.SetFillColor(*st.fill)
		d.c.Rect(x, cur.y, width, padding, "F")
	}
	cur = cur.advance(padding)

	cur = d.flow(cur, n, st, x+padding, width-2*padding)

	if padding > 0 && st.fill != nil {
		d.c.SetFillColor(*st.fill)
		d.c.Rect(x, cur.y, width, padding, "F")
	}
	cur = cur.advance(padding)

	// Borders are only drawn around blocks that stay on one page.
	if n.Style.HasBorder() && d.c.PageCount() == startPage {
		if d.applyBorder(n.Style, st.sizePt) {
			d.c.Rect(x, top.y, width, cur.y-top.y, "D")
		}
	}

	cur = cur.advance(margin)

	if _, heading := headingSizes[n.Tag]; heading || n.Tag == "p" {
		cur = cur.advance(lineHeight * 0.3)
	}

	return cur
}

// list lays out li children with a bullet and a hanging indent of the
// bullet's width.
func (d *document) list(cur cursor, n *utils.RichNode, st textStyle, x, width float64) cursor {
	for _, child := range n.Children {
		if child.IsText() {
			continue
		}
		if child.Tag != "li" {
			cur = d.flow(cur, &utils.RichNode{Tag: "div", Children: []*utils.RichNode{child}}, st, x, width)
			continue
		}

		itemStyle := st.apply(child)
		d.c.SetFont(itemStyle.font(), itemStyle.sizePt)
		indent := d.c.StringWidth(bullet)

		h := lineHeightFor(itemStyle.sizePt)
		cur = d.ensure(cur, h)

		d.c.SetTextColor(itemStyle.color)
		d.c.Text(x, cur.y+baselineOffset(h, itemStyle.sizePt), bullet)

		cur = d.flow(cur, child, itemStyle, x+indent, width-indent)
	}

	return cur.advance(lineHeight * 0.3)
}

func (d *document) rule(cur cursor, x, width float64) cursor {
	cur = d.ensure(cur, lineHeight)
	d.c.SetDrawColor(colorRule)
	d.c.SetLineWidth(0.2)
	d.c.Line(x, cur.y+lineHeight/2, x+width, cur.y+lineHeight/2)
	return cur.advance(lineHeight)
}

// word is a measured token of a paragraph line.
type word struct {
	text  string
	style textStyle
	width float64
	space float64
	// gap is set when whitespace precedes the word.
	gap bool
}

// paragraph word-wraps runs into lines of mixed style.
func (d *document) paragraph(cur cursor, runs []run, st textStyle, x, width float64) cursor {
	if len(runs) == 0 {
		return cur
	}

	var (
		line    []word
		lineW   float64
		pending bool
	)

	emit := func() {
		cur = d.drawLine(cur, line, st, x, width)
		line, lineW = nil, 0
	}

	for _, r := range runs {
		if r.text == "\n" {
			emit()
			pending = false
			continue
		}

		text := r.text
		if first, _ := utf8.DecodeRuneInString(text); unicode.IsSpace(first) {
			pending = true
		}

		fields := strings.Fields(text)
		for i, f := range fields {
			d.c.SetFont(r.style.font(), r.style.sizePt)
			w := word{
				text:  f,
				style: r.style,
				width: d.c.StringWidth(f),
				space: d.c.StringWidth(" "),
				gap:   (i > 0 || pending) && len(line) > 0,
			}
			pending = false

			advance := w.width
			if w.gap {
				advance += w.space
			}

			if lineW+advance > width && len(line) > 0 {
				emit()
				w.gap = false
				advance = w.width
			}

			if w.width > width {
				pieces := wrapText(d.c.StringWidth, f, width)
				widths := make([]float64, len(pieces))
				for j, piece := range pieces {
					widths[j] = d.c.StringWidth(piece)
				}
				for j, piece := range pieces[:len(pieces)-1] {
					line = append(line, word{text: piece, style: r.style, width: widths[j]})
					emit()
				}
				w.text = pieces[len(pieces)-1]
				w.width = widths[len(pieces)-1]
				advance = w.width
			}

			line = append(line, w)
			lineW += advance
		}

		if last, _ := utf8.DecodeLastRuneInString(text); unicode.IsSpace(last) {
			pending = true
		}
	}

	if len(line) > 0 {
		emit()
	}

	return cur
}

// drawLine places one wrapped line. An empty line only advances the cursor.
func (d *document) drawLine(cur cursor, line []word, st textStyle, x, width float64) cursor {
	size := st.sizePt
	lineW := 0.0
	for _, w := range line {
		size = max(size, w.style.sizePt)
		lineW += w.width
		if w.gap {
			lineW += w.space
		}
	}

	h := lineHeightFor(size)
	cur = d.ensure(cur, h)

	if st.fill != nil {
		d.c.SetFillColor(*st.fill)
		d.c.Rect(x, cur.y, width, h, "F")
	}

	lx := x
	switch st.align {
	case "center":
		lx = x + (width-lineW)/2
	case "right":
		lx = x + width - lineW
	}

	baseline := cur.y + baselineOffset(h, size)
	for _, w := range line {
		if w.gap {
			lx += w.space
		}

		if w.style.background != nil {
			d.c.SetFillColor(*w.style.background)
			d.c.Rect(lx, cur.y+0.3, w.width, h-0.6, "F")
		}

		d.c.SetFont(w.style.font(), w.style.sizePt)
		d.c.SetTextColor(w.style.color)
		d.c.Text(lx, baseline, w.text)

		lx += w.width
	}

	d.c.SetTextColor(colorText)

	return cur.advance(h)
}

// applyBorder sets the stroke for a styled border. It reports false when
// the border is turned off.
func (d *document) applyBorder(st utils.Style, sizePt float64) bool {
	if strings.EqualFold(st.BorderStyle, "none") || strings.EqualFold(st.BorderStyle, "hidden") {
		return false
	}

	width := 0.1
	if !st.BorderWidth.IsZero() {
		width = st.BorderWidth.MM(sizePt)
		if width <= 0 {
			return false
		}
	}

	color := colorRule
	if st.BorderColor != nil {
		color = *st.BorderColor
	}

	d.c.SetLineWidth(width)
	d.c.SetDrawColor(color)

	return true
}

// renderTable lays out a parsed table on an even column grid. A cell with
// colspan n takes n column widths; rowspan is not merged.
func (d *document) renderTable(cur cursor, table utils.Table, x, maxWidth float64) cursor {
	cols := table.Columns()
	if cols == 0 {
		return cur
	}

	colW := maxWidth / float64(cols)

	for _, row := range table.Rows {
		cur = d.tableRow(cur, table, row, x, colW, cols)
	}

	return cur.advance(lineHeight * 0.3)
}

type tableCellLayout struct {
	cell  utils.TableCell
	style utils.Style
	x     float64
	width float64
	font  FontStyle
	size  float64
	lines []string
}

func (d *document) tableRow(cur cursor, table utils.Table, row utils.TableRow, x, colW float64, cols int) cursor {
	var cells []tableCellLayout

	col := 0
	rowH := lineHeight
	for _, cell := range row.Cells {
		if col >= cols {
			break
		}

		span := min(cell.Colspan, cols-col)
		style := table.Style.Merge(row.Style).Merge(cell.Style)

		bold := cell.Header
		if style.Bold != nil {
			bold = *style.Bold
		}
		italic := style.Italic != nil && *style.Italic

		size := baseFontPt
		if !style.FontSize.IsZero() {
			if pt := style.FontSize.Points(baseFontPt); pt > 0 {
				size = pt
			}
		}

		layout := tableCellLayout{
			cell:  cell,
			style: style,
			x:     x + float64(col)*colW,
			width: float64(span) * colW,
			font:  StyleFor(bold, italic),
			size:  size,
		}

		d.c.SetFont(layout.font, size)
		layout.lines = d.c.SplitText(cell.Content, layout.width-2*cellInset)
		rowH = max(rowH, float64(len(layout.lines))*lineHeightFor(size))

		cells = append(cells, layout)
		col += span
	}

	cur = d.ensure(cur, rowH)

	for _, cl := range cells {
		fill := cl.style.Background
		if fill == nil && cl.cell.Header {
			fill = &colorHeaderFill
		}
		if fill != nil {
			d.c.SetFillColor(*fill)
			d.c.Rect(cl.x, cur.y, cl.width, rowH, "F")
		}

		if d.applyBorder(cl.style, cl.size) {
			d.c.Rect(cl.x, cur.y, cl.width, rowH, "D")
		}

		color := colorText
		if cl.style.Color != nil {
			color = *cl.style.Color
		}

		d.c.SetFont(cl.font, cl.size)
		d.c.SetTextColor(color)

		lh := lineHeightFor(cl.size)
		for i, line := range cl.lines {
			lx := cl.x + cellInset
			switch strings.ToLower(cl.style.TextAlign) {
			case "center":
				lx = cl.x + (cl.width-d.c.StringWidth(line))/2
			case "right":
				lx = cl.x + cl.width - cellInset - d.c.StringWidth(line)
			}
			d.c.Text(lx, cur.y+float64(i)*lh+baselineOffset(lh, cl.size), line)
		}
	}

	d.c.SetTextColor(colorText)

	return cur.advance(rowH)
}
