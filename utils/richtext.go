/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"errors"
	"io"
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"
)

// RichNode is one element or text run of a parsed rich-text fragment.
// Text nodes have an empty Tag.
type RichNode struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Style    Style
	Children []*RichNode
}

// IsText reports whether the node is a text run.
func (n *RichNode) IsText() bool {
	return n.Tag == ""
}

// Attr returns the attribute value, or "" when unset.
func (n *RichNode) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// TextContent returns the concatenated text of the node and its
// descendants, with <br> rendered as a newline.
func (n *RichNode) TextContent() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *RichNode) writeText(b *strings.Builder) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	if n.Tag == "br" {
		b.WriteString("\n")
		return
	}
	for _, child := range n.Children {
		child.writeText(b)
	}
}

var newTokenizer = nethtml.NewTokenizer

// Tags whose end tag may be omitted, or that close themselves implicitly.
var optionalEndTags = map[string]bool{
	"p": true, "li": true, "tr": true, "td": true, "th": true,
	"thead": true, "tbody": true, "tfoot": true,
}

var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "col": true, "wbr": true, "meta": true, "input": true,
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
}

// ParseRichText parses an HTML fragment into a RichNode tree rooted at a
// "root" element. Entities are decoded; unknown entities are kept as written.
// Unknown tags are kept as transparent containers. An element left open at
// the end of the fragment (other than ones whose end tag may be omitted)
// yields ErrMalformedMarkup.
func ParseRichText(fragment string) (*RichNode, error) {
	root := &RichNode{Tag: "root"}
	stack := []*RichNode{root}
	skipDepth := 0

	z := newTokenizer(strings.NewReader(fragment))

	for {
		tt := z.Next()

		switch tt {
		case nethtml.ErrorToken:
			if !errors.Is(z.Err(), io.EOF) {
				return nil, z.Err()
			}
			for _, open := range stack[1:] {
				if !optionalEndTags[open.Tag] {
					return nil, ErrMalformedMarkup
				}
			}
			return root, nil

		case nethtml.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := collapseWhitespace(string(z.Text()))
			if strings.TrimSpace(text) == "" && !inlineContext(stack[len(stack)-1]) {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &RichNode{Text: text})

		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := strings.ToLower(string(name))

			if skippedTags[tag] {
				if tt == nethtml.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}

			node := &RichNode{Tag: tag}
			if hasAttr {
				node.Attrs = readAttrs(z)
				node.Style = ParseInlineStyle(node.Attrs["style"])
			}

			stack = closeImplicit(stack, tag)
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)

			if tt == nethtml.StartTagToken && !voidTags[tag] {
				stack = append(stack, node)
			}

		case nethtml.EndTagToken:
			name, _ := z.TagName()
			tag := strings.ToLower(string(name))

			if skippedTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 || voidTags[tag] {
				continue
			}

			stack = popTo(stack, tag)

		case nethtml.CommentToken, nethtml.DoctypeToken:
			continue
		}
	}
}

// PlainText strips all markup from a fragment, decoding entities and
// turning block boundaries into newlines.
func PlainText(fragment string) string {
	var b strings.Builder

	z := newTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return strings.TrimSpace(squashBlankLines(b.String()))
		case nethtml.TextToken:
			b.WriteString(collapseWhitespace(string(z.Text())))
		case nethtml.StartTagToken, nethtml.EndTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			if isBlockTag(strings.ToLower(string(name))) {
				b.WriteString("\n")
			}
		}
	}
}

// IsBlockTag reports whether the tag starts a new line in layout.
func IsBlockTag(tag string) bool {
	return isBlockTag(tag)
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "ul", "ol", "tr", "table",
		"h1", "h2", "h3", "h4", "h5", "h6", "hr":
		return true
	default:
		return false
	}
}

func inlineContext(n *RichNode) bool {
	switch n.Tag {
	case "ul", "ol", "table", "thead", "tbody", "tfoot", "tr":
		return false
	default:
		return true
	}
}

func readAttrs(z *nethtml.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
		if !more {
			return attrs
		}
	}
}

// closeImplicit pops elements that the incoming tag closes implicitly, the
// way a browser would for lists, paragraphs and table rows.
func closeImplicit(stack []*RichNode, tag string) []*RichNode {
	top := stack[len(stack)-1].Tag

	switch tag {
	case "li":
		if top == "li" {
			return stack[:len(stack)-1]
		}
	case "p":
		if top == "p" {
			return stack[:len(stack)-1]
		}
	case "td", "th":
		if top == "td" || top == "th" {
			return stack[:len(stack)-1]
		}
	case "tr":
		for len(stack) > 1 {
			t := stack[len(stack)-1].Tag
			if t != "td" && t != "th" && t != "tr" {
				break
			}
			stack = stack[:len(stack)-1]
		}
	}

	if isBlockTag(tag) && tag != "br" && top == "p" {
		return stack[:len(stack)-1]
	}

	return stack
}

// popTo closes the innermost open element named tag. Stray end tags are
// ignored.
func popTo(stack []*RichNode, tag string) []*RichNode {
	for i := len(stack) - 1; i > 0; i-- {
		if stack[i].Tag == tag {
			return stack[:i]
		}
	}
	return stack
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}

	return b.String()
}

func squashBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// TableCell is one td/th of a parsed table.
type TableCell struct {
	Content string
	Header  bool
	Colspan int
	Rowspan int
	Style   Style
}

// TableRow is one tr of a parsed table.
type TableRow struct {
	Cells []TableCell
	Style Style
}

// Table is a parsed table element. Rowspan is recorded on cells but is not
// used to merge cells vertically.
type Table struct {
	Rows  []TableRow
	Style Style
}

// Columns returns the widest row's column count, counting colspans.
func (t Table) Columns() int {
	cols := 0
	for _, row := range t.Rows {
		n := 0
		for _, cell := range row.Cells {
			n += cell.Colspan
		}
		if n > cols {
			cols = n
		}
	}
	return cols
}

// ParseTable flattens a table node into rows of cells. thead, tbody and
// tfoot sections are read in document order.
func ParseTable(n *RichNode) Table {
	table := Table{Style: n.Style}
	collectRows(n, &table)
	return table
}

func collectRows(n *RichNode, table *Table) {
	for _, child := range n.Children {
		switch child.Tag {
		case "thead", "tbody", "tfoot":
			collectRows(child, table)
		case "tr":
			table.Rows = append(table.Rows, parseRow(child))
		}
	}
}

func parseRow(tr *RichNode) TableRow {
	row := TableRow{Style: tr.Style}
	for _, child := range tr.Children {
		if child.Tag != "td" && child.Tag != "th" {
			continue
		}
		row.Cells = append(row.Cells, TableCell{
			Content: strings.TrimSpace(child.TextContent()),
			Header:  child.Tag == "th",
			Colspan: spanAttr(child.Attr("colspan")),
			Rowspan: spanAttr(child.Attr("rowspan")),
			Style:   child.Style,
		})
	}
	return row
}

func spanAttr(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
