/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/humaidq/pathreport/utils"
)

// Page geometry in millimetres.
const (
	marginX      = 10.0
	headerTop    = 45.0
	headerRowH   = 5.0
	headerRows   = 4
	bodyGap      = 4.0
	footerMargin = 50.0
	lineHeight   = 5.0
	baseFontPt   = 9.0
	cellInset    = 1.0
	titleBarH    = 7.0

	stampW       = 40.0
	stampH       = 20.0
	stampBottom  = 45.0
	printedByGap = 18.0
	qrSize       = 18.0

	headerValueOffset = 30.0
	headerRightX      = 105.0
)

const endOfReport = "--- END OF REPORT ---"

const dateTimeLayout = "02-Jan-2006 03:04 PM"

var (
	colorText       = utils.Color{R: 0, G: 0, B: 0}
	colorWhite      = utils.Color{R: 255, G: 255, B: 255}
	colorTitleBar   = utils.Color{R: 31, G: 78, B: 121}
	colorHeaderFill = utils.Color{R: 230, G: 230, B: 230}
	colorRule       = utils.Color{R: 140, G: 140, B: 140}
	colorMuted      = utils.Color{R: 90, G: 90, B: 90}
)

// cursor is the vertical write position on the current page. Drawing
// helpers take a cursor and return the advanced one.
type cursor struct {
	y float64
}

func (c cursor) advance(dy float64) cursor {
	return cursor{y: c.y + dy}
}

type docState int

const (
	stateCover docState = iota
	stateBody
	stateDone
)

// document holds the per-call layout state of one generated PDF.
type document struct {
	c      Canvas
	req    Request
	assets Assets

	patient    *Patient
	ageDays    float64
	gender     Gender
	reportedOn time.Time
	verifyQR   *Image

	state        docState
	pageW, pageH float64
}

func newDocument(c Canvas, req Request, assets Assets, created time.Time) *document {
	w, h := c.PageSize()

	d := &document{
		c:       c,
		req:     req,
		assets:  assets,
		patient: req.Patient,
		ageDays: req.Patient.AgeDays(),
		gender:  NormalizeGender(req.Patient.Gender),
		state:   stateCover,
		pageW:   w,
		pageH:   h,
	}

	d.reportedOn = latestReportedOn(req, created)
	d.verifyQR = verificationQR(req.VerifyURL)

	return d
}

// latestReportedOn picks the newest report time among the selected tests,
// falling back to the document creation time.
func latestReportedOn(req Request, created time.Time) time.Time {
	var latest time.Time
	for _, key := range req.SelectedTests {
		t, ok := req.Patient.Tests[key]
		if !ok || t.ReportedOn == nil {
			continue
		}
		if t.ReportedOn.After(latest) {
			latest = *t.ReportedOn
		}
	}
	if latest.IsZero() {
		return created
	}
	return latest
}

func verificationQR(url string) *Image {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		logger.Warn("Failed to encode verification QR", "error", err)
		return nil
	}

	img, err := NewImage("verify-qr", png)
	if err != nil {
		logger.Warn("Failed to load verification QR", "error", err)
		return nil
	}

	return img
}

func (d *document) contentWidth() float64 {
	return d.pageW - 2*marginX
}

func (d *document) bodyTop() float64 {
	return headerTop + headerRows*headerRowH + bodyGap
}

// limit is the lowest y body content may reach.
func (d *document) limit() float64 {
	return d.pageH - footerMargin
}

// cover adds the full-page cover image. Without an image there is no
// cover page.
func (d *document) cover() {
	if d.state != stateCover {
		return
	}
	if d.req.SkipCover {
		return
	}
	if d.assets.Cover == nil {
		logger.Warn("Cover page requested without a cover image")
		return
	}

	d.c.AddPage()
	d.c.Image(d.assets.Cover, 0, 0, d.pageW, d.pageH)
}

// newPage starts a body page with its letterhead, patient header and
// stamps, and returns the cursor at the top of the body area.
func (d *document) newPage() cursor {
	d.state = stateBody
	d.c.AddPage()

	if d.req.IncludeLetterhead && d.assets.Letterhead != nil {
		w, h := d.assets.Letterhead.Fit(d.pageW, d.pageH)
		d.c.Image(d.assets.Letterhead, 0, 0, w, h)
	}

	d.drawHeader()
	d.drawStamps()

	return cursor{y: d.bodyTop()}
}

// ensure starts a new page when a block of height h would cross the
// footer.
func (d *document) ensure(cur cursor, h float64) cursor {
	if cur.y+h > d.limit() && cur.y > d.bodyTop() {
		return d.newPage()
	}
	return cur
}

// freshPage starts a new page unless nothing has been drawn on the
// current one yet.
func (d *document) freshPage(cur cursor) cursor {
	if cur.y > d.bodyTop() {
		return d.newPage()
	}
	return cur
}

func (d *document) drawHeader() {
	p := d.patient

	name := strings.TrimSpace(strings.TrimSpace(p.Title) + " " + strings.TrimSpace(p.Name))
	ageSex := formatAge(p.Age, p.AgeUnit) + " / " + d.gender.Label()

	left := [][2]string{
		{"Name", name},
		{"Age / Sex", ageSex},
		{"Ref. By", orDash(p.DoctorName)},
		{"Client", orDash(p.HospitalName)},
	}

	right := [][2]string{
		{"Patient ID", orDash(p.PatientID)},
		{"Collected", formatOptionalTime(p.SampleCollectedAt)},
		{"Registered", formatTime(p.RegisteredAt)},
		{"Reported", formatTime(d.reportedOn)},
	}

	rightWidth := d.pageW - marginX - headerRightX - headerValueOffset
	if d.verifyQR != nil {
		rightWidth -= qrSize + 2
	}

	d.c.SetTextColor(colorText)
	for i := range headerRows {
		baseline := headerTop + float64(i)*headerRowH + baselineOffset(headerRowH, baseFontPt)
		d.headerField(marginX, baseline, headerRightX-marginX-headerValueOffset-2, left[i])
		d.headerField(headerRightX, baseline, rightWidth, right[i])
	}

	if d.verifyQR != nil {
		d.c.Image(d.verifyQR, d.pageW-marginX-qrSize, headerTop-1, qrSize, qrSize)
	}

	ruleY := headerTop + headerRows*headerRowH + 1
	d.c.SetDrawColor(colorRule)
	d.c.SetLineWidth(0.3)
	d.c.Line(marginX, ruleY, d.pageW-marginX, ruleY)
}

func (d *document) headerField(x, baseline, valueWidth float64, field [2]string) {
	d.c.SetFont(FontBold, baseFontPt)
	d.c.Text(x, baseline, field[0])

	d.c.SetFont(FontRegular, baseFontPt)
	value := ": " + field[1]
	// The header row is fixed height, so long values are cut to one line.
	if lines := d.c.SplitText(value, valueWidth); len(lines) > 0 {
		value = lines[0]
	}
	d.c.Text(x+headerValueOffset, baseline, value)
}

func (d *document) drawStamps() {
	// Stamps sit on the bottom edge of their box, the primary flush left
	// and the secondary flush right.
	bottom := d.pageH - stampBottom + stampH

	if d.assets.Stamp != nil {
		w, h := d.assets.Stamp.Fit(stampW, stampH)
		d.c.Image(d.assets.Stamp, marginX, bottom-h, w, h)
	}
	if d.assets.SecondaryStamp != nil {
		w, h := d.assets.SecondaryStamp.Fit(stampW, stampH)
		d.c.Image(d.assets.SecondaryStamp, d.pageW-marginX-w, bottom-h, w, h)
	}

	if by := strings.TrimSpace(d.patient.EnteredBy); by != "" {
		d.c.SetFont(FontItalic, 8)
		d.c.SetTextColor(colorMuted)
		d.c.Text(marginX, d.pageH-printedByGap, "Printed by "+by)
		d.c.SetTextColor(colorText)
	}
}

// titleBar draws a filled bar with a centred white title.
func (d *document) titleBar(cur cursor, title string) cursor {
	cur = d.ensure(cur, titleBarH+lineHeight)

	d.c.SetFillColor(colorTitleBar)
	d.c.Rect(marginX, cur.y, d.contentWidth(), titleBarH, "F")

	d.c.SetFont(FontBold, 10)
	d.c.SetTextColor(colorWhite)
	w := d.c.StringWidth(title)
	d.c.Text(marginX+(d.contentWidth()-w)/2, cur.y+baselineOffset(titleBarH, 10), title)
	d.c.SetTextColor(colorText)

	return cur.advance(titleBarH + 1)
}

// groupHeading prints the display name of a combined group.
func (d *document) groupHeading(cur cursor, name string) cursor {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return cur
	}

	cur = d.ensure(cur, lineHeight*2)

	d.c.SetFont(FontBold, 11)
	d.c.SetTextColor(colorTitleBar)
	w := d.c.StringWidth(name)
	d.c.Text(marginX+(d.contentWidth()-w)/2, cur.y+baselineOffset(lineHeight+1, 11), name)
	d.c.SetTextColor(colorText)

	return cur.advance(lineHeight + 2)
}

// finish prints the end marker on the last content page.
func (d *document) finish(cur cursor) {
	if d.state != stateBody {
		cur = d.newPage()
	}

	y := cur.y + 6
	if y > d.limit() {
		y = d.limit() + 2
	}

	d.c.SetFont(FontBold, baseFontPt)
	d.c.SetTextColor(colorText)
	w := d.c.StringWidth(endOfReport)
	d.c.Text((d.pageW-w)/2, y, endOfReport)

	d.state = stateDone
}

// drawLines writes wrapped lines top-down from y inside a column.
func (d *document) drawLines(x, y, width float64, lines []string, align string, sizePt float64) {
	for i, line := range lines {
		lx := x
		switch align {
		case "center":
			lx = x + (width-d.c.StringWidth(line))/2
		case "right":
			lx = x + width - d.c.StringWidth(line)
		}
		d.c.Text(lx, y+float64(i)*lineHeight+baselineOffset(lineHeight, sizePt), line)
	}
}

// baselineOffset centres text of the given size in a box of height h.
func baselineOffset(h, sizePt float64) float64 {
	return h/2 + sizePt*utils.MMPerPt*0.35
}

func formatAge(age float64, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "Years"
	}
	return strings.TrimSpace(trimFloat(age) + " " + unit)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateTimeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}
