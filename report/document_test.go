// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type drawnText struct {
	page  int
	x, y  float64
	text  string
	style FontStyle
}

type placedImage struct {
	page       int
	name       string
	x, y, w, h float64
}

// recordingCanvas draws onto a real PDF canvas and remembers every text
// and image placement.
type recordingCanvas struct {
	*pdfCanvas

	style  FontStyle
	texts  []drawnText
	images []string
	placed []placedImage
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{pdfCanvas: newPDFCanvas("test", testTime)}
}

func (r *recordingCanvas) SetFont(style FontStyle, sizePt float64) {
	r.style = style
	r.pdfCanvas.SetFont(style, sizePt)
}

func (r *recordingCanvas) Text(x, y float64, s string) {
	r.texts = append(r.texts, drawnText{page: r.PageCount(), x: x, y: y, text: s, style: r.style})
	r.pdfCanvas.Text(x, y, s)
}

func (r *recordingCanvas) Image(img *Image, x, y, w, h float64) {
	if img != nil {
		r.images = append(r.images, fmt.Sprintf("%d:%s", r.PageCount(), img.Name))
		r.placed = append(r.placed, placedImage{page: r.PageCount(), name: img.Name, x: x, y: y, w: w, h: h})
	}
	r.pdfCanvas.Image(img, x, y, w, h)
}

// pagesWith returns the pages carrying a text containing s.
func (r *recordingCanvas) pagesWith(s string) []int {
	var pages []int
	for _, t := range r.texts {
		if strings.Contains(t.text, s) && (len(pages) == 0 || pages[len(pages)-1] != t.page) {
			pages = append(pages, t.page)
		}
	}
	return pages
}

func (r *recordingCanvas) find(s string) (drawnText, bool) {
	for _, t := range r.texts {
		if t.text == s {
			return t, true
		}
	}
	return drawnText{}, false
}

func (r *recordingCanvas) indexOf(s string) int {
	for i, t := range r.texts {
		if t.text == s {
			return i
		}
	}
	return -1
}

func testPatient(tests map[string]TestResult) *Patient {
	collected := testTime.Add(-2 * time.Hour)
	return &Patient{
		Title:             "Ms.",
		Name:              "Jane Doe",
		Age:               45,
		AgeUnit:           "Years",
		Gender:            "female",
		PatientID:         "P-1001",
		RegistrationID:    "R-2001",
		DoctorName:        "Dr. Ahmed",
		HospitalName:      "City Clinic",
		RegisteredAt:      testTime.Add(-3 * time.Hour),
		SampleCollectedAt: &collected,
		EnteredBy:         "Lab Tech",
		Tests:             tests,
	}
}

func simpleTest(name string, params int) TestResult {
	t := TestResult{Name: name}
	for i := range params {
		t.Parameters = append(t.Parameters, Parameter{
			Name:  fmt.Sprintf("%s P%d", name, i+1),
			Value: "5",
			Unit:  "mg/dL",
			Range: LiteralRange("1-10"),
		})
	}
	return t
}

func render(t *testing.T, req Request, assets Assets) *recordingCanvas {
	t.Helper()

	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = testTime
	}

	c := newRecordingCanvas()
	if err := layout(c, req, assets, req.GeneratedAt); err != nil {
		t.Fatalf("layout failed: %v", err)
	}

	return c
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	if _, err := Generate(Request{}, Assets{}); !errors.Is(err, ErrPatientRequired) {
		t.Fatalf("expected ErrPatientRequired, got %v", err)
	}

	req := Request{Patient: testPatient(nil), Mode: "sideways"}
	if _, err := Generate(req, Assets{}); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestGenerateProducesPDF(t *testing.T) {
	t.Parallel()

	req := Request{
		Patient:       testPatient(map[string]TestResult{"cbc": simpleTest("CBC", 3)}),
		SelectedTests: []string{"cbc"},
		SkipCover:     true,
		GeneratedAt:   testTime,
	}

	data, err := Generate(req, Assets{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF output")
	}
}

func TestEmptySelectionStillProducesDocument(t *testing.T) {
	t.Parallel()

	c := render(t, Request{Patient: testPatient(nil), SkipCover: true}, Assets{})

	if c.PageCount() != 1 {
		t.Fatalf("expected a single page, got %d", c.PageCount())
	}
	if len(c.pagesWith(endOfReport)) != 1 {
		t.Fatalf("expected end of report marker")
	}
}

func TestOutsourcedAndEmptyTestsAreSkipped(t *testing.T) {
	t.Parallel()

	tests := map[string]TestResult{
		"cbc":     simpleTest("Complete Blood Count", 2),
		"genetic": {Name: "Outsourced Genetics", Type: TestTypeOutsource},
		"empty":   {Name: "Empty Panel"},
	}

	c := render(t, Request{
		Patient:       testPatient(tests),
		SelectedTests: []string{"genetic", "cbc", "empty"},
		SkipCover:     true,
	}, Assets{})

	if len(c.pagesWith("Outsourced Genetics")) != 0 {
		t.Fatalf("expected outsourced test to be skipped")
	}
	if len(c.pagesWith("Empty Panel")) != 0 {
		t.Fatalf("expected parameter-less test to be skipped")
	}
	if len(c.pagesWith("Complete Blood Count")) != 1 {
		t.Fatalf("expected the remaining test to be printed")
	}
	if c.PageCount() != 1 {
		t.Fatalf("expected skipped tests to add no pages, got %d", c.PageCount())
	}
}

func TestLayoutIsIdempotent(t *testing.T) {
	t.Parallel()

	reported := testTime.Add(-time.Hour)
	cbc := simpleTest("CBC", 30)
	cbc.ReportedOn = &reported

	req := Request{
		Patient:       testPatient(map[string]TestResult{"cbc": cbc, "lft": simpleTest("LFT", 12)}),
		SelectedTests: []string{"cbc", "lft"},
		SkipCover:     true,
	}

	first := render(t, req, Assets{})
	second := render(t, req, Assets{})

	if first.PageCount() != second.PageCount() {
		t.Fatalf("page counts differ: %d vs %d", first.PageCount(), second.PageCount())
	}
	if !reflect.DeepEqual(first.texts, second.texts) {
		t.Fatalf("expected identical text placement across runs")
	}

	if len(first.pagesWith(": "+reported.Format(dateTimeLayout))) != first.PageCount() {
		t.Fatalf("expected the reported-on time from the test on every page")
	}
}

func TestPaginationRepeatsHeaderAndStamps(t *testing.T) {
	t.Parallel()

	stamp, err := NewImage("stamp", pngBytes(t, 4, 2))
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}

	c := render(t, Request{
		Patient:       testPatient(map[string]TestResult{"panel": simpleTest("Big Panel", 80)}),
		SelectedTests: []string{"panel"},
		SkipCover:     true,
	}, Assets{Stamp: stamp})

	pages := c.PageCount()
	if pages < 2 {
		t.Fatalf("expected the panel to span pages, got %d", pages)
	}

	for _, label := range []string{"Patient ID", "Printed by Lab Tech"} {
		if got := len(c.pagesWith(label)); got != pages {
			t.Fatalf("expected %q on all %d pages, got %d", label, pages, got)
		}
	}

	if len(c.images) != pages {
		t.Fatalf("expected a stamp on every page, got %v", c.images)
	}

	limit := 297.0 - footerMargin
	for _, text := range c.texts {
		if strings.HasPrefix(text.text, "Big Panel P") && text.y > limit {
			t.Fatalf("row %q drawn below the footer line at %.1f", text.text, text.y)
		}
	}

	end := c.pagesWith(endOfReport)
	if len(end) != 1 || end[0] != pages {
		t.Fatalf("expected end marker only on last page, got %v", end)
	}
}

func TestOutOfRangeValueIsBold(t *testing.T) {
	t.Parallel()

	test := TestResult{
		Name: "Haemogram",
		Parameters: []Parameter{
			{Name: "Hb", Value: "10", Unit: "g/dL", Range: bucketed(GenderFemale, "18-60y", "12-15")},
			{Name: "PCV", Value: "40", Unit: "%", Range: LiteralRange("36-46")},
		},
	}

	c := render(t, Request{
		Patient:       testPatient(map[string]TestResult{"hb": test}),
		SelectedTests: []string{"hb"},
		SkipCover:     true,
	}, Assets{})

	if _, ok := c.find("12-15"); !ok {
		t.Fatalf("expected resolved range 12-15 to be printed")
	}

	low, ok := c.find("10")
	if !ok || low.style != FontBold {
		t.Fatalf("expected out-of-range value in bold, got %+v", low)
	}

	normal, ok := c.find("40")
	if !ok || normal.style != FontRegular {
		t.Fatalf("expected in-range value in regular, got %+v", normal)
	}
}

func TestSectionOrderAndVisibility(t *testing.T) {
	t.Parallel()

	test := TestResult{
		Name: "Lipid Profile",
		Parameters: []Parameter{
			{Name: "Cholesterol", Value: "180"},
			{Name: "HDL", Value: "50"},
			{Name: "Secret", Value: "1", Visibility: VisibilityHidden},
			{Name: "LDL", Value: "110"},
			{Name: "Pending", Value: ""},
			{Name: "Ratios", Subparameters: []Parameter{
				{Name: "TC/HDL", Value: "3.6"},
			}},
		},
		Subheadings: []Subheading{
			{Title: "Lipoproteins", ParameterNames: []string{"LDL", "HDL"}},
		},
		Descriptions: []Description{
			{Heading: "Interpretation", Content: "<p>Values are <b>normal</b>.</p>"},
		},
	}

	c := render(t, Request{
		Patient:       testPatient(map[string]TestResult{"lipid": test}),
		SelectedTests: []string{"lipid"},
		SkipCover:     true,
	}, Assets{})

	order := []string{"Cholesterol", "Ratios", "TC/HDL", "Lipoproteins", "LDL", "HDL", "Interpretation", "normal"}
	last := -1
	for _, s := range order {
		i := c.indexOf(s)
		if i < 0 {
			t.Fatalf("expected %q to be drawn", s)
		}
		if i < last {
			t.Fatalf("expected %q after the previous entry in %v", s, order)
		}
		last = i
	}

	for _, s := range []string{"Secret", "Pending"} {
		if c.indexOf(s) >= 0 {
			t.Fatalf("expected %q to be skipped", s)
		}
	}

	parent, _ := c.find("Ratios")
	child, _ := c.find("TC/HDL")
	if child.x <= parent.x {
		t.Fatalf("expected subparameter indent, parent x %.2f child x %.2f", parent.x, child.x)
	}
}

func TestNormalModeGroups(t *testing.T) {
	t.Parallel()

	tests := map[string]TestResult{
		"a": simpleTest("Alpha", 1),
		"b": simpleTest("Beta", 1),
		"c": simpleTest("Gamma", 1),
		"d": simpleTest("Delta", 1),
	}

	c := render(t, Request{
		Patient:       testPatient(tests),
		SelectedTests: []string{"a", "b", "c", "d"},
		CombinedGroups: []CombinedGroup{
			{Name: "Empty Group", TestKeys: []string{"zz"}},
			{Name: "Panel One", TestKeys: []string{"a", "b"}},
			{Name: "Panel Two", TestKeys: []string{"c"}},
		},
		SkipCover: true,
	}, Assets{})

	want := map[string]int{
		"PANEL ONE": 1,
		"Alpha":     1,
		"Beta":      1,
		"PANEL TWO": 2,
		"Gamma":     2,
		"Delta":     3,
	}
	for text, page := range want {
		pages := c.pagesWith(text)
		if len(pages) == 0 || pages[0] != page {
			t.Fatalf("expected %q on page %d, got %v", text, page, pages)
		}
	}

	if len(c.pagesWith("EMPTY GROUP")) != 0 {
		t.Fatalf("expected group without tests to be skipped")
	}
}

func TestCombinedModeChunksFivePerPage(t *testing.T) {
	t.Parallel()

	tests := make(map[string]TestResult)
	var keys []string
	for i := 1; i <= 7; i++ {
		key := fmt.Sprintf("t%d", i)
		tests[key] = simpleTest(fmt.Sprintf("Test %d", i), 1)
		keys = append(keys, key)
	}

	c := render(t, Request{
		Patient:        testPatient(tests),
		SelectedTests:  keys,
		CombinedGroups: []CombinedGroup{{Name: "Ignored", TestKeys: []string{"t7"}}},
		Mode:           ModeCombined,
		SkipCover:      true,
	}, Assets{})

	if c.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", c.PageCount())
	}

	for i := 1; i <= 7; i++ {
		want := 1
		if i > 5 {
			want = 2
		}
		pages := c.pagesWith(fmt.Sprintf("Test %d", i))
		if len(pages) == 0 || pages[0] != want {
			t.Fatalf("expected Test %d on page %d, got %v", i, want, pages)
		}
	}
}

func TestLayoutComparisonColumns(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 4; n++ {
		cols := layoutComparisonColumns(190, n)

		if len(cols.Dates) != n {
			t.Fatalf("expected %d date columns, got %d", n, len(cols.Dates))
		}
		for _, w := range cols.Dates {
			if math.Abs(w-cols.Dates[0]) > 1e-9 {
				t.Fatalf("expected equal date columns, got %v", cols.Dates)
			}
		}

		if math.Abs(cols.Param-57) > 1e-9 || math.Abs(cols.Range-38) > 1e-9 {
			t.Fatalf("unexpected fixed columns %+v", cols)
		}
		if math.Abs(cols.datesWidth()-95) > 1e-9 {
			t.Fatalf("expected dates to fill 95mm, got %v", cols.datesWidth())
		}
	}
}

func TestLayoutNormalColumns(t *testing.T) {
	t.Parallel()

	full := layoutNormalColumns(100, true, true)
	if full != (normalColumns{Param: 40, Value: 15, Unit: 15, Range: 30}) {
		t.Fatalf("unexpected full columns %+v", full)
	}

	noUnit := layoutNormalColumns(100, false, true)
	if noUnit.Unit != 0 || noUnit.Value != 30 || noUnit.Range != 30 {
		t.Fatalf("unexpected columns without unit %+v", noUnit)
	}

	bare := layoutNormalColumns(100, false, false)
	if bare.Unit != 0 || bare.Range != 0 || bare.Value != 60 {
		t.Fatalf("unexpected columns without unit and range %+v", bare)
	}
}

func TestComparisonMode(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	current := TestResult{
		Name: "Urine Routine",
		Parameters: []Parameter{
			{Name: "Protein", Value: "Nil", ValueType: ValueTypeText},
			{Name: "pH", Value: "6.5", Range: LiteralRange("4.5 - 8")},
		},
	}

	entry := func(at time.Time, protein, ph string) HistoricalEntry {
		return HistoricalEntry{
			ReportedOn: at,
			Parameters: []Parameter{
				{Name: "Protein", Value: ResultValue(protein)},
				{Name: "pH", Value: ResultValue(ph)},
			},
		}
	}

	req := Request{
		Patient:       testPatient(map[string]TestResult{"urine": current, "cbc": simpleTest("CBC", 1)}),
		SelectedTests: []string{"urine", "cbc"},
		Historical: map[string][]HistoricalEntry{
			"urine": {entry(d1, "Trace", "9.1"), entry(d2, "Nil", "6.1"), entry(d3, "Nil", "6.5")},
		},
		Comparisons: map[string]ComparisonSelection{
			"urine":   {TestName: "Urine Comparison", SelectedDates: []time.Time{d1, d3, d2}},
			"cbc":     {TestName: "CBC Comparison"},
			"missing": {TestName: "Missing Test", SelectedDates: []time.Time{d1}},
		},
		Mode:      ModeComparison,
		SkipCover: true,
	}

	c := render(t, req, Assets{})

	if len(c.pagesWith("Urine Comparison")) != 1 {
		t.Fatalf("expected the urine comparison table")
	}
	for _, skipped := range []string{"CBC Comparison", "Missing Test"} {
		if len(c.pagesWith(skipped)) != 0 {
			t.Fatalf("expected %q to be skipped", skipped)
		}
	}

	newest := c.indexOf(d3.Format(comparisonDateLayout))
	middle := c.indexOf(d2.Format(comparisonDateLayout))
	oldest := c.indexOf(d1.Format(comparisonDateLayout))
	if newest < 0 || !(newest < middle && middle < oldest) {
		t.Fatalf("expected date columns newest first, got %d %d %d", newest, middle, oldest)
	}

	nils := 0
	for _, text := range c.texts {
		if text.text == "Nil" {
			nils++
		}
		if text.text == "Trace" {
			t.Fatalf("expected text parameter to show only the latest value")
		}
	}
	if nils != 1 {
		t.Fatalf("expected one collapsed text cell, got %d", nils)
	}

	for _, v := range []string{"6.5", "6.1", "9.1"} {
		if _, ok := c.find(v); !ok {
			t.Fatalf("expected numeric value %q per date", v)
		}
	}

	high, _ := c.find("9.1")
	if high.style != FontBold {
		t.Fatalf("expected out-of-range historical value in bold")
	}
}

func TestCoverAndLetterhead(t *testing.T) {
	t.Parallel()

	img := func(name string) *Image {
		i, err := NewImage(name, pngBytes(t, 2, 3))
		if err != nil {
			t.Fatalf("NewImage failed: %v", err)
		}
		return i
	}

	assets := Assets{Cover: img("cover"), Letterhead: img("letterhead")}
	req := Request{
		Patient:           testPatient(map[string]TestResult{"cbc": simpleTest("CBC", 1)}),
		SelectedTests:     []string{"cbc"},
		IncludeLetterhead: true,
	}

	c := render(t, req, assets)

	if c.PageCount() != 2 {
		t.Fatalf("expected cover and one body page, got %d", c.PageCount())
	}
	if pages := c.pagesWith("Patient ID"); len(pages) != 1 || pages[0] != 2 {
		t.Fatalf("expected no header on the cover page, got %v", pages)
	}
	if !reflect.DeepEqual(c.images, []string{"1:cover", "2:letterhead"}) {
		t.Fatalf("unexpected image placement %v", c.images)
	}

	req.SkipCover = true
	req.IncludeLetterhead = false
	c = render(t, req, assets)
	if c.PageCount() != 1 || len(c.images) != 0 {
		t.Fatalf("expected no cover and no letterhead, got %d pages and %v", c.PageCount(), c.images)
	}
}

func TestVerificationQRInHeader(t *testing.T) {
	t.Parallel()

	c := render(t, Request{
		Patient:       testPatient(map[string]TestResult{"panel": simpleTest("Big Panel", 80)}),
		SelectedTests: []string{"panel"},
		SkipCover:     true,
		VerifyURL:     "https://lab.example/verify/R-2001",
	}, Assets{})

	if len(c.images) != c.PageCount() {
		t.Fatalf("expected a QR on each of %d pages, got %v", c.PageCount(), c.images)
	}
	for _, placed := range c.images {
		if !strings.HasSuffix(placed, ":verify-qr") {
			t.Fatalf("unexpected image %q", placed)
		}
	}
}

func TestComparisonTablesStartNewPages(t *testing.T) {
	t.Parallel()

	jan := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	history := func(name string) []HistoricalEntry {
		return []HistoricalEntry{
			{ReportedOn: jun, Parameters: []Parameter{{Name: name + " P1", Value: "6"}}},
			{ReportedOn: jan, Parameters: []Parameter{{Name: name + " P1", Value: "4"}}},
		}
	}

	req := Request{
		Patient: testPatient(map[string]TestResult{
			"fbs":   simpleTest("Glucose", 1),
			"lipid": simpleTest("Lipids", 1),
			"tsh":   simpleTest("Thyroid", 1),
		}),
		SelectedTests: []string{"fbs", "lipid", "tsh"},
		Historical: map[string][]HistoricalEntry{
			"fbs":   history("Glucose"),
			"lipid": history("Lipids"),
			"tsh":   history("Thyroid"),
		},
		Comparisons: map[string]ComparisonSelection{
			"fbs":   {TestName: "Glucose Trend", SelectedDates: []time.Time{jan, jun}},
			"lipid": {TestName: "Lipid Trend", SelectedDates: []time.Time{jun}},
			"tsh":   {TestName: "Thyroid Trend", SelectedDates: []time.Time{jan}},
		},
		Mode:      ModeComparison,
		SkipCover: true,
	}

	c := render(t, req, Assets{})

	if c.PageCount() != 3 {
		t.Fatalf("expected one page per comparison table, got %d", c.PageCount())
	}

	for i, title := range []string{"Glucose Trend", "Lipid Trend", "Thyroid Trend"} {
		if pages := c.pagesWith(title); !reflect.DeepEqual(pages, []int{i + 1}) {
			t.Fatalf("expected %q on page %d, got %v", title, i+1, pages)
		}
	}

	first, _ := c.find("Glucose Trend")
	header, _ := c.find("Patient ID")
	if first.page != header.page {
		t.Fatalf("expected the first table on the opening page")
	}

	if pages := c.pagesWith("Patient ID"); !reflect.DeepEqual(pages, []int{1, 2, 3}) {
		t.Fatalf("expected the patient header on every page, got %v", pages)
	}
}

func TestSubparametersContinueAfterPageBreak(t *testing.T) {
	t.Parallel()

	panel := func(filler int) TestResult {
		test := simpleTest("Filler", filler)
		test.Name = "Haematology"
		test.Parameters = append(test.Parameters, Parameter{
			Name: "Differential Count",
			Subparameters: []Parameter{
				{Name: "Neutrophils", Value: "60", Unit: "%", Range: LiteralRange("40 - 75")},
				{Name: "Lymphocytes", Value: "30", Unit: "%", Range: LiteralRange("20 - 45")},
			},
		})
		return test
	}

	// Grow the panel until the parent row is the last one on page 1.
	for filler := 1; filler <= 60; filler++ {
		c := render(t, Request{
			Patient:       testPatient(map[string]TestResult{"cbc": panel(filler)}),
			SelectedTests: []string{"cbc"},
			SkipCover:     true,
		}, Assets{})

		parent, ok := c.find("Differential Count")
		if !ok {
			t.Fatalf("expected the parent row to be drawn")
		}

		child, _ := c.find("Neutrophils")
		if parent.page != 1 || child.page != 2 {
			continue
		}

		if pages := c.pagesWith("Patient ID"); !reflect.DeepEqual(pages, []int{1, 2}) {
			t.Fatalf("expected the header repeated on page 2, got %v", pages)
		}

		header := c.indexOf("Patient ID")
		for i, text := range c.texts {
			if text.page == 2 && text.text == "Patient ID" {
				header = i
				break
			}
		}
		if header > c.indexOf("Neutrophils") {
			t.Fatalf("expected the repeated header above the continued rows")
		}

		second, _ := c.find("Lymphocytes")
		if second.page != 2 || second.y <= child.y {
			t.Fatalf("expected the remaining children below the first on page 2")
		}

		if child.y < headerTop+headerRows*headerRowH {
			t.Fatalf("expected continued rows below the header, got y=%.1f", child.y)
		}

		return
	}

	t.Fatalf("no panel size put the parent row at the bottom of page 1")
}

func TestImagesKeepAspectRatio(t *testing.T) {
	t.Parallel()

	img := func(name string, w, h int) *Image {
		i, err := NewImage(name, pngBytes(t, w, h))
		if err != nil {
			t.Fatalf("NewImage failed: %v", err)
		}
		return i
	}

	assets := Assets{
		Letterhead:     img("letterhead", 2, 1),
		Stamp:          img("stamp", 4, 1),
		SecondaryStamp: img("stamp2", 1, 2),
	}

	c := render(t, Request{
		Patient:           testPatient(map[string]TestResult{"cbc": simpleTest("CBC", 1)}),
		SelectedTests:     []string{"cbc"},
		SkipCover:         true,
		IncludeLetterhead: true,
	}, assets)

	pw, ph := c.PageSize()
	want := map[string]placedImage{
		"letterhead": {x: 0, y: 0, w: pw, h: pw / 2},
		"stamp":      {x: marginX, y: ph - stampBottom + stampH - 10, w: 40, h: 10},
		"stamp2":     {x: pw - marginX - 10, y: ph - stampBottom, w: 10, h: 20},
	}

	if len(c.placed) != len(want) {
		t.Fatalf("expected %d images, got %v", len(want), c.placed)
	}

	for _, got := range c.placed {
		exp := want[got.name]
		if got.page != 1 || math.Abs(got.x-exp.x) > 1e-6 || math.Abs(got.y-exp.y) > 1e-6 ||
			math.Abs(got.w-exp.w) > 1e-6 || math.Abs(got.h-exp.h) > 1e-6 {
			t.Fatalf("%s: expected %+v, got %+v", got.name, exp, got)
		}
	}
}
