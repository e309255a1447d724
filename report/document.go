/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
)

// testsPerCombinedPage is how many tests share one page run in combined
// mode.
const testsPerCombinedPage = 5

// now is the clock used when a request carries no generation time.
var now = time.Now

// Generate lays out a report and returns the PDF bytes. Images must be
// fetched beforehand; a missing image is left out of the page.
func Generate(req Request, assets Assets) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, req, assets); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Render lays out a report and writes the PDF to w.
func Render(w io.Writer, req Request, assets Assets) error {
	if req.Patient == nil {
		return ErrPatientRequired
	}

	if !req.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	created := req.GeneratedAt
	if created.IsZero() {
		created = now()
	}

	c := newPDFCanvas(reportTitle(req.Patient), created)
	if err := layout(c, req, assets, created); err != nil {
		return err
	}

	if err := c.Output(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func reportTitle(p *Patient) string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "Laboratory Report"
	}
	return "Laboratory Report - " + name
}

// layout draws the whole report onto c.
func layout(c Canvas, req Request, assets Assets, created time.Time) error {
	if req.Patient == nil {
		return ErrPatientRequired
	}

	d := newDocument(c, req, assets, created)

	d.cover()
	cur := d.newPage()

	switch req.Mode {
	case ModeNormal, "":
		cur = d.normalMode(cur)
	case ModeCombined:
		cur = d.combinedMode(cur)
	case ModeComparison:
		cur = d.comparisonMode(cur)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	d.finish(cur)

	logger.Debug("Laid out report",
		"registration", req.Patient.RegistrationID,
		"mode", req.Mode,
		"tests", len(req.SelectedTests),
		"pages", c.PageCount(),
	)

	return nil
}

// renderable returns the test for key unless it is missing, outsourced or
// has no parameters.
func (d *document) renderable(key string) (TestResult, bool) {
	t, ok := d.patient.Tests[key]
	if !ok {
		return TestResult{}, false
	}
	if t.Outsourced() || len(t.Parameters) == 0 {
		return TestResult{}, false
	}
	return t, true
}

// selectedKeys returns the distinct selected test keys in order.
func (d *document) selectedKeys() []string {
	seen := make(map[string]bool, len(d.req.SelectedTests))

	var keys []string
	for _, key := range d.req.SelectedTests {
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}

	return keys
}

// normalMode prints combined groups first, each after the first on a
// fresh page, then every ungrouped selected test on a page of its own.
func (d *document) normalMode(cur cursor) cursor {
	selected := make(map[string]bool)
	for _, key := range d.selectedKeys() {
		selected[key] = true
	}

	grouped := make(map[string]bool)
	first := true

	for _, group := range d.req.CombinedGroups {
		var keys []string
		for _, key := range group.TestKeys {
			if !selected[key] || grouped[key] {
				continue
			}
			grouped[key] = true
			if _, ok := d.renderable(key); ok {
				keys = append(keys, key)
			}
		}

		if len(keys) == 0 {
			continue
		}

		if !first {
			cur = d.freshPage(cur)
		}
		first = false

		cur = d.groupHeading(cur, group.Name)
		for _, key := range keys {
			t, _ := d.renderable(key)
			cur = d.testSection(cur, key, t)
		}
	}

	for _, key := range d.selectedKeys() {
		if grouped[key] {
			continue
		}

		t, ok := d.renderable(key)
		if !ok {
			logger.Debug("Skipping test", "test", key)
			continue
		}

		if !first {
			cur = d.freshPage(cur)
		}
		first = false

		cur = d.testSection(cur, key, t)
	}

	return cur
}

// combinedMode ignores groups and prints the selected tests in runs of
// testsPerCombinedPage, each run starting a new page.
func (d *document) combinedMode(cur cursor) cursor {
	var keys []string
	for _, key := range d.selectedKeys() {
		if _, ok := d.renderable(key); ok {
			keys = append(keys, key)
		}
	}

	for start := 0; start < len(keys); start += testsPerCombinedPage {
		if start > 0 {
			cur = d.newPage()
		}

		end := min(start+testsPerCombinedPage, len(keys))
		for _, key := range keys[start:end] {
			t, _ := d.renderable(key)
			cur = d.testSection(cur, key, t)
		}
	}

	return cur
}

// comparisonMode prints one comparison table per test that has selected
// dates and is part of the current registration. The first table uses the
// page already open.
func (d *document) comparisonMode(cur cursor) cursor {
	first := true

	for _, key := range comparisonKeys(d.req) {
		sel := d.req.Comparisons[key]
		if len(sel.SelectedDates) == 0 {
			continue
		}

		t, ok := d.patient.Tests[key]
		if !ok || t.Outsourced() {
			continue
		}

		if !first {
			cur = d.newPage()
		}
		first = false

		cur = d.comparisonTable(cur, key, t, sel)
	}

	return cur
}
