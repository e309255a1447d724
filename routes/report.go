/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/pathreport/db"
	"github.com/humaidq/pathreport/report"
)

var (
	loadReportPatientFn = db.GetReportPatient
	listHistoryFn       = db.ListHistoricalEntries
	loadBillFn          = db.GetBill
	listTestsFn         = db.ListBloodTests
)

// ReportConfig carries the settings shared by every generated document.
// It is mapped into the flamego injector at startup.
type ReportConfig struct {
	Assets report.Assets
	// VerifyURL is a template; "{id}" is replaced with the registration id.
	VerifyURL string
	LabName   string
	Currency  string
	// Location is the lab's time zone. Requested dates name calendar days
	// in this zone. Nil compares in each report's own zone.
	Location *time.Location
}

// ReportOptions selects what to print for a registration.
type ReportOptions struct {
	Tests             []string               `json:"tests"`
	Mode              report.Mode            `json:"mode"`
	IncludeLetterhead bool                   `json:"includeLetterhead"`
	SkipCover         bool                   `json:"skipCover"`
	CombinedGroups    []report.CombinedGroup `json:"combinedGroups,omitempty"`
	// Comparisons maps a test key to the dates to compare.
	Comparisons map[string][]time.Time `json:"comparisons,omitempty"`
}

const dateLayout = "2006-01-02"

var fileNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GenerateReportQuery renders a report from query parameters.
func GenerateReportQuery(c flamego.Context, cfg *ReportConfig) {
	opts, err := parseReportQuery(c.Request().URL.Query(), cfg.Location)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	generateReport(c, cfg, opts)
}

// GenerateReport renders a report from a JSON ReportOptions body.
func GenerateReport(c flamego.Context, cfg *ReportConfig) {
	var opts ReportOptions
	if !decodeBody(c, &opts) {
		return
	}

	generateReport(c, cfg, opts)
}

func generateReport(c flamego.Context, cfg *ReportConfig, opts ReportOptions) {
	ctx := c.Request().Context()
	id := c.Param("id")

	if opts.Mode == "" {
		opts.Mode = report.ModeNormal
	}

	if !opts.Mode.Valid() {
		writeError(c, http.StatusBadRequest, errUnknownMode.Error())
		return
	}

	patient, err := loadReportPatientFn(ctx, id)
	if err != nil {
		handleLoadError(c, "report", id, err)
		return
	}

	req, err := buildRequest(ctx, cfg, patient, opts)
	if err != nil {
		logger.Error("Error loading historical results", "registration", id, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to load historical results")
		return
	}

	pdf, err := report.Generate(req, cfg.Assets)
	if err != nil {
		if errors.Is(err, report.ErrUnknownMode) || errors.Is(err, report.ErrPatientRequired) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		logger.Error("Error generating report", "registration", id, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to generate report")

		return
	}

	logger.Info("Generated report", "registration", id, "mode", opts.Mode, "tests", len(req.SelectedTests), "bytes", len(pdf))
	writePDF(c, fileName(cfg.LabName, "report", patient.RegistrationID), pdf)
}

// buildRequest turns options into a render request. Comparison mode loads
// the patient's history for the selected tests.
func buildRequest(ctx context.Context, cfg *ReportConfig, patient *report.Patient, opts ReportOptions) (report.Request, error) {
	selected := opts.Tests
	if len(selected) == 0 {
		selected = sortedTestKeys(patient.Tests)
	}

	req := report.Request{
		Patient:           patient,
		SelectedTests:     selected,
		CombinedGroups:    opts.CombinedGroups,
		Mode:              opts.Mode,
		IncludeLetterhead: opts.IncludeLetterhead,
		SkipCover:         opts.SkipCover,
	}

	if cfg.VerifyURL != "" {
		req.VerifyURL = strings.ReplaceAll(cfg.VerifyURL, "{id}", patient.RegistrationID)
	}

	if opts.Mode != report.ModeComparison {
		return req, nil
	}

	history, err := listHistoryFn(ctx, patient.PatientID, selected)
	if err != nil {
		return report.Request{}, fmt.Errorf("failed to load history: %w", err)
	}

	req.Historical = history
	req.Comparisons = make(map[string]report.ComparisonSelection, len(selected))

	for _, key := range selected {
		entries := history[key]

		available := make([]time.Time, 0, len(entries))
		for _, e := range entries {
			available = append(available, e.ReportedOn)
		}

		dates, ok := opts.Comparisons[key]
		if !ok {
			dates = available
		}

		req.Comparisons[key] = report.ComparisonSelection{
			TestName:       report.DisplayName(key, patient.Tests[key]),
			AvailableDates: available,
			SelectedDates:  matchDates(dates, available, cfg.Location),
		}
	}

	return req, nil
}

// matchDates maps requested dates onto stored report timestamps. A
// requested date without a time of day matches any report on that
// calendar day, read in loc or in the report's own zone when loc is nil.
func matchDates(requested, available []time.Time, loc *time.Location) []time.Time {
	var out []time.Time

	for _, r := range requested {
		for _, a := range available {
			if a.Equal(r) || (isMidnight(r) && sameDay(a, r, loc)) {
				out = append(out, a)
			}
		}
	}

	return out
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// sameDay reports whether report time a falls on the calendar day written
// in day.
func sameDay(a, day time.Time, loc *time.Location) bool {
	if loc != nil {
		a = a.In(loc)
	}

	ay, am, ad := a.Date()
	dy, dm, dd := day.Date()

	return ay == dy && am == dm && ad == dd
}

func sortedTestKeys(tests map[string]report.TestResult) []string {
	keys := make([]string, 0, len(tests))
	for key := range tests {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// parseReportQuery reads tests, mode, letterhead, cover and dates. Dates
// are calendar days in loc, UTC when nil.
func parseReportQuery(q map[string][]string, loc *time.Location) (ReportOptions, error) {
	if loc == nil {
		loc = time.UTC
	}

	get := func(name string) string {
		if values := q[name]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	opts := ReportOptions{
		Tests: splitList(get("tests")),
		Mode:  report.Mode(strings.ToLower(get("mode"))),
	}

	if raw := get("letterhead"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ReportOptions{}, errInvalidLetterhead
		}
		opts.IncludeLetterhead = v
	}

	if raw := get("cover"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ReportOptions{}, errInvalidCover
		}
		opts.SkipCover = !v
	}

	if raw := get("dates"); raw != "" {
		var dates []time.Time

		for _, s := range splitList(raw) {
			d, err := time.ParseInLocation(dateLayout, s, loc)
			if err != nil {
				return ReportOptions{}, fmt.Errorf("%w: %s", errInvalidDate, s)
			}
			dates = append(dates, d)
		}

		opts.Comparisons = make(map[string][]time.Time, len(opts.Tests))
		for _, key := range opts.Tests {
			opts.Comparisons[key] = dates
		}
	}

	return opts, nil
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// GenerateBill renders the invoice of a registration.
func GenerateBill(c flamego.Context, cfg *ReportConfig) {
	id := c.Param("id")

	bill, err := loadBillFn(c.Request().Context(), id)
	if err != nil {
		handleLoadError(c, "bill", id, err)
		return
	}

	bill.Currency = cfg.Currency

	if raw := c.Query("letterhead"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, errInvalidLetterhead.Error())
			return
		}
		bill.IncludeLetterhead = v
	}

	pdf, err := report.GenerateBill(*bill, cfg.Assets)
	if err != nil {
		logger.Error("Error generating bill", "registration", id, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to generate bill")
		return
	}

	logger.Info("Generated bill", "registration", id, "items", len(bill.Items))
	writePDF(c, fileName(cfg.LabName, "bill", bill.Patient.RegistrationID), pdf)
}

// ListTests returns the test catalog as JSON.
func ListTests(c flamego.Context) {
	tests, err := listTestsFn(c.Request().Context())
	if err != nil {
		logger.Error("Error listing blood tests", "error", err)
		writeError(c, http.StatusInternalServerError, "failed to list tests")
		return
	}

	if tests == nil {
		tests = []db.BloodTest{}
	}

	writeJSON(c, http.StatusOK, tests)
}

func handleLoadError(c flamego.Context, what, id string, err error) {
	if errors.Is(err, db.ErrRegistrationNotFound) {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}

	logger.Error("Error loading registration", "document", what, "registration", id, "error", err)
	writeError(c, http.StatusInternalServerError, "failed to load registration")
}

func writeError(c flamego.Context, status int, message string) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(map[string]string{"error": message}); err != nil {
		logger.Warn("Failed to write error response", "error", err)
	}
}

func writePDF(c flamego.Context, name string, pdf []byte) {
	headers := c.ResponseWriter().Header()
	headers.Set("Content-Type", "application/pdf")
	headers.Set("Content-Disposition", "inline; filename=\""+name+"\"")
	headers.Set("Content-Length", strconv.Itoa(len(pdf)))
	headers.Set("X-Content-Type-Options", "nosniff")

	c.ResponseWriter().WriteHeader(http.StatusOK)

	if _, err := c.ResponseWriter().Write(pdf); err != nil {
		logger.Warn("Failed to write PDF response", "error", err)
	}
}

func fileName(lab, kind, id string) string {
	parts := []string{kind, id}
	if lab != "" {
		parts = append([]string{lab}, parts...)
	}

	name := fileNameUnsafe.ReplaceAllString(strings.Join(parts, "-"), "_")

	return strings.Trim(name, "_") + ".pdf"
}
