// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/pathreport/db"
	"github.com/humaidq/pathreport/report"
)

func newReportTestApp(cfg *ReportConfig) *flamego.Flame {
	f := flamego.New()
	f.Map(cfg)
	f.Use(NoCacheHeaders())

	f.Get("/registrations/{id}/report", GenerateReportQuery)
	f.Post("/registrations/{id}/report", GenerateReport)
	f.Get("/registrations/{id}/bill", GenerateBill)
	f.Get("/tests", ListTests)

	return f
}

func testReportPatient() *report.Patient {
	reported := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	return &report.Patient{
		Name:           "Ahmed Ali",
		Age:            45,
		AgeUnit:        "Years",
		Gender:         "male",
		PatientID:      "PT0001",
		RegistrationID: "RG0001",
		RegisteredAt:   reported,
		Tests: map[string]report.TestResult{
			"fbs": {
				Name:       "Glucose Fasting",
				ReportedOn: &reported,
				Parameters: []report.Parameter{
					{Name: "Glucose", Value: "130", Unit: "mg/dL", Range: report.LiteralRange("70 - 99")},
				},
			},
		},
	}
}

func stubPatient(t *testing.T, patient *report.Patient, err error) *[]string {
	t.Helper()

	original := loadReportPatientFn
	t.Cleanup(func() { loadReportPatientFn = original })

	var requested []string

	loadReportPatientFn = func(_ context.Context, id string) (*report.Patient, error) {
		requested = append(requested, id)
		return patient, err
	}

	return &requested
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateReportQueryReturnsPDF(t *testing.T) {
	requested := stubPatient(t, testReportPatient(), nil)

	f := newReportTestApp(&ReportConfig{LabName: "City Lab", VerifyURL: "https://lab.example/verify/{id}"})

	req := httptest.NewRequest(http.MethodGet, "/registrations/RG0001/report?tests=fbs&mode=normal&letterhead=true&cover=false", nil)
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}

	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "City_Lab-report-RG0001.pdf") {
		t.Fatalf("unexpected content disposition %q", got)
	}

	if got := rec.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("expected no-store cache control, got %q", got)
	}

	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF body")
	}

	if len(*requested) != 1 || (*requested)[0] != "RG0001" {
		t.Fatalf("expected registration RG0001 to be loaded, got %v", *requested)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateReportErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		err    error
		want   int
	}{
		{"unknown mode", http.MethodGet, "/registrations/RG0001/report?mode=fancy", "", nil, http.StatusBadRequest},
		{"bad letterhead", http.MethodGet, "/registrations/RG0001/report?letterhead=maybe", "", nil, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/registrations/RG0001/report?mode=comparison&tests=fbs&dates=14-03-2025", "", nil, http.StatusBadRequest},
		{"bad body", http.MethodPost, "/registrations/RG0001/report", "{", nil, http.StatusBadRequest},
		{"not found", http.MethodGet, "/registrations/missing/report", "", db.ErrRegistrationNotFound, http.StatusNotFound},
		{"db failure", http.MethodGet, "/registrations/RG0001/report", "", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var patient *report.Patient
			if tt.err == nil {
				patient = testReportPatient()
			}
			stubPatient(t, patient, tt.err)

			f := newReportTestApp(&ReportConfig{})

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			f.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}

			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Fatalf("expected JSON error, got %q", got)
			}
		})
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateReportComparisonLoadsHistory(t *testing.T) {
	stubPatient(t, testReportPatient(), nil)

	originalHistory := listHistoryFn
	t.Cleanup(func() { listHistoryFn = originalHistory })

	jan := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	var gotPatientID string
	var gotKeys []string

	listHistoryFn = func(_ context.Context, patientID string, keys []string) (map[string][]report.HistoricalEntry, error) {
		gotPatientID = patientID
		gotKeys = keys

		return map[string][]report.HistoricalEntry{
			"fbs": {
				{RegistrationID: "RG0001", ReportedOn: mar, Parameters: []report.Parameter{{Name: "Glucose", Value: "130"}}},
				{RegistrationID: "RG0000", ReportedOn: jan, Parameters: []report.Parameter{{Name: "Glucose", Value: "95"}}},
			},
		}, nil
	}

	body, err := json.Marshal(ReportOptions{
		Tests: []string{"fbs"},
		Mode:  report.ModeComparison,
	})
	if err != nil {
		t.Fatalf("failed to encode options: %v", err)
	}

	f := newReportTestApp(&ReportConfig{})

	req := httptest.NewRequest(http.MethodPost, "/registrations/RG0001/report", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotPatientID != "PT0001" || len(gotKeys) != 1 || gotKeys[0] != "fbs" {
		t.Fatalf("unexpected history lookup %q %v", gotPatientID, gotKeys)
	}
}

func TestMatchDates(t *testing.T) {
	t.Parallel()

	jan := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	available := []time.Time{mar, jan}

	if got := matchDates([]time.Time{time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}, available, nil); len(got) != 1 || !got[0].Equal(jan) {
		t.Fatalf("expected day-only date to match the January report, got %v", got)
	}

	if got := matchDates([]time.Time{mar}, available, nil); len(got) != 1 || !got[0].Equal(mar) {
		t.Fatalf("expected exact timestamp match, got %v", got)
	}

	if got := matchDates([]time.Time{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}, available, nil); len(got) != 0 {
		t.Fatalf("expected unknown date to be dropped, got %v", got)
	}
}

func TestMatchDatesLabTimeZone(t *testing.T) {
	t.Parallel()

	gst := time.FixedZone("GST", 4*60*60)
	early := time.Date(2024, 3, 10, 2, 30, 0, 0, gst)
	available := []time.Time{early}

	mar10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mar9 := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		date  time.Time
		loc   *time.Location
		match bool
	}{
		{"report zone same day", mar10, nil, true},
		{"report zone previous day", mar9, nil, false},
		{"lab zone same day", time.Date(2024, 3, 10, 0, 0, 0, 0, gst), gst, true},
		{"lab zone previous day", time.Date(2024, 3, 9, 0, 0, 0, 0, gst), gst, false},
		{"utc lab reads the previous day", mar9, time.UTC, true},
	}

	for _, tt := range tests {
		got := matchDates([]time.Time{tt.date}, available, tt.loc)
		if tt.match && (len(got) != 1 || !got[0].Equal(early)) {
			t.Fatalf("%s: expected a match, got %v", tt.name, got)
		}
		if !tt.match && len(got) != 0 {
			t.Fatalf("%s: expected no match, got %v", tt.name, got)
		}
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestBuildRequest(t *testing.T) {
	original := listHistoryFn
	t.Cleanup(func() { listHistoryFn = original })

	jan := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	listHistoryFn = func(context.Context, string, []string) (map[string][]report.HistoricalEntry, error) {
		return map[string][]report.HistoricalEntry{"fbs": {{ReportedOn: mar}, {ReportedOn: jan}}}, nil
	}

	cfg := &ReportConfig{VerifyURL: "https://lab.example/r/{id}"}
	patient := testReportPatient()

	req, err := buildRequest(context.Background(), cfg, patient, ReportOptions{Mode: report.ModeNormal})
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}
	if len(req.SelectedTests) != 1 || req.SelectedTests[0] != "fbs" {
		t.Fatalf("expected every registration test when none selected, got %v", req.SelectedTests)
	}
	if req.VerifyURL != "https://lab.example/r/RG0001" {
		t.Fatalf("unexpected verify url %q", req.VerifyURL)
	}
	if req.Historical != nil {
		t.Fatalf("expected no history outside comparison mode")
	}

	req, err = buildRequest(context.Background(), cfg, patient, ReportOptions{
		Tests:       []string{"fbs"},
		Mode:        report.ModeComparison,
		Comparisons: map[string][]time.Time{"fbs": {time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}},
	})
	if err != nil {
		t.Fatalf("buildRequest failed: %v", err)
	}

	sel := req.Comparisons["fbs"]
	if sel.TestName != "Glucose Fasting" || len(sel.AvailableDates) != 2 {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if len(sel.SelectedDates) != 1 || !sel.SelectedDates[0].Equal(jan) {
		t.Fatalf("expected January selected, got %v", sel.SelectedDates)
	}

	listHistoryFn = func(context.Context, string, []string) (map[string][]report.HistoricalEntry, error) {
		return nil, errors.New("boom")
	}

	if _, err := buildRequest(context.Background(), cfg, patient, ReportOptions{Mode: report.ModeComparison}); err == nil {
		t.Fatalf("expected history error")
	}
}

func TestParseReportQuery(t *testing.T) {
	t.Parallel()

	opts, err := parseReportQuery(map[string][]string{
		"tests":      {"fbs, cbc,,"},
		"mode":       {"Comparison"},
		"letterhead": {"1"},
		"cover":      {"false"},
		"dates":      {"2025-01-10,2025-03-14"},
	}, nil)
	if err != nil {
		t.Fatalf("parseReportQuery failed: %v", err)
	}

	if len(opts.Tests) != 2 || opts.Tests[1] != "cbc" {
		t.Fatalf("unexpected tests %v", opts.Tests)
	}
	if opts.Mode != report.ModeComparison || !opts.IncludeLetterhead || !opts.SkipCover {
		t.Fatalf("unexpected options %+v", opts)
	}
	if len(opts.Comparisons["cbc"]) != 2 {
		t.Fatalf("expected dates for every selected test, got %v", opts.Comparisons)
	}

	gst := time.FixedZone("GST", 4*60*60)

	opts, err = parseReportQuery(map[string][]string{"tests": {"fbs"}, "dates": {"2024-03-10"}}, gst)
	if err != nil {
		t.Fatalf("parseReportQuery failed: %v", err)
	}
	if d := opts.Comparisons["fbs"]; len(d) != 1 || !d[0].Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, gst)) {
		t.Fatalf("expected the date in the lab zone, got %v", d)
	}

	if _, err := parseReportQuery(map[string][]string{"dates": {"yesterday"}}, nil); !errors.Is(err, errInvalidDate) {
		t.Fatalf("expected errInvalidDate, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	if got := fileName("", "bill", "RG/01"); got != "bill-RG_01.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := fileName("St. Mary's Lab", "report", "RG01"); got != "St._Mary_s_Lab-report-RG01.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateBillEndpoint(t *testing.T) {
	original := loadBillFn
	t.Cleanup(func() { loadBillFn = original })

	loadBillFn = func(_ context.Context, id string) (*report.Bill, error) {
		if id != "RG0001" {
			return nil, db.ErrRegistrationNotFound
		}

		return &report.Bill{
			Patient: testReportPatient(),
			Items:   []report.BillItem{{TestKey: "fbs", Name: "Glucose Fasting", Price: 120}},
		}, nil
	}

	f := newReportTestApp(&ReportConfig{Currency: "AED"})

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registrations/RG0001/bill", nil))

	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected bill PDF, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registrations/other/bill", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestListTestsEndpoint(t *testing.T) {
	original := listTestsFn
	t.Cleanup(func() { listTestsFn = original })

	listTestsFn = func(context.Context) ([]db.BloodTest, error) {
		return []db.BloodTest{{Key: "fbs", Name: "Glucose Fasting", Price: 120}}, nil
	}

	f := newReportTestApp(&ReportConfig{})

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tests", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var tests []db.BloodTest
	if err := json.Unmarshal(rec.Body.Bytes(), &tests); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}

	if len(tests) != 1 || tests[0].Key != "fbs" {
		t.Fatalf("unexpected catalog %+v", tests)
	}
}
