/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Gender selects the bucket list of an age/gender reference range.
type Gender string

// Gender values with reference range tables.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// NormalizeGender maps free-form input ("F", "Female", "male ") onto the
// canonical values. Anything else is returned lower-cased.
func NormalizeGender(s string) Gender {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return Gender(v)
	}
}

// Label returns the gender as printed in the patient header.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	case "":
		return "-"
	default:
		r, size := utf8.DecodeRuneInString(string(g))
		return string(unicode.ToUpper(r)) + string(g[size:])
	}
}

// Visibility values for a parameter.
const (
	VisibilityHidden = "hidden"
)

// Value types for a parameter.
const (
	ValueTypeText   = "text"
	ValueTypeNumber = "number"
)

// TestTypeOutsource marks a test performed by another lab. Outsourced tests
// are never laid out.
const TestTypeOutsource = "outsource"

// RangeBucket is one age bucket of a reference range table. Key holds a
// span with an optional unit suffix, such as "0-1y", "0-30d" or "6-12m".
type RangeBucket struct {
	Key   string `json:"rangeKey" yaml:"rangeKey"`
	Value string `json:"rangeValue" yaml:"rangeValue"`
}

// Range is either a literal range expression or a table of age buckets per
// gender. The zero value is an empty literal.
type Range struct {
	literal string
	buckets map[Gender][]RangeBucket
}

// LiteralRange returns a range that always resolves to s.
func LiteralRange(s string) Range {
	return Range{literal: s}
}

// BucketedRange returns an age/gender bucketed range.
func BucketedRange(byGender map[Gender][]RangeBucket) Range {
	if byGender == nil {
		byGender = map[Gender][]RangeBucket{}
	}
	return Range{buckets: byGender}
}

// IsBucketed reports whether the range is an age/gender table.
func (r Range) IsBucketed() bool {
	return r.buckets != nil
}

// Literal returns the literal expression of a non-bucketed range.
func (r Range) Literal() string {
	return r.literal
}

// Buckets returns the stored bucket list for a gender, in stored order.
func (r Range) Buckets(g Gender) []RangeBucket {
	return r.buckets[g]
}

// ResultValue is a reported value. Numbers and strings are both accepted
// on input and kept as written.
type ResultValue string

// String returns the value as written.
func (v ResultValue) String() string {
	return string(v)
}

// Parameter is one analyte of a test, optionally with nested
// subparameters for hierarchical panels.
type Parameter struct {
	Name          string      `json:"name" yaml:"name"`
	Value         ResultValue `json:"value" yaml:"value"`
	Unit          string      `json:"unit" yaml:"unit"`
	Range         Range       `json:"range" yaml:"range"`
	Subparameters []Parameter `json:"subparameters,omitempty" yaml:"subparameters,omitempty"`
	Visibility    string      `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	ValueType     string      `json:"valueType,omitempty" yaml:"valueType,omitempty"`
}

// Hidden reports whether the parameter is excluded from printing.
func (p Parameter) Hidden() bool {
	return strings.EqualFold(p.Visibility, VisibilityHidden)
}

// Subheading groups named parameters under a printed label.
type Subheading struct {
	Title          string   `json:"title" yaml:"title"`
	ParameterNames []string `json:"parameterNames" yaml:"parameterNames"`
}

// Description is a rich-text block printed after a test's parameters.
type Description struct {
	Heading string `json:"heading" yaml:"heading"`
	Content string `json:"content" yaml:"content"`
}

// TestResult is one performed test of a registration.
type TestResult struct {
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	Type         string        `json:"type,omitempty" yaml:"type,omitempty"`
	Parameters   []Parameter   `json:"parameters" yaml:"parameters"`
	Subheadings  []Subheading  `json:"subheadings,omitempty" yaml:"subheadings,omitempty"`
	Descriptions []Description `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
	ReportedOn   *time.Time    `json:"reportedOn,omitempty" yaml:"reportedOn,omitempty"`
}

// Outsourced reports whether the test was sent to another lab.
func (t TestResult) Outsourced() bool {
	return strings.EqualFold(t.Type, TestTypeOutsource)
}

// Parameter finds a top-level parameter by name.
func (t TestResult) Parameter(name string) (Parameter, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// DisplayName returns the test's printed title, falling back to the
// upper-cased test key with underscores turned into spaces.
func DisplayName(key string, t TestResult) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return strings.ToUpper(strings.ReplaceAll(key, "_", " "))
}

// Patient carries the identity and episode metadata printed in the page
// header, and the registration's tests keyed by test key.
type Patient struct {
	Title             string                `json:"title,omitempty" yaml:"title,omitempty"`
	Name              string                `json:"name" yaml:"name"`
	Age               float64               `json:"age" yaml:"age"`
	AgeUnit           string                `json:"ageUnit" yaml:"ageUnit"`
	Gender            string                `json:"gender" yaml:"gender"`
	PatientID         string                `json:"patientId" yaml:"patientId"`
	RegistrationID    string                `json:"registrationId" yaml:"registrationId"`
	DoctorName        string                `json:"doctorName,omitempty" yaml:"doctorName,omitempty"`
	HospitalName      string                `json:"hospitalName,omitempty" yaml:"hospitalName,omitempty"`
	RegisteredAt      time.Time             `json:"registeredAt" yaml:"registeredAt"`
	SampleCollectedAt *time.Time            `json:"sampleCollectedAt,omitempty" yaml:"sampleCollectedAt,omitempty"`
	EnteredBy         string                `json:"enteredBy,omitempty" yaml:"enteredBy,omitempty"`
	Tests             map[string]TestResult `json:"tests" yaml:"tests"`
}

// AgeDays returns the patient's age converted to days.
func (p Patient) AgeDays() float64 {
	return AgeInDays(p.Age, p.AgeUnit)
}

// HistoricalEntry is one past occurrence of a test for the same patient.
type HistoricalEntry struct {
	RegistrationID string      `json:"registrationId" yaml:"registrationId"`
	ReportedOn     time.Time   `json:"reportedOn" yaml:"reportedOn"`
	Parameters     []Parameter `json:"parameters" yaml:"parameters"`
}

// ComparisonSelection is the caller's choice of historical report dates
// for one test.
type ComparisonSelection struct {
	TestName       string      `json:"testName" yaml:"testName"`
	AvailableDates []time.Time `json:"availableDates,omitempty" yaml:"availableDates,omitempty"`
	SelectedDates  []time.Time `json:"selectedDates" yaml:"selectedDates"`
}

// CombinedGroup prints its tests consecutively under one display name.
type CombinedGroup struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string   `json:"name" yaml:"name"`
	TestKeys []string `json:"testKeys" yaml:"testKeys"`
}

// Mode selects how selected tests are laid out.
type Mode string

// Report modes.
const (
	ModeNormal     Mode = "normal"
	ModeCombined   Mode = "combined"
	ModeComparison Mode = "comparison"
)

// Valid reports whether m is a known mode. The empty mode is normal.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeNormal, ModeCombined, ModeComparison:
		return true
	default:
		return false
	}
}

// Request is everything one report needs besides its images.
type Request struct {
	Patient           *Patient                       `json:"patient" yaml:"patient"`
	SelectedTests     []string                       `json:"selectedTests" yaml:"selectedTests"`
	CombinedGroups    []CombinedGroup                `json:"combinedGroups,omitempty" yaml:"combinedGroups,omitempty"`
	Historical        map[string][]HistoricalEntry   `json:"historical,omitempty" yaml:"historical,omitempty"`
	Comparisons       map[string]ComparisonSelection `json:"comparisons,omitempty" yaml:"comparisons,omitempty"`
	Mode              Mode                           `json:"mode" yaml:"mode"`
	IncludeLetterhead bool                           `json:"includeLetterhead" yaml:"includeLetterhead"`
	SkipCover         bool                           `json:"skipCover" yaml:"skipCover"`

	// VerifyURL, when set, is printed as a QR code in every page header.
	VerifyURL string `json:"verifyUrl,omitempty" yaml:"verifyUrl,omitempty"`

	// GeneratedAt stamps the document and stands in for "reported on" when
	// no selected test carries a report time. Zero means now.
	GeneratedAt time.Time `json:"generatedAt,omitempty" yaml:"generatedAt,omitempty"`
}
