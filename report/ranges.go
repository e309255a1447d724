/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Days per age unit used by range keys and patient ages.
const (
	daysPerDay   = 1
	daysPerMonth = 30
	daysPerYear  = 365
)

// AgeInDays converts an age in the given unit ("days", "Month", "y", ...)
// to days. Unknown units count as days.
func AgeInDays(age float64, unit string) float64 {
	return age * unitMultiplier(unit)
}

func unitMultiplier(unit string) float64 {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch {
	case strings.HasPrefix(u, "y"):
		return daysPerYear
	case strings.HasPrefix(u, "m"):
		return daysPerMonth
	default:
		return daysPerDay
	}
}

// ResolveRange returns the reference range printed for p at the given age
// and gender. Bucket tables are scanned in stored order and the first
// bucket containing the age wins. When no bucket contains it, the last
// bucket's value is returned.
func ResolveRange(p Parameter, ageDays float64, gender Gender) string {
	if !p.Range.IsBucketed() {
		return p.Range.Literal()
	}

	buckets := p.Range.Buckets(NormalizeGender(string(gender)))
	if len(buckets) == 0 {
		return ""
	}

	for _, b := range buckets {
		lower, upper, ok := parseRangeKey(b.Key)
		if !ok {
			continue
		}
		if ageDays >= lower && ageDays <= upper {
			return b.Value
		}
	}

	return buckets[len(buckets)-1].Value
}

// parseRangeKey converts a bucket key like "0-1y" to [lower, upper] in
// days. A key without a unit suffix is in days.
func parseRangeKey(key string) (lower, upper float64, ok bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return 0, 0, false
	}

	multiplier := float64(daysPerDay)
	switch k[len(k)-1] {
	case 'd':
		k = k[:len(k)-1]
	case 'm':
		multiplier = daysPerMonth
		k = k[:len(k)-1]
	case 'y':
		multiplier = daysPerYear
		k = k[:len(k)-1]
	}

	lo, hi, found := strings.Cut(k, "-")
	if !found {
		return 0, 0, false
	}

	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, false
	}

	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, false
	}

	return l * multiplier, h * multiplier, true
}

var (
	upToPattern = regexp.MustCompile(`(?i)^\s*up\s*to\s*(\d+(?:\.\d+)?)\s*$`)
	spanPattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*$`)
	leadNumber  = regexp.MustCompile(`^\s*[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)
)

// ParseRangeExpression reads "up to N" as [0, N] and "A - B" or "A to B"
// as [A, B]. Other shapes are not parseable.
func ParseRangeExpression(expr string) (lower, upper float64, ok bool) {
	if m := upToPattern.FindStringSubmatch(expr); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, false
		}
		return 0, n, true
	}

	if m := spanPattern.FindStringSubmatch(expr); m != nil {
		l, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, false
		}
		h, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, 0, false
		}
		return l, h, true
	}

	return 0, 0, false
}

// ParseNumericValue reads the leading number of a reported value, so
// "12.5 mg/dL" is 12.5. Values without a leading finite number are not
// numeric.
func ParseNumericValue(raw string) (float64, bool) {
	m := leadNumber.FindString(raw)
	if m == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}

	return v, true
}

// IsOutOfRange reports whether a numeric value lies strictly outside a
// parseable range expression. Textual values and unparseable ranges are
// never out of range.
func IsOutOfRange(rawValue, rangeExpression string) bool {
	lower, upper, ok := ParseRangeExpression(rangeExpression)
	if !ok {
		return false
	}

	v, ok := ParseNumericValue(rawValue)
	if !ok {
		return false
	}

	return v < lower || v > upper
}
