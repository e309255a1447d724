/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON accepts either a string or an object keyed by gender.
func (r *Range) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Range{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode literal range: %w", err)
		}
		*r = LiteralRange(s)
		return nil
	case data[0] == '{':
		var raw map[string][]RangeBucket
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to decode bucketed range: %w", err)
		}
		*r = bucketedFromRaw(raw)
		return nil
	default:
		// Bare numbers are treated as literal text.
		*r = LiteralRange(string(data))
		return nil
	}
}

// MarshalJSON writes the literal string or the gender-keyed object.
func (r Range) MarshalJSON() ([]byte, error) {
	if !r.IsBucketed() {
		return json.Marshal(r.literal)
	}
	return json.Marshal(r.buckets)
}

// UnmarshalYAML accepts either a scalar or a mapping keyed by gender.
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*r = Range{}
			return nil
		}
		*r = LiteralRange(node.Value)
		return nil
	case yaml.MappingNode:
		var raw map[string][]RangeBucket
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode bucketed range: %w", err)
		}
		*r = bucketedFromRaw(raw)
		return nil
	default:
		return fmt.Errorf("%w: line %d", ErrInvalidRange, node.Line)
	}
}

func bucketedFromRaw(raw map[string][]RangeBucket) Range {
	byGender := make(map[Gender][]RangeBucket, len(raw))
	for key, buckets := range raw {
		g := NormalizeGender(key)
		byGender[g] = append(byGender[g], buckets...)
	}
	return BucketedRange(byGender)
}

// UnmarshalJSON keeps strings as-is and numbers as written.
func (v *ResultValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode value: %w", err)
		}
		*v = ResultValue(s)
		return nil
	}

	*v = ResultValue(data)
	return nil
}

// UnmarshalYAML keeps any scalar as written.
func (v *ResultValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d", ErrInvalidValue, node.Line)
	}
	if node.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = ResultValue(node.Value)
	return nil
}
