/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import "errors"

var (
	// ErrPatientRequired is returned when a request carries no patient.
	ErrPatientRequired = errors.New("patient is required to generate a report")
	// ErrUnknownMode is returned for a report mode other than normal,
	// combined or comparison.
	ErrUnknownMode = errors.New("unknown report mode")
	// ErrInvalidRange is returned when a range is neither text nor a
	// gender-keyed bucket table.
	ErrInvalidRange = errors.New("range must be a string or a gender-keyed table")
	// ErrInvalidValue is returned when a parameter value is not a scalar.
	ErrInvalidValue = errors.New("parameter value must be a scalar")
	// ErrEmptyImage is returned for an asset with no bytes.
	ErrEmptyImage = errors.New("image is empty")
	// ErrUnsupportedImage is returned for rasters other than PNG, JPEG or GIF.
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrAssetUnavailable is returned when an asset URL answers with a
	// non-success status.
	ErrAssetUnavailable = errors.New("asset unavailable")
)
