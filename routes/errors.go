/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	errInvalidLetterhead  = errors.New("letterhead must be a boolean")
	errInvalidCover       = errors.New("cover must be a boolean")
	errUnknownMode        = errors.New("mode must be one of: normal, combined, comparison")
	errPatientIDRequired  = errors.New("patientId is required")
	errParametersRequired = errors.New("parameters are required")
)
