/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import "errors"

// ErrMalformedMarkup is returned when a rich-text fragment leaves elements
// open that cannot be closed implicitly.
var ErrMalformedMarkup = errors.New("malformed rich-text markup")

var errInvalidLength = errors.New("invalid CSS length")
