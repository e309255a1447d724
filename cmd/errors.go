/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errInputRequired         = errors.New("input is required (set via --input)")
	errPatientMissing        = errors.New("input file has no patient")
	errInvalidTimezone       = errors.New("invalid timezone")
)
