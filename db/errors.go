/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	// ErrDatabaseURLEnvVarNotSet is returned when DATABASE_URL is empty.
	ErrDatabaseURLEnvVarNotSet = errors.New("DATABASE_URL environment variable is not set")
	// ErrDatabaseNameNotSpecified is returned when the URL names no database.
	ErrDatabaseNameNotSpecified = errors.New("database name not specified in DATABASE_URL")
	// ErrDatabaseConnectionNotInitialized is returned before Init succeeds.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	// ErrRegistrationNotFound is returned for an unknown registration.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrPatientNotFound is returned for an unknown patient.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrBloodTestNotFound is returned for a test key missing from the catalog.
	ErrBloodTestNotFound = errors.New("blood test not found")
	// ErrRegistrationTestNotFound is returned when a registration does not
	// carry the given test.
	ErrRegistrationTestNotFound = errors.New("test not part of registration")
	// ErrPatientNameRequired is returned when creating a nameless patient.
	ErrPatientNameRequired = errors.New("patient name is required")
	// ErrNoTestsSelected is returned when a registration orders no tests.
	ErrNoTestsSelected = errors.New("registration must include at least one test")
)
