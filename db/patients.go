/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// displayID derives a short printable identifier from a UUID.
func displayID(prefix string, id uuid.UUID) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// CreatePatient inserts a patient and returns it.
func CreatePatient(ctx context.Context, input CreatePatientInput) (*Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPatientNameRequired
	}

	id := uuid.New()

	display := strings.TrimSpace(input.DisplayID)
	if display == "" {
		display = displayID("PT", id)
	}

	ageUnit := strings.TrimSpace(input.AgeUnit)
	if ageUnit == "" {
		ageUnit = "Years"
	}

	query := `
		INSERT INTO patients (id, display_id, title, name, age, age_unit, gender, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, display_id, title, name, age, age_unit, gender, phone, created_at
	`

	var patient Patient

	err := pool.QueryRow(ctx, query,
		id, display, strings.TrimSpace(input.Title), name, input.Age, ageUnit,
		strings.ToLower(strings.TrimSpace(input.Gender)), input.Phone,
	).Scan(
		&patient.ID, &patient.DisplayID, &patient.Title, &patient.Name, &patient.Age,
		&patient.AgeUnit, &patient.Gender, &patient.Phone, &patient.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	logger.Info("Created patient", "patient", patient.DisplayID)

	return &patient, nil
}

// GetPatient looks a patient up by display id or UUID.
func GetPatient(ctx context.Context, id string) (*Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, display_id, title, name, age, age_unit, gender, phone, created_at
		FROM patients
		WHERE display_id = $1 OR id::text = $1
	`

	var patient Patient

	err := pool.QueryRow(ctx, query, id).Scan(
		&patient.ID, &patient.DisplayID, &patient.Title, &patient.Name, &patient.Age,
		&patient.AgeUnit, &patient.Gender, &patient.Phone, &patient.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}

		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}
