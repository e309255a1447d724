/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/pathreport/report"
)

// CreateRegistration records a visit and copies each ordered catalog test
// into it, keeping the given order. Duplicate keys are ignored.
func CreateRegistration(ctx context.Context, input CreateRegistrationInput) (*Registration, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	keys := dedupeKeys(input.TestKeys)
	if len(keys) == 0 {
		return nil, ErrNoTestsSelected
	}

	id := uuid.New()

	display := strings.TrimSpace(input.DisplayID)
	if display == "" {
		display = displayID("RG", id)
	}

	registeredAt := input.RegisteredAt
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start registration transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback registration", "error", err)
		}
	}()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, input.PatientID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check patient: %w", err)
	}

	if !exists {
		return nil, ErrPatientNotFound
	}

	reg := Registration{
		ID:                id,
		DisplayID:         display,
		PatientID:         input.PatientID,
		DoctorName:        strings.TrimSpace(input.DoctorName),
		HospitalName:      strings.TrimSpace(input.HospitalName),
		RegisteredAt:      registeredAt,
		SampleCollectedAt: input.SampleCollectedAt,
		EnteredBy:         strings.TrimSpace(input.EnteredBy),
		Discount:          input.Discount,
		AmountPaid:        input.AmountPaid,
		TestKeys:          keys,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO registrations (id, display_id, patient_id, doctor_name, hospital_name,
			registered_at, sample_collected_at, entered_by, discount, amount_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, reg.ID, reg.DisplayID, reg.PatientID, reg.DoctorName, reg.HospitalName,
		reg.RegisteredAt, reg.SampleCollectedAt, reg.EnteredBy, reg.Discount, reg.AmountPaid,
	).Scan(&reg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	copyTest := `
		INSERT INTO registration_tests (registration_id, test_key, position, name, test_type,
			price, parameters, subheadings, descriptions)
		SELECT $1::uuid, key, $3::integer, name, test_type, price, parameters, subheadings, descriptions
		FROM blood_tests
		WHERE key = $2
	`

	for position, key := range keys {
		tag, err := tx.Exec(ctx, copyTest, reg.ID, key, position)
		if err != nil {
			return nil, fmt.Errorf("failed to add test %s: %w", key, err)
		}

		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrBloodTestNotFound, key)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration transaction: %w", err)
	}

	logger.Info("Created registration", "registration", reg.DisplayID, "tests", len(keys))

	return &reg, nil
}

func dedupeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))

	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, key)
	}

	return out
}

// SaveTestResults stores entered values for one test of a registration
// and stamps it as reported. A zero ReportedOn means now.
func SaveTestResults(ctx context.Context, input SaveResultsInput) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	params, err := json.Marshal(input.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	reportedOn := input.ReportedOn
	if reportedOn.IsZero() {
		reportedOn = time.Now()
	}

	query := `
		UPDATE registration_tests rt
		SET parameters = $3, reported_on = $4
		FROM registrations r
		WHERE rt.registration_id = r.id
			AND (r.display_id = $1 OR r.id::text = $1)
			AND rt.test_key = $2
	`

	tag, err := pool.Exec(ctx, query, input.RegistrationID, input.TestKey, params, reportedOn)
	if err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRegistrationTestNotFound
	}

	logger.Info("Saved test results", "registration", input.RegistrationID, "test", input.TestKey)

	return nil
}

type registrationRow struct {
	id         uuid.UUID
	discount   float64
	amountPaid float64
	patient    report.Patient
}

func loadRegistration(ctx context.Context, registrationID string) (*registrationRow, error) {
	query := `
		SELECT r.id, r.display_id, r.doctor_name, r.hospital_name, r.registered_at,
			r.sample_collected_at, r.entered_by, r.discount, r.amount_paid,
			p.display_id, p.title, p.name, p.age, p.age_unit, p.gender
		FROM registrations r
		JOIN patients p ON p.id = r.patient_id
		WHERE r.display_id = $1 OR r.id::text = $1
	`

	var row registrationRow

	p := &row.patient

	err := pool.QueryRow(ctx, query, registrationID).Scan(
		&row.id, &p.RegistrationID, &p.DoctorName, &p.HospitalName, &p.RegisteredAt,
		&p.SampleCollectedAt, &p.EnteredBy, &row.discount, &row.amountPaid,
		&p.PatientID, &p.Title, &p.Name, &p.Age, &p.AgeUnit, &p.Gender,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}

		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	return &row, nil
}

// GetReportPatient loads a registration with its tests in the shape the
// report renderer expects. Identifiers are the printable display ids.
func GetReportPatient(ctx context.Context, registrationID string) (*report.Patient, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	row, err := loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT test_key, name, test_type, parameters, subheadings, descriptions, reported_on
		FROM registration_tests
		WHERE registration_id = $1
		ORDER BY position ASC
	`

	rows, err := pool.Query(ctx, query, row.id)
	if err != nil {
		return nil, fmt.Errorf("failed to list registration tests: %w", err)
	}
	defer rows.Close()

	patient := row.patient
	patient.Tests = make(map[string]report.TestResult)

	for rows.Next() {
		var (
			key                                        string
			test                                       report.TestResult
			rawParams, rawSubheadings, rawDescriptions []byte
		)

		if err := rows.Scan(&key, &test.Name, &test.Type, &rawParams, &rawSubheadings, &rawDescriptions, &test.ReportedOn); err != nil {
			return nil, fmt.Errorf("failed to scan registration test: %w", err)
		}

		test.Parameters, test.Subheadings, test.Descriptions, err = decodeDefinition(rawParams, rawSubheadings, rawDescriptions)
		if err != nil {
			return nil, fmt.Errorf("registration test %s: %w", key, err)
		}

		patient.Tests[key] = test
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration tests: %w", err)
	}

	return &patient, nil
}

// ListHistoricalEntries returns the patient's reported results per test
// key, newest first. An empty testKeys lists every test.
func ListHistoricalEntries(ctx context.Context, patientID string, testKeys []string) (map[string][]report.HistoricalEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var filter []string
	if len(testKeys) > 0 {
		filter = testKeys
	}

	query := `
		SELECT rt.test_key, r.display_id, rt.reported_on, rt.parameters
		FROM registration_tests rt
		JOIN registrations r ON r.id = rt.registration_id
		JOIN patients p ON p.id = r.patient_id
		WHERE (p.display_id = $1 OR p.id::text = $1)
			AND rt.reported_on IS NOT NULL
			AND ($2::text[] IS NULL OR rt.test_key = ANY($2))
		ORDER BY rt.test_key ASC, rt.reported_on DESC
	`

	rows, err := pool.Query(ctx, query, patientID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list historical results: %w", err)
	}
	defer rows.Close()

	history := make(map[string][]report.HistoricalEntry)

	for rows.Next() {
		var (
			key       string
			entry     report.HistoricalEntry
			rawParams []byte
		)

		if err := rows.Scan(&key, &entry.RegistrationID, &entry.ReportedOn, &rawParams); err != nil {
			return nil, fmt.Errorf("failed to scan historical result: %w", err)
		}

		if err := json.Unmarshal(rawParams, &entry.Parameters); err != nil {
			return nil, fmt.Errorf("failed to decode historical parameters for %s: %w", key, err)
		}

		history[key] = append(history[key], entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical results: %w", err)
	}

	return history, nil
}

// GetBill builds the invoice for a registration from the prices copied at
// registration time.
func GetBill(ctx context.Context, registrationID string) (*report.Bill, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	row, err := loadRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT test_key, name, price
		FROM registration_tests
		WHERE registration_id = $1
		ORDER BY position ASC
	`, row.id)
	if err != nil {
		return nil, fmt.Errorf("failed to list billed tests: %w", err)
	}
	defer rows.Close()

	patient := row.patient
	bill := &report.Bill{
		Patient:    &patient,
		Discount:   row.discount,
		AmountPaid: row.amountPaid,
	}

	for rows.Next() {
		var item report.BillItem
		if err := rows.Scan(&item.TestKey, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan billed test: %w", err)
		}

		bill.Items = append(bill.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating billed tests: %w", err)
	}

	return bill, nil
}
