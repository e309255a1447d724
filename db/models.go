/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/pathreport/report"
)

// BloodTest is a catalog entry: the definition copied into a registration
// when the test is ordered.
type BloodTest struct {
	Key          string               `db:"key" json:"key"`
	Name         string               `db:"name" json:"name"`
	Type         string               `db:"test_type" json:"type"`
	Price        float64              `db:"price" json:"price"`
	Parameters   []report.Parameter   `db:"parameters" json:"parameters"`
	Subheadings  []report.Subheading  `db:"subheadings" json:"subheadings,omitempty"`
	Descriptions []report.Description `db:"descriptions" json:"descriptions,omitempty"`
	CreatedAt    time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time            `db:"updated_at" json:"updatedAt"`
}

// Patient is a registered patient.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisplayID string    `db:"display_id" json:"displayId"`
	Title     string    `db:"title" json:"title,omitempty"`
	Name      string    `db:"name" json:"name"`
	Age       float64   `db:"age" json:"age"`
	AgeUnit   string    `db:"age_unit" json:"ageUnit"`
	Gender    string    `db:"gender" json:"gender"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CreatePatientInput holds the fields for a new patient. An empty
// DisplayID is generated.
type CreatePatientInput struct {
	DisplayID string
	Title     string
	Name      string
	Age       float64
	AgeUnit   string
	Gender    string
	Phone     *string
}

// CreateRegistrationInput holds the fields for a new registration. The
// listed catalog tests are copied into it in order.
type CreateRegistrationInput struct {
	DisplayID         string
	PatientID         uuid.UUID
	DoctorName        string
	HospitalName      string
	RegisteredAt      time.Time
	SampleCollectedAt *time.Time
	EnteredBy         string
	Discount          float64
	AmountPaid        float64
	TestKeys          []string
}

// SaveResultsInput records entered values for one test of a registration.
type SaveResultsInput struct {
	RegistrationID string
	TestKey        string
	Parameters     []report.Parameter
	ReportedOn     time.Time
}

// Registration is one patient visit with its ordered tests.
type Registration struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	DisplayID         string     `db:"display_id" json:"displayId"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patientId"`
	DoctorName        string     `db:"doctor_name" json:"doctorName,omitempty"`
	HospitalName      string     `db:"hospital_name" json:"hospitalName,omitempty"`
	RegisteredAt      time.Time  `db:"registered_at" json:"registeredAt"`
	SampleCollectedAt *time.Time `db:"sample_collected_at" json:"sampleCollectedAt,omitempty"`
	EnteredBy         string     `db:"entered_by" json:"enteredBy,omitempty"`
	Discount          float64    `db:"discount" json:"discount"`
	AmountPaid        float64    `db:"amount_paid" json:"amountPaid"`
	TestKeys          []string   `json:"tests"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}
