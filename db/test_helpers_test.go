// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

func mustCreatePatient(t *testing.T, name string, age float64, gender string) *Patient {
	t.Helper()
	patient, err := CreatePatient(testContext(), CreatePatientInput{
		Title:  "Mr.",
		Name:   name,
		Age:    age,
		Gender: gender,
		Phone:  stringPtr("+971500000000"),
	})
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	return patient
}

func mustCreateRegistration(t *testing.T, input CreateRegistrationInput) *Registration {
	t.Helper()
	reg, err := CreateRegistration(testContext(), input)
	if err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	return reg
}
