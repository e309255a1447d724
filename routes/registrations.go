/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/pathreport/db"
	"github.com/humaidq/pathreport/report"
)

var (
	createPatientFn      = db.CreatePatient
	getPatientFn         = db.GetPatient
	createRegistrationFn = db.CreateRegistration
	saveResultsFn        = db.SaveTestResults
)

type patientRequest struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Name    string  `json:"name"`
	Age     float64 `json:"age"`
	AgeUnit string  `json:"ageUnit"`
	Gender  string  `json:"gender"`
	Phone   *string `json:"phone"`
}

type registrationRequest struct {
	ID                string     `json:"id"`
	PatientID         string     `json:"patientId"`
	DoctorName        string     `json:"doctorName"`
	HospitalName      string     `json:"hospitalName"`
	RegisteredAt      *time.Time `json:"registeredAt"`
	SampleCollectedAt *time.Time `json:"sampleCollectedAt"`
	EnteredBy         string     `json:"enteredBy"`
	Discount          float64    `json:"discount"`
	AmountPaid        float64    `json:"amountPaid"`
	Tests             []string   `json:"tests"`
}

type resultsRequest struct {
	Parameters []report.Parameter `json:"parameters"`
	ReportedOn *time.Time         `json:"reportedOn"`
}

// CreatePatient registers a patient from a JSON body.
func CreatePatient(c flamego.Context) {
	var req patientRequest
	if !decodeBody(c, &req) {
		return
	}

	patient, err := createPatientFn(c.Request().Context(), db.CreatePatientInput{
		DisplayID: req.ID,
		Title:     req.Title,
		Name:      req.Name,
		Age:       req.Age,
		AgeUnit:   req.AgeUnit,
		Gender:    req.Gender,
		Phone:     req.Phone,
	})
	if err != nil {
		handleEntryError(c, "patient", err)
		return
	}

	writeJSON(c, http.StatusCreated, patient)
}

// GetPatient returns a patient by display id or UUID.
func GetPatient(c flamego.Context) {
	patient, err := getPatientFn(c.Request().Context(), c.Param("id"))
	if err != nil {
		handleEntryError(c, "patient", err)
		return
	}

	writeJSON(c, http.StatusOK, patient)
}

// CreateRegistration records a visit for an existing patient and orders
// the listed catalog tests.
func CreateRegistration(c flamego.Context) {
	ctx := c.Request().Context()

	var req registrationRequest
	if !decodeBody(c, &req) {
		return
	}

	if strings.TrimSpace(req.PatientID) == "" {
		writeError(c, http.StatusBadRequest, errPatientIDRequired.Error())
		return
	}

	patient, err := getPatientFn(ctx, strings.TrimSpace(req.PatientID))
	if err != nil {
		handleEntryError(c, "registration", err)
		return
	}

	input := db.CreateRegistrationInput{
		DisplayID:         req.ID,
		PatientID:         patient.ID,
		DoctorName:        req.DoctorName,
		HospitalName:      req.HospitalName,
		SampleCollectedAt: req.SampleCollectedAt,
		EnteredBy:         req.EnteredBy,
		Discount:          req.Discount,
		AmountPaid:        req.AmountPaid,
		TestKeys:          req.Tests,
	}
	if req.RegisteredAt != nil {
		input.RegisteredAt = *req.RegisteredAt
	}

	reg, err := createRegistrationFn(ctx, input)
	if err != nil {
		handleEntryError(c, "registration", err)
		return
	}

	writeJSON(c, http.StatusCreated, reg)
}

// SaveTestResults stores entered values for one test of a registration.
func SaveTestResults(c flamego.Context) {
	var req resultsRequest
	if !decodeBody(c, &req) {
		return
	}

	if len(req.Parameters) == 0 {
		writeError(c, http.StatusBadRequest, errParametersRequired.Error())
		return
	}

	input := db.SaveResultsInput{
		RegistrationID: c.Param("id"),
		TestKey:        c.Param("key"),
		Parameters:     req.Parameters,
	}
	if req.ReportedOn != nil {
		input.ReportedOn = *req.ReportedOn
	}

	if err := saveResultsFn(c.Request().Context(), input); err != nil {
		handleEntryError(c, "results", err)
		return
	}

	c.ResponseWriter().WriteHeader(http.StatusNoContent)
}

func decodeBody(c flamego.Context, v any) bool {
	if err := json.NewDecoder(c.Request().Body().ReadCloser()).Decode(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return false
	}

	return true
}

// handleEntryError maps data-entry failures onto HTTP statuses.
func handleEntryError(c flamego.Context, what string, err error) {
	switch {
	case errors.Is(err, db.ErrPatientNameRequired),
		errors.Is(err, db.ErrNoTestsSelected),
		errors.Is(err, db.ErrBloodTestNotFound):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrPatientNotFound),
		errors.Is(err, db.ErrRegistrationTestNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		logger.Error("Error handling data entry", "entity", what, "error", err)
		writeError(c, http.StatusInternalServerError, "failed to process "+what)
	}
}

func writeJSON(c flamego.Context, status int, v any) {
	c.ResponseWriter().Header().Set("Content-Type", "application/json")
	c.ResponseWriter().WriteHeader(status)

	if err := json.NewEncoder(c.ResponseWriter()).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
