/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/humaidq/pathreport/report"
)

// Age bands of the seeded reference ranges: paediatric, adult, middle age
// and senior.
var ageBands = [4]string{"0-18y", "18-50y", "50-65y", "65-120y"}

func bands(values [4]string) []report.RangeBucket {
	buckets := make([]report.RangeBucket, 0, len(values))
	for i, v := range values {
		buckets = append(buckets, report.RangeBucket{Key: ageBands[i], Value: v})
	}
	return buckets
}

// sexed builds a range with separate male and female bands.
func sexed(male, female [4]string) report.Range {
	return report.BucketedRange(map[report.Gender][]report.RangeBucket{
		report.GenderMale:   bands(male),
		report.GenderFemale: bands(female),
	})
}

// unisex builds a banded range shared by both genders.
func unisex(values [4]string) report.Range {
	return sexed(values, values)
}

func literal(s string) report.Range {
	return report.LiteralRange(s)
}

const glucoseInterpretation = `<p>Fasting plasma glucose is interpreted as follows:</p>
<table>
<tr><th>Category</th><th>Fasting glucose (mg/dL)</th></tr>
<tr><td>Normal</td><td>70 - 99</td></tr>
<tr><td>Prediabetes</td><td>100 - 125</td></tr>
<tr><td style="font-weight: bold">Diabetes</td><td>&ge; 126 on two occasions</td></tr>
</table>`

const lipidInterpretation = `<ul>
<li>Total cholesterol &lt; 200 mg/dL is <b>desirable</b>.</li>
<li>LDL targets depend on cardiovascular risk; discuss with your physician.</li>
</ul>`

// GetBloodTestDefinitions returns the catalog seeded on startup.
func GetBloodTestDefinitions() []BloodTest {
	return []BloodTest{
		{
			Key:   "cbc",
			Name:  "Complete Blood Count",
			Price: 300,
			Parameters: []report.Parameter{
				{
					Name: "Hemoglobin", Unit: "g/dL",
					Range: sexed(
						[4]string{"10.0 - 15.5", "13.2 - 16.6", "13.0 - 16.5", "12.4 - 16.0"},
						[4]string{"10.0 - 15.5", "11.6 - 15.0", "11.5 - 14.8", "11.7 - 14.5"},
					),
				},
				{
					Name: "Hematocrit", Unit: "%",
					Range: sexed(
						[4]string{"31 - 45", "41 - 50", "40 - 50", "38 - 49"},
						[4]string{"31 - 45", "36 - 44", "36 - 44", "35 - 43"},
					),
				},
				{
					Name: "Red blood cells", Unit: "x10^6/uL",
					Range: sexed(
						[4]string{"4.0 - 5.5", "4.35 - 5.65", "4.30 - 5.60", "4.20 - 5.60"},
						[4]string{"4.0 - 5.5", "3.92 - 5.13", "3.90 - 5.10", "3.80 - 5.00"},
					),
				},
				{
					Name: "White blood cells", Unit: "x10^3/uL",
					Range: unisex([4]string{"4.5 - 13.0", "4.5 - 11.0", "4.5 - 11.0", "4.0 - 10.5"}),
				},
				{Name: "Platelets", Unit: "x10^3/uL", Range: literal("150 - 400")},
				{
					Name: "Differential Count",
					Subparameters: []report.Parameter{
						{Name: "Neutrophils", Unit: "%", Range: literal("40 - 75")},
						{Name: "Lymphocytes", Unit: "%", Range: literal("20 - 45")},
						{Name: "Monocytes", Unit: "%", Range: literal("2 - 10")},
						{Name: "Eosinophils", Unit: "%", Range: literal("1 - 6")},
						{Name: "Basophils", Unit: "%", Range: literal("0 - 2")},
					},
				},
			},
			Subheadings: []report.Subheading{
				{Title: "Red Cell Indices", ParameterNames: []string{"Hemoglobin", "Hematocrit", "Red blood cells"}},
			},
		},
		{
			Key:   "fbs",
			Name:  "Glucose Fasting",
			Price: 120,
			Parameters: []report.Parameter{
				{
					Name: "Glucose fasting FBS", Unit: "mg/dL",
					Range: unisex([4]string{"70 - 100", "70 - 99", "70 - 99", "70 - 99"}),
				},
			},
			Descriptions: []report.Description{{Heading: "Interpretation", Content: glucoseInterpretation}},
		},
		{
			Key:   "kft",
			Name:  "Kidney Function Test",
			Price: 450,
			Parameters: []report.Parameter{
				{
					Name: "Creatinine", Unit: "mg/dL",
					Range: sexed(
						[4]string{"0.3 - 0.7", "0.74 - 1.35", "0.74 - 1.35", "0.70 - 1.30"},
						[4]string{"0.3 - 0.7", "0.59 - 1.04", "0.59 - 1.04", "0.59 - 1.04"},
					),
				},
				{
					Name: "Uric Acid", Unit: "mg/dL",
					Range: sexed(
						[4]string{"2.0 - 5.5", "3.4 - 7.0", "3.4 - 7.0", "3.4 - 7.0"},
						[4]string{"2.0 - 5.5", "2.4 - 6.0", "2.4 - 6.0", "2.4 - 6.0"},
					),
				},
			},
		},
		{
			Key:   "lipid",
			Name:  "Lipid Profile",
			Price: 600,
			Parameters: []report.Parameter{
				{Name: "Total Cholesterol", Unit: "mg/dL", Range: literal("up to 200")},
				{Name: "Triglycerides", Unit: "mg/dL", Range: literal("up to 150")},
				{Name: "HDL Cholesterol", Unit: "mg/dL", Range: literal("40 - 60")},
				{Name: "LDL Cholesterol", Unit: "mg/dL", Range: literal("up to 100")},
			},
			Descriptions: []report.Description{{Heading: "Notes", Content: lipidInterpretation}},
		},
		{
			Key:   "tsh",
			Name:  "Thyroid Stimulating Hormone",
			Price: 350,
			Parameters: []report.Parameter{
				{
					Name: "TSH", Unit: "uIU/mL",
					Range: unisex([4]string{"0.7 - 6.0", "0.40 - 4.50", "0.40 - 4.50", "0.40 - 5.80"}),
				},
			},
		},
		{
			Key:   "urine_culture",
			Name:  "Urine Culture and Sensitivity",
			Type:  report.TestTypeOutsource,
			Price: 900,
			Parameters: []report.Parameter{
				{Name: "Organism", ValueType: report.ValueTypeText},
			},
		},
	}
}

// SyncBloodTestCatalog upserts the seeded catalog. Entries added by hand
// are left alone.
func SyncBloodTestCatalog(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	definitions := GetBloodTestDefinitions()
	logger.Info("Syncing blood test catalog", "tests", len(definitions))

	query := `
		INSERT INTO blood_tests (key, name, test_type, price, parameters, subheadings, descriptions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key)
		DO UPDATE SET
			name = EXCLUDED.name,
			test_type = EXCLUDED.test_type,
			price = EXCLUDED.price,
			parameters = EXCLUDED.parameters,
			subheadings = EXCLUDED.subheadings,
			descriptions = EXCLUDED.descriptions,
			updated_at = now()
	`

	for _, def := range definitions {
		params, subheadings, descriptions, err := encodeDefinition(def.Parameters, def.Subheadings, def.Descriptions)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", def.Key, err)
		}

		testType := def.Type
		if testType == "" {
			testType = "inhouse"
		}

		if _, err := pool.Exec(ctx, query, def.Key, def.Name, testType, def.Price, params, subheadings, descriptions); err != nil {
			return fmt.Errorf("failed to sync blood test %s: %w", def.Key, err)
		}
	}

	logger.Info("Synced blood test catalog", "tests", len(definitions))

	return nil
}

// encodeDefinition marshals the JSONB columns of a test definition.
func encodeDefinition(params []report.Parameter, subheadings []report.Subheading, descriptions []report.Description) ([]byte, []byte, []byte, error) {
	if params == nil {
		params = []report.Parameter{}
	}
	if subheadings == nil {
		subheadings = []report.Subheading{}
	}
	if descriptions == nil {
		descriptions = []report.Description{}
	}

	p, err := json.Marshal(params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	s, err := json.Marshal(subheadings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode subheadings: %w", err)
	}

	d, err := json.Marshal(descriptions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode descriptions: %w", err)
	}

	return p, s, d, nil
}

// decodeDefinition unmarshals the JSONB columns of a test definition.
func decodeDefinition(rawParams, rawSubheadings, rawDescriptions []byte) ([]report.Parameter, []report.Subheading, []report.Description, error) {
	var (
		params       []report.Parameter
		subheadings  []report.Subheading
		descriptions []report.Description
	)

	if len(rawParams) > 0 {
		if err := json.Unmarshal(rawParams, &params); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}

	if len(rawSubheadings) > 0 {
		if err := json.Unmarshal(rawSubheadings, &subheadings); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode subheadings: %w", err)
		}
	}

	if len(rawDescriptions) > 0 {
		if err := json.Unmarshal(rawDescriptions, &descriptions); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode descriptions: %w", err)
		}
	}

	return params, subheadings, descriptions, nil
}

// ListBloodTests returns the catalog ordered by name.
func ListBloodTests(ctx context.Context) ([]BloodTest, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT key, name, test_type, price, parameters, subheadings, descriptions, created_at, updated_at
		FROM blood_tests
		ORDER BY name ASC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood tests: %w", err)
	}
	defer rows.Close()

	var tests []BloodTest
	for rows.Next() {
		var (
			test                                         BloodTest
			rawParams, rawSubheadings, rawDescriptions []byte
		)

		if err := rows.Scan(
			&test.Key, &test.Name, &test.Type, &test.Price,
			&rawParams, &rawSubheadings, &rawDescriptions,
			&test.CreatedAt, &test.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan blood test: %w", err)
		}

		test.Parameters, test.Subheadings, test.Descriptions, err = decodeDefinition(rawParams, rawSubheadings, rawDescriptions)
		if err != nil {
			return nil, fmt.Errorf("blood test %s: %w", test.Key, err)
		}

		tests = append(tests, test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blood tests: %w", err)
	}

	return tests, nil
}
