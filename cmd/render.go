/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/humaidq/pathreport/report"
)

var CmdRender = &cli.Command{
	Name:  "render",
	Usage: "Render a report or bill from a YAML or JSON file without a database",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "request file (YAML or JSON); - reads standard input",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   "report.pdf",
			Usage:   "PDF destination; - writes to standard output",
		},
		&cli.BoolFlag{
			Name:  "bill",
			Usage: "treat the input as a bill instead of a report request",
		},
	}, assetFlags()...),
	Action: render,
}

func render(ctx context.Context, cmd *cli.Command) error {
	input := cmd.String("input")
	if input == "" {
		return errInputRequired
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}

	assets := loadAssets(ctx, cmd)

	var pdf []byte
	if cmd.Bool("bill") {
		pdf, err = renderBill(data, assets, cmd.String("currency"))
	} else {
		pdf, err = renderReport(data, assets, cmd.String("verify-url"))
	}

	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "-" {
		_, err = os.Stdout.Write(pdf)
		return err
	}

	if err := os.WriteFile(output, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	appLogger.Info("Rendered document", "input", input, "output", output, "bytes", len(pdf))

	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return data, nil
}

// decodeInput reads a JSON object with encoding/json and anything else as
// YAML.
func decodeInput(data []byte, out any) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, out)
	}

	return yaml.Unmarshal(data, out)
}

func renderReport(data []byte, assets report.Assets, verifyURL string) ([]byte, error) {
	var req report.Request
	if err := decodeInput(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}

	if req.Patient == nil {
		return nil, errPatientMissing
	}

	if req.Mode == "" {
		req.Mode = report.ModeNormal
	}

	if req.VerifyURL == "" && verifyURL != "" {
		req.VerifyURL = strings.ReplaceAll(verifyURL, "{id}", req.Patient.RegistrationID)
	}

	return report.Generate(req, assets)
}

func renderBill(data []byte, assets report.Assets, currency string) ([]byte, error) {
	var bill report.Bill
	if err := decodeInput(data, &bill); err != nil {
		return nil, fmt.Errorf("failed to decode bill: %w", err)
	}

	if bill.Patient == nil {
		return nil, errPatientMissing
	}

	if bill.Currency == "" {
		bill.Currency = currency
	}

	return report.GenerateBill(bill, assets)
}
