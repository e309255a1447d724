/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/pathreport/report"
)

const assetTimeout = 15 * time.Second

// assetFlags are shared by every command that draws documents.
func assetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "letterhead",
			Sources: cli.EnvVars("REPORT_LETTERHEAD"),
			Usage:   "letterhead image drawn across the top of every page (URL or path)",
		},
		&cli.StringFlag{
			Name:    "cover",
			Sources: cli.EnvVars("REPORT_COVER"),
			Usage:   "full-page cover image (URL or path)",
		},
		&cli.StringFlag{
			Name:    "stamp",
			Sources: cli.EnvVars("REPORT_STAMP"),
			Usage:   "signature stamp drawn bottom left (URL or path)",
		},
		&cli.StringFlag{
			Name:    "stamp-secondary",
			Sources: cli.EnvVars("REPORT_STAMP_SECONDARY"),
			Usage:   "second signature stamp drawn bottom right (URL or path)",
		},
		&cli.StringFlag{
			Name:    "verify-url",
			Sources: cli.EnvVars("REPORT_VERIFY_URL"),
			Usage:   "verification URL printed as a QR code; {id} is replaced with the registration id",
		},
		&cli.StringFlag{
			Name:    "currency",
			Value:   "AED",
			Sources: cli.EnvVars("REPORT_CURRENCY"),
			Usage:   "currency label printed on bills",
		},
	}
}

// loadAssets fetches the configured images. Missing images are logged and
// left out.
func loadAssets(ctx context.Context, cmd *cli.Command) report.Assets {
	sources := report.AssetSources{
		Letterhead:     cmd.String("letterhead"),
		Cover:          cmd.String("cover"),
		Stamp:          cmd.String("stamp"),
		SecondaryStamp: cmd.String("stamp-secondary"),
	}

	return report.NewFetcher(assetTimeout).FetchAll(ctx, sources)
}
