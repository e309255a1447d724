/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BillItem is one billed test.
type BillItem struct {
	TestKey string  `json:"testKey" yaml:"testKey"`
	Name    string  `json:"name" yaml:"name"`
	Price   float64 `json:"price" yaml:"price"`
}

// Bill is the invoice of one registration.
type Bill struct {
	Patient           *Patient   `json:"patient" yaml:"patient"`
	Items             []BillItem `json:"items" yaml:"items"`
	Discount          float64    `json:"discount" yaml:"discount"`
	AmountPaid        float64    `json:"amountPaid" yaml:"amountPaid"`
	Currency          string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	IncludeLetterhead bool       `json:"includeLetterhead" yaml:"includeLetterhead"`
	GeneratedAt       time.Time  `json:"generatedAt,omitempty" yaml:"generatedAt,omitempty"`
}

// Subtotal is the sum of item prices.
func (b Bill) Subtotal() float64 {
	total := 0.0
	for _, item := range b.Items {
		total += item.Price
	}
	return total
}

// Total is the subtotal less the discount, never below zero.
func (b Bill) Total() float64 {
	return max(b.Subtotal()-b.Discount, 0)
}

// Due is what remains after payment, never below zero.
func (b Bill) Due() float64 {
	return max(b.Total()-b.AmountPaid, 0)
}

func (b Bill) money(v float64) string {
	amount := strconv.FormatFloat(v, 'f', 2, 64)
	if c := strings.TrimSpace(b.Currency); c != "" {
		return c + " " + amount
	}
	return amount
}

// GenerateBill lays out an invoice on the same page frame as reports.
func GenerateBill(bill Bill, assets Assets) ([]byte, error) {
	if bill.Patient == nil {
		return nil, ErrPatientRequired
	}

	created := bill.GeneratedAt
	if created.IsZero() {
		created = now()
	}

	c := newPDFCanvas("Bill - "+strings.TrimSpace(bill.Patient.Name), created)
	layoutBill(c, bill, assets, created)

	var buf bytes.Buffer
	if err := c.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write bill: %w", err)
	}

	return buf.Bytes(), nil
}

func layoutBill(c Canvas, bill Bill, assets Assets, created time.Time) {
	req := Request{
		Patient:           bill.Patient,
		IncludeLetterhead: bill.IncludeLetterhead,
		SkipCover:         true,
		GeneratedAt:       created,
	}

	d := newDocument(c, req, assets, created)
	cur := d.newPage()
	cur = d.titleBar(cur, "BILL")

	width := d.contentWidth()
	numW, amountW := width*0.08, width*0.25
	nameW := width - numW - amountW

	row := func(cur cursor, cells [3]string, style FontStyle, fill bool) cursor {
		widths := [3]float64{numW, nameW, amountW}
		aligns := [3]string{"center", "", "right"}

		d.c.SetFont(style, baseFontPt)
		lines := make([][]string, 3)
		rows := 1
		for i := range cells {
			lines[i] = d.c.SplitText(cells[i], widths[i]-2*cellInset)
			rows = max(rows, len(lines[i]))
		}
		h := lineHeight * float64(rows)

		cur = d.ensure(cur, h)

		x := marginX
		for i := range cells {
			if fill {
				d.cellBox(x, cur.y, widths[i], h, &colorHeaderFill)
			} else {
				d.cellBox(x, cur.y, widths[i], h, nil)
			}
			d.c.SetFont(style, baseFontPt)
			d.c.SetTextColor(colorText)
			d.drawLines(x+cellInset, cur.y, widths[i]-2*cellInset, lines[i], aligns[i], baseFontPt)
			x += widths[i]
		}

		return cur.advance(h)
	}

	cur = row(cur, [3]string{"#", "TEST", "AMOUNT"}, FontBold, true)
	for i, item := range bill.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = DisplayName(item.TestKey, TestResult{})
		}
		cur = row(cur, [3]string{strconv.Itoa(i + 1), name, bill.money(item.Price)}, FontRegular, false)
	}

	cur = cur.advance(lineHeight / 2)

	summary := [][2]string{
		{"Subtotal", bill.money(bill.Subtotal())},
		{"Discount", bill.money(bill.Discount)},
		{"Total", bill.money(bill.Total())},
		{"Paid", bill.money(bill.AmountPaid)},
		{"Due", bill.money(bill.Due())},
	}

	for _, line := range summary {
		cur = d.ensure(cur, lineHeight)

		style := FontRegular
		if line[0] == "Total" || line[0] == "Due" {
			style = FontBold
		}

		d.c.SetFont(style, baseFontPt)
		d.drawLines(marginX+numW, cur.y, nameW-2*cellInset, []string{line[0]}, "right", baseFontPt)
		d.drawLines(marginX+numW+nameW+cellInset, cur.y, amountW-2*cellInset, []string{line[1]}, "right", baseFontPt)
		cur = cur.advance(lineHeight)
	}

	d.state = stateDone
}
