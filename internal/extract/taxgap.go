package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// TaxGap extracts the World Bank tax capacity and gap table. Each input
// row already carries one country/year; the five measurement columns
// become separate "variant" rows.
type TaxGap struct {
	paths *config.Paths
}

// NewTaxGap creates the tax-capacity-and-gap extractor
func NewTaxGap(paths *config.Paths) *TaxGap {
	return &TaxGap{paths: paths}
}

// ID implements Extractor
func (e *TaxGap) ID() string { return "taxgap" }

// Name implements Extractor
func (e *TaxGap) Name() string { return "World Bank tax capacity and gap" }

// The published dataset calls itself .xlsx in its own documentation even
// though it ships as CSV; the provenance string follows the publisher.
const taxGapDatabase = "WB_TAX CPACITY AND GAP.xlsx"

var taxGapVariants = []string{"value", "Buoyancy", "Capacity", "Gap", "Tax Revenue Percent"}

// Extract implements Extractor
func (e *TaxGap) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := os.Open(e.paths.RawFile(config.TaxGapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.TaxGapFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.TaxGapFile, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", config.TaxGapFile)
	}

	header := records[0]
	yearCol := headerIndex(header, "Year")
	nameCol := headerIndex(header, "indicator name")
	unitCol := headerIndex(header, "indicator unit")
	codeCol := headerIndex(header, "indicator code")
	isoCol := headerIndex(header, "iso3_code")
	if yearCol < 0 || nameCol < 0 || unitCol < 0 || codeCol < 0 || isoCol < 0 {
		return nil, fmt.Errorf("%s missing expected identifier columns", config.TaxGapFile)
	}

	variantCols := make([]int, len(taxGapVariants))
	for i, v := range taxGapVariants {
		variantCols[i] = headerIndex(header, v)
		if variantCols[i] < 0 {
			return nil, fmt.Errorf("%s missing measurement column %q", config.TaxGapFile, v)
		}
	}

	var out []domain.Observation
	for _, row := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, variant := range taxGapVariants {
			// Non-numeric measurement text coerces to missing here,
			// not to a clean-step failure.
			value := cellAt(row, variantCols[i])
			if _, ok := parseNumeric(value); !ok {
				value = ""
			}

			out = append(out, domain.Observation{
				Country:        cellAt(row, isoCol),
				Year:           cellAt(row, yearCol),
				Value:          value,
				IndicatorCode:  cellAt(row, codeCol),
				IndicatorLabel: variantLabel(cellAt(row, nameCol), cellAt(row, unitCol), variant),
				Source:         domain.SourceWorldBank,
				Database:       taxGapDatabase,
				Collection:     "TAXGAP",
			})
		}
	}

	return out, nil
}

// variantLabel joins the indicator name, unit and variant, skipping empty
// parts
func variantLabel(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " - ")
}
