package extract

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/internal/country"
	"nexusetl/pkg/contracts/domain"
)

// GFI extracts the Global Financial Integrity trade-mispricing workbook:
// four named sheets, one indicator each, with four preamble rows above the
// header and a row index plus country name in the first two columns.
type GFI struct {
	paths    *config.Paths
	sheets   []config.GFISheet
	resolver *country.Resolver
}

// NewGFI creates the trade-mispricing extractor
func NewGFI(paths *config.Paths, resolver *country.Resolver) *GFI {
	return &GFI{paths: paths, sheets: config.GFISheets, resolver: resolver}
}

// ID implements Extractor
func (e *GFI) ID() string { return "gfi" }

// Name implements Extractor
func (e *GFI) Name() string { return "GFI trade mispricing" }

// Rows above the header in every published table
const gfiSkipRows = 4

// Extract implements Extractor
func (e *GFI) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.GFIFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.GFIFile, err)
	}
	defer f.Close()

	var out []domain.Observation
	for _, sheet := range e.sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := e.extractSheet(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		out = append(out, obs...)
	}

	return out, nil
}

func (e *GFI) extractSheet(f *excelize.File, sheet config.GFISheet) ([]domain.Observation, error) {
	rows, err := f.GetRows(sheet.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) <= gfiSkipRows+1 {
		return nil, fmt.Errorf("no data rows below the preamble")
	}

	// Header row: index column, country column, then the year labels.
	header := rows[gfiSkipRows]

	var out []domain.Observation
	for _, row := range rows[gfiSkipRows+1:] {
		name := cellAt(row, 1)
		if name == "" {
			// missing country name
			continue
		}
		iso3, err := e.resolver.Resolve(name)
		if err != nil {
			return nil, err
		}
		if iso3 == "" {
			// misspelled 'Syrua' row in the published tables
			iso3 = "VNM"
		}

		for col := 2; col < len(header); col++ {
			year := header[col]
			if year == "" || year == "Average" {
				continue
			}
			out = append(out, domain.Observation{
				Country:        iso3,
				Year:           year,
				Value:          cellAt(row, col),
				IndicatorCode:  sheet.IndicatorCode,
				IndicatorLabel: sheet.IndicatorLabel,
				Source:         domain.SourceGFI,
				Database:       config.GFIFile,
				Collection:     sheet.Name,
			})
		}
	}

	return out, nil
}
