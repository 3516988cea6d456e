package extract

import (
	"context"
	"fmt"
	"regexp"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/internal/country"
	"nexusetl/pkg/contracts/domain"
)

// USAID extracts the Collecting Taxes Database workbook. The first three
// columns are country id, country name and year; the following indicator
// columns reshape to long rows, with each indicator's short code embedded
// as a bracketed token in its column header.
type USAID struct {
	paths    *config.Paths
	resolver *country.Resolver
}

// NewUSAID creates the tax-effort-and-buoyancy extractor
func NewUSAID(paths *config.Paths, resolver *country.Resolver) *USAID {
	return &USAID{paths: paths, resolver: resolver}
}

// ID implements Extractor
func (e *USAID) ID() string { return "usaid" }

// Name implements Extractor
func (e *USAID) Name() string { return "USAID tax effort and buoyancy" }

const (
	usaidSheet      = "Data"
	usaidCollection = "Collecting Taxes Database (CTD)"

	// Indicator measurements occupy this contiguous 0-indexed column range
	usaidFirstIndicatorCol = 3
	usaidLastIndicatorCol  = 22
)

var bracketToken = regexp.MustCompile(`\[([^\]]+)\]`)

// Extract implements Extractor
func (e *USAID) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.USAIDFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.USAIDFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(usaidSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", usaidSheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows", usaidSheet)
	}

	header := rows[0]

	var out []domain.Observation
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iso3, err := e.resolver.Resolve(cellAt(row, 1))
		if err != nil {
			return nil, err
		}
		if iso3 == "" {
			// World Bank spells it Viet Nam; the sheet does not
			iso3 = "VNM"
		}
		year := cellAt(row, 2)

		for col := usaidFirstIndicatorCol; col <= usaidLastIndicatorCol && col < len(header); col++ {
			label := header[col]
			out = append(out, domain.Observation{
				Country:        iso3,
				Year:           year,
				Value:          cellAt(row, col),
				IndicatorCode:  usaidIndicatorCode(label),
				IndicatorLabel: label,
				Source:         domain.SourceUSAID,
				Database:       usaidCollection,
				Collection:     usaidCollection,
			})
		}
	}

	return out, nil
}

// usaidIndicatorCode derives the short code from the bracketed token in a
// column header, e.g. "Tax effort [TE]" yields USAID.CTD.TE. Headers
// without a token yield an empty code.
func usaidIndicatorCode(label string) string {
	m := bracketToken.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return "USAID.CTD." + m[1]
}
