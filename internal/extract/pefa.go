package extract

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// PEFA extracts the World Bank Public Expenditure and Financial
// Accountability workbook: a primary sheet with one column per year and a
// secondary metadata sheet mapping indicator IDs to names.
type PEFA struct {
	paths *config.Paths
}

// NewPEFA creates the government-finance-assessment extractor
func NewPEFA(paths *config.Paths) *PEFA {
	return &PEFA{paths: paths}
}

// ID implements Extractor
func (e *PEFA) ID() string { return "pefa" }

// Name implements Extractor
func (e *PEFA) Name() string { return "World Bank PEFA assessments" }

// Assessment years present in the published workbook
const (
	pefaFirstYear = 2005
	pefaLastYear  = 2021
)

// Extract implements Extractor
func (e *PEFA) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.PEFAFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.PEFAFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) < 2 {
		return nil, fmt.Errorf("expected a data sheet and a metadata sheet, found %d sheets", len(sheets))
	}

	labels, err := e.readIndicatorNames(f, sheets[1])
	if err != nil {
		return nil, fmt.Errorf("metadata sheet %q: %w", sheets[1], err)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read data sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("data sheet %q has no rows", sheets[0])
	}

	header := rows[0]
	isoCol := headerIndex(header, "Economy ISO3")
	idCol := headerIndex(header, "Indicator ID")
	if isoCol < 0 || idCol < 0 {
		return nil, fmt.Errorf("data sheet missing Economy ISO3 or Indicator ID column")
	}

	// One column per assessment year; anything else (Economy Name,
	// Attribute 1-3, Partner) is dropped.
	yearCols := make(map[int]string)
	for i, h := range header {
		if y, err := strconv.Atoi(h); err == nil && y >= pefaFirstYear && y <= pefaLastYear {
			yearCols[i] = h
		}
	}
	if len(yearCols) == 0 {
		return nil, fmt.Errorf("data sheet has no year columns between %d and %d", pefaFirstYear, pefaLastYear)
	}

	var out []domain.Observation
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := cellAt(row, idCol)
		for col := 0; col < len(header); col++ {
			year, ok := yearCols[col]
			if !ok {
				continue
			}
			out = append(out, domain.Observation{
				Country:        cellAt(row, isoCol),
				Year:           year,
				Value:          cellAt(row, col),
				IndicatorCode:  id,
				IndicatorLabel: labels[id], // unmatched join leaves the label empty
				Source:         domain.SourceWorldBank,
				Database:       config.PEFAFile,
				Collection:     "PEFA",
			})
		}
	}

	return out, nil
}

// readIndicatorNames builds the Indicator ID → Indicator Name lookup from
// the metadata sheet
func (e *PEFA) readIndicatorNames(f *excelize.File, sheet string) (map[string]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metadata sheet is empty")
	}

	header := rows[0]
	idCol := headerIndex(header, "Indicator ID")
	nameCol := headerIndex(header, "Indicator Name")
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("metadata sheet missing Indicator ID or Indicator Name column")
	}

	labels := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if id := cellAt(row, idCol); id != "" {
			labels[id] = cellAt(row, nameCol)
		}
	}
	return labels, nil
}
