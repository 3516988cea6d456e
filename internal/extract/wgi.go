package extract

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// WGI extracts the World Governance Indicators workbook: a fixed column
// subset of a single sheet, with labels for the six governance dimensions
// attached from the configured lookup.
type WGI struct {
	paths *config.Paths
}

// NewWGI creates the governance-indicator extractor
func NewWGI(paths *config.Paths) *WGI {
	return &WGI{paths: paths}
}

// ID implements Extractor
func (e *WGI) ID() string { return "wgi" }

// Name implements Extractor
func (e *WGI) Name() string { return "World Governance Indicators" }

// Extract implements Extractor
func (e *WGI) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.WGIFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.WGIFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", config.WGIFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s has no data rows", config.WGIFile)
	}

	header := rows[0]
	codeCol := headerIndex(header, "code")
	yearCol := headerIndex(header, "year")
	indCol := headerIndex(header, "indicator")
	estCol := headerIndex(header, "estimate")
	if codeCol < 0 || yearCol < 0 || indCol < 0 || estCol < 0 {
		return nil, fmt.Errorf("%s missing one of code/year/indicator/estimate columns", config.WGIFile)
	}

	var out []domain.Observation
	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		indicator := cellAt(row, indCol)
		out = append(out, domain.Observation{
			Country:        cellAt(row, codeCol),
			Year:           cellAt(row, yearCol),
			Value:          cellAt(row, estCol),
			IndicatorCode:  indicator,
			IndicatorLabel: config.WGIIndicatorLabels[indicator],
			Source:         domain.SourceWorldBank,
			Database:       config.WGIFile,
			Collection:     "WGI",
		})
	}

	return out, nil
}
