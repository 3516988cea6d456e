package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// WDI extracts the World Development Indicators dump. The uncompressed
// CSV is too large to materialize row-oriented, so rows stream through a
// csv.Reader and are filtered on the indicator allow-list before
// reshaping; memory stays bounded by one input row plus the (allow-listed)
// output.
type WDI struct {
	paths *config.Paths
	codes map[string]bool
}

// NewWDI creates the filtered-CSV extractor over the configured
// indicator-code allow-list
func NewWDI(paths *config.Paths) *WDI {
	codes := make(map[string]bool, len(config.WDIIndicatorCodes))
	for _, c := range config.WDIIndicatorCodes {
		codes[c] = true
	}
	return &WDI{paths: paths, codes: codes}
}

// ID implements Extractor
func (e *WDI) ID() string { return "wdi" }

// Name implements Extractor
func (e *WDI) Name() string { return "World Development Indicators" }

// Extract implements Extractor
func (e *WDI) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := os.Open(e.paths.RawFile(config.WDIFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.WDIFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", config.WDIFile, err)
	}
	header = append([]string(nil), header...)

	countryCol := headerIndex(header, "Country Code")
	codeCol := headerIndex(header, "Indicator Code")
	nameCol := headerIndex(header, "Indicator Name")
	if countryCol < 0 || codeCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("%s missing expected identifier columns", config.WDIFile)
	}

	// Year columns are the headers that are literal years
	var yearCols []int
	for i, h := range header {
		if len(h) > 0 && (h[0] == '1' || h[0] == '2') {
			yearCols = append(yearCols, i)
		}
	}
	if len(yearCols) == 0 {
		return nil, fmt.Errorf("%s has no year columns", config.WDIFile)
	}

	var out []domain.Observation
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", config.WDIFile, err)
		}

		code := cellAt(row, codeCol)
		if !e.codes[code] {
			continue
		}

		country := cellAt(row, countryCol)
		label := cellAt(row, nameCol)
		for _, col := range yearCols {
			value := cellAt(row, col)
			if value == "" {
				// nulls dropped before output to bound size
				continue
			}
			out = append(out, domain.Observation{
				Country:        country,
				Year:           header[col],
				Value:          value,
				IndicatorCode:  code,
				IndicatorLabel: label,
				Source:         domain.SourceWorldBank,
				Database:       "WDI",
				Collection:     "WDI",
			})
		}
	}

	return out, nil
}
