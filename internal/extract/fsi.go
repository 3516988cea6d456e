package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// FSI extracts the Tax Justice Network Financial Secrecy Index CSV. The
// first column is already an ISO3 code; the indicator columns carry the
// reporting year embedded in the header ("Secrecy Score 09", "Rank 2015"),
// which splits into the indicator code and the year.
type FSI struct {
	paths *config.Paths
}

// NewFSI creates the secrecy-index extractor
func NewFSI(paths *config.Paths) *FSI {
	return &FSI{paths: paths}
}

// ID implements Extractor
func (e *FSI) ID() string { return "fsi" }

// Name implements Extractor
func (e *FSI) Name() string { return "TJN Financial Secrecy Index" }

const (
	fsiCollection = "Financial Secrecy Index (FSI)"

	// Indicator-year composites occupy this contiguous 0-indexed range
	fsiFirstIndicatorCol = 1
	fsiLastIndicatorCol  = 18
)

var embeddedDigits = regexp.MustCompile(`\d{2,4}`)

// Extract implements Extractor
func (e *FSI) Extract(ctx context.Context) ([]domain.Observation, error) {
	f, err := os.Open(e.paths.RawFile(config.FSIFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.FSIFile, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.FSIFile, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s has no data rows", config.FSIFile)
	}

	header := records[0]

	// Precompute the (year, code) split of every indicator column so the
	// header is parsed once, not per row.
	type headerSplit struct {
		year string
		code string
	}
	splits := make(map[int]headerSplit)
	for col := fsiFirstIndicatorCol; col <= fsiLastIndicatorCol && col < len(header); col++ {
		year, code, err := SplitEmbeddedYear(header[col])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", header[col], err)
		}
		splits[col] = headerSplit{year: year, code: code}
	}

	var out []domain.Observation
	for _, row := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iso3 := cellAt(row, 0)
		for col := fsiFirstIndicatorCol; col <= fsiLastIndicatorCol && col < len(header); col++ {
			split := splits[col]
			out = append(out, domain.Observation{
				Country:        iso3,
				Year:           split.year,
				Value:          cellAt(row, col),
				IndicatorCode:  split.code,
				IndicatorLabel: header[col],
				Source:         domain.SourceTJN,
				Database:       fsiCollection,
				Collection:     fsiCollection,
			})
		}
	}

	return out, nil
}

// SplitEmbeddedYear separates an indicator-year composite header into its
// year and indicator code. The year is the first embedded 2-4 digit run;
// 2-digit values expand to 4 digits by adding 2000 when the number is at
// most 50 (larger values are treated as already 4-digit). The code is the
// header with every digit run stripped, whitespace preserved.
func SplitEmbeddedYear(label string) (year, code string, err error) {
	m := embeddedDigits.FindString(label)
	if m == "" {
		return "", "", fmt.Errorf("no embedded year digits")
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return "", "", fmt.Errorf("embedded year %q: %w", m, err)
	}
	if n <= 50 {
		n += 2000
	}
	return strconv.Itoa(n), embeddedDigits.ReplaceAllString(label, ""), nil
}
