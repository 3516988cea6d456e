package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/internal/country"
	"nexusetl/pkg/contracts/domain"
)

// ISORA extracts the International Survey on Revenue Administration
// workbooks. Each sheet carries a header row where one indicator label
// spans a run of columns as a merged cell, with the per-column years on
// the row directly below and one country row per administration.
type ISORA struct {
	paths    *config.Paths
	files    []config.SurveyFile
	resolver *country.Resolver
	logger   *slog.Logger
}

// NewISORA creates the survey-workbook extractor over the configured
// ISORA file set
func NewISORA(paths *config.Paths, resolver *country.Resolver, logger *slog.Logger) *ISORA {
	if logger == nil {
		logger = slog.Default()
	}
	return &ISORA{paths: paths, files: config.ISORAFiles, resolver: resolver, logger: logger}
}

// ID implements Extractor
func (e *ISORA) ID() string { return "isora" }

// Name implements Extractor
func (e *ISORA) Name() string { return "ISORA survey workbooks" }

// indicatorBlock is one merged-cell indicator region: its label, the year
// of every column it spans, and the 1-indexed column range.
type indicatorBlock struct {
	Label    string
	Years    []string
	StartCol int
	EndCol   int
}

// Extract implements Extractor
func (e *ISORA) Extract(ctx context.Context) ([]domain.Observation, error) {
	var out []domain.Observation

	for _, file := range e.files {
		filePath := e.paths.RawFile(file.FilePath)
		f, err := excelize.OpenFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file.FilePath, err)
		}

		for _, sheet := range file.Sheets {
			if err := ctx.Err(); err != nil {
				f.Close()
				return nil, err
			}
			obs, err := e.extractSheet(f, file.FilePath, sheet)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("sheet %q of %s: %w", sheet.Name, file.FilePath, err)
			}
			out = append(out, obs...)
		}
		f.Close()
	}

	return out, nil
}

func (e *ISORA) extractSheet(f *excelize.File, fileName string, layout config.SheetLayout) ([]domain.Observation, error) {
	blocks, err := ScanIndicatorBlocks(f, layout.Name, layout.Start)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no merged indicator blocks anchored at row %d", layout.Start)
	}

	rows, err := f.GetRows(layout.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	e.logger.Debug("scanned indicator blocks",
		slog.String("sheet", layout.Name),
		slog.Int("blocks", len(blocks)))

	// Country names sit in the first column; data starts two rows below
	// the indicator header.
	const countryCol = 1
	dataStart := layout.Start + 2

	var out []domain.Observation
	for r := dataStart; r <= layout.End && r <= len(rows); r++ {
		row := rows[r-1]
		countryName := cellAt(row, countryCol-1)
		iso3, err := e.resolver.Resolve(countryName)
		if err != nil {
			return nil, err
		}

		for _, block := range blocks {
			for col := block.StartCol; col <= block.EndCol; col++ {
				out = append(out, domain.Observation{
					Country:        iso3,
					Year:           block.Years[col-block.StartCol],
					Value:          cellAt(row, col-1),
					IndicatorCode:  block.Label,
					IndicatorLabel: block.Label,
					Source:         domain.SourceISORA,
					Database:       fileName,
					Collection:     layout.Name,
				})
			}
		}
	}

	return out, nil
}

// ScanIndicatorBlocks finds every merged region anchored at headerRow that
// spans more than one column and reads its label and per-column years.
// Blocks come back ordered by start column, so a rescan of an unchanged
// sheet yields an identical block list.
func ScanIndicatorBlocks(f *excelize.File, sheet string, headerRow int) ([]indicatorBlock, error) {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged cells: %w", err)
	}

	var blocks []indicatorBlock
	for _, mc := range merged {
		startCol, startRow, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return nil, err
		}
		endCol, _, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return nil, err
		}
		if startRow != headerRow || endCol <= startCol {
			continue
		}

		years := make([]string, 0, endCol-startCol+1)
		for col := startCol; col <= endCol; col++ {
			axis, err := excelize.CoordinatesToCellName(col, headerRow+1)
			if err != nil {
				return nil, err
			}
			year, err := f.GetCellValue(sheet, axis)
			if err != nil {
				return nil, err
			}
			years = append(years, year)
		}

		blocks = append(blocks, indicatorBlock{
			Label:    mc.GetCellValue(),
			Years:    years,
			StartCol: startCol,
			EndCol:   endCol,
		})
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].StartCol < blocks[j].StartCol })
	return blocks, nil
}
