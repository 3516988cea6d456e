package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

func TestWGIExtract(t *testing.T) {
	paths := testPaths(t)

	f := excelize.NewFile()
	writeSheetRows(t, f, "wgidataset", [][]any{
		{"code", "countryname", "year", "indicator", "estimate", "stddev"},
		{"DNK", "Denmark", 2019, "cc", 2.2, 0.1},
		{"DNK", "Denmark", 2019, "rl", 1.9, 0.1},
		{"KEN", "Kenya", 2019, "cc", "", 0.2},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(paths.RawDir, config.WGIFile)))

	obs, err := NewWGI(paths).Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, obs, 3)
	assert.Equal(t, domain.Observation{
		Country: "DNK", Year: "2019", Value: "2.2",
		IndicatorCode: "cc", IndicatorLabel: "Control of Corruption",
		Source: domain.SourceWorldBank, Database: config.WGIFile, Collection: "WGI",
	}, obs[0])
	assert.Equal(t, "Rule of Law", obs[1].IndicatorLabel)

	// empty estimates pass through for the clean step to drop
	assert.Equal(t, "", obs[2].Value)
}

func TestWGIExtractMissingColumns(t *testing.T) {
	paths := testPaths(t)

	f := excelize.NewFile()
	writeSheetRows(t, f, "wgidataset", [][]any{
		{"code", "year", "estimate"},
		{"DNK", 2019, 2.2},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(paths.RawDir, config.WGIFile)))

	_, err := NewWGI(paths).Extract(context.Background())
	assert.Error(t, err)
}
