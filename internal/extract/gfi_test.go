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

func writeGFIFixture(t *testing.T, dir string, sheets []config.GFISheet) {
	t.Helper()

	f := excelize.NewFile()
	for _, sheet := range sheets {
		writeSheetRows(t, f, sheet.Name, [][]any{
			{"Global Financial Integrity"},
			{},
			{},
			{},
			{"", "Country", "2016", "2017", "Average"},
			{1, "Denmark", 100, 110, 105},
			{2, "Vietnam", 7, "", 7},
			{3, "", 1, 2, 1.5}, // nameless row is skipped
		})
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, config.GFIFile)))
}

func TestGFIExtract(t *testing.T) {
	paths := testPaths(t)
	sheets := []config.GFISheet{{
		Name:           "Table A",
		IndicatorCode:  "GFI.TableA.gap_usd_adv",
		IndicatorLabel: "Value gaps, USD millions",
	}}
	writeGFIFixture(t, paths.RawDir, sheets)

	e := &GFI{
		paths:    paths,
		sheets:   sheets,
		resolver: testResolver(map[string]string{"Denmark": "DNK"}),
	}
	obs, err := e.Extract(context.Background())
	require.NoError(t, err)

	// two countries x two year columns; the Average column and the
	// nameless row are dropped
	require.Len(t, obs, 4)
	assert.Equal(t, domain.Observation{
		Country: "DNK", Year: "2016", Value: "100",
		IndicatorCode: "GFI.TableA.gap_usd_adv", IndicatorLabel: "Value gaps, USD millions",
		Source: domain.SourceGFI, Database: config.GFIFile, Collection: "Table A",
	}, obs[0])
	assert.Equal(t, "2017", obs[1].Year)

	// Vietnam resolves through the override table; empty cells pass
	// through for the clean step to drop
	assert.Equal(t, "VNM", obs[2].Country)
	assert.Equal(t, "7", obs[2].Value)
	assert.Equal(t, "", obs[3].Value)
}

func TestGFIExtractUnknownCountryFallsBack(t *testing.T) {
	paths := testPaths(t)
	sheets := []config.GFISheet{{Name: "Table A", IndicatorCode: "GFI.TableA.gap_usd_adv"}}

	f := excelize.NewFile()
	writeSheetRows(t, f, "Table A", [][]any{
		{"preamble"}, {}, {}, {},
		{"", "Country", "2016"},
		{1, "Syrua", 3},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(paths.RawDir, config.GFIFile)))

	e := &GFI{paths: paths, sheets: sheets, resolver: testResolver(nil)}
	obs, err := e.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, obs, 1)
	assert.Equal(t, "VNM", obs[0].Country)
}

func TestGFIExtractMissingSheet(t *testing.T) {
	paths := testPaths(t)
	writeGFIFixture(t, paths.RawDir, []config.GFISheet{{Name: "Table A"}})

	e := &GFI{
		paths:    paths,
		sheets:   []config.GFISheet{{Name: "Table Z"}},
		resolver: testResolver(nil),
	}
	_, err := e.Extract(context.Background())
	assert.Error(t, err)
}
