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

func TestUSAIDIndicatorCode(t *testing.T) {
	assert.Equal(t, "USAID.CTD.TE", usaidIndicatorCode("Tax effort [TE]"))
	assert.Equal(t, "USAID.CTD.VATGCR", usaidIndicatorCode("VAT gross compliance ratio [VATGCR]"))
	assert.Equal(t, "", usaidIndicatorCode("Tax effort"))
}

func TestUSAIDExtract(t *testing.T) {
	paths := testPaths(t)

	f := excelize.NewFile()
	writeSheetRows(t, f, usaidSheet, [][]any{
		{"id", "Country", "Year", "Tax effort [TE]", "Tax buoyancy [TB]"},
		{1, "Denmark", 2018, 0.8, 1.1},
		{2, "Vietnam", 2018, 0.6, ""},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(filepath.Join(paths.RawDir, config.USAIDFile)))

	e := NewUSAID(paths, testResolver(map[string]string{"Denmark": "DNK"}))
	obs, err := e.Extract(context.Background())
	require.NoError(t, err)

	// two countries x two indicator columns
	require.Len(t, obs, 4)
	assert.Equal(t, domain.Observation{
		Country: "DNK", Year: "2018", Value: "0.8",
		IndicatorCode: "USAID.CTD.TE", IndicatorLabel: "Tax effort [TE]",
		Source: domain.SourceUSAID, Database: usaidCollection, Collection: usaidCollection,
	}, obs[0])
	assert.Equal(t, "USAID.CTD.TB", obs[1].IndicatorCode)

	assert.Equal(t, "VNM", obs[2].Country)
	assert.Equal(t, "", obs[3].Value)
}

func TestUSAIDExtractMissingFile(t *testing.T) {
	e := NewUSAID(testPaths(t), testResolver(nil))
	_, err := e.Extract(context.Background())
	assert.Error(t, err)
}
