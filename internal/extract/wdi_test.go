package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

func writeWDIFixture(t *testing.T, rawDir, csv string) {
	t.Helper()
	path := filepath.Join(rawDir, config.WDIFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))
}

func TestWDIExtract(t *testing.T) {
	paths := testPaths(t)
	writeWDIFixture(t, paths.RawDir,
		"Country Name,Country Code,Indicator Name,Indicator Code,1990,2020\n"+
			"Denmark,DNK,GDP (current US$),NY.GDP.MKTP.CD,1000,2000\n"+
			"Denmark,DNK,Population density,EN.POP.DNST,5,6\n"+ // not allow-listed
			"Kenya,KEN,GDP (current US$),NY.GDP.MKTP.CD,,300\n")

	obs, err := NewWDI(paths).Extract(context.Background())
	require.NoError(t, err)

	// the non-allow-listed indicator and the empty 1990 cell are dropped
	require.Len(t, obs, 3)
	assert.Equal(t, domain.Observation{
		Country: "DNK", Year: "1990", Value: "1000",
		IndicatorCode: "NY.GDP.MKTP.CD", IndicatorLabel: "GDP (current US$)",
		Source: domain.SourceWorldBank, Database: "WDI", Collection: "WDI",
	}, obs[0])
	assert.Equal(t, "2020", obs[1].Year)
	assert.Equal(t, "KEN", obs[2].Country)
	assert.Equal(t, "2020", obs[2].Year)
}

func TestWDIExtractNoYearColumns(t *testing.T) {
	paths := testPaths(t)
	writeWDIFixture(t, paths.RawDir,
		"Country Name,Country Code,Indicator Name,Indicator Code\n"+
			"Denmark,DNK,GDP,NY.GDP.MKTP.CD\n")

	_, err := NewWDI(paths).Extract(context.Background())
	assert.Error(t, err)
}

func TestWDIExtractMissingFile(t *testing.T) {
	_, err := NewWDI(testPaths(t)).Extract(context.Background())
	assert.Error(t, err)
}
