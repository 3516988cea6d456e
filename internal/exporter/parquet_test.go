package exporter

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	paths := config.NewPaths(config.PathsConfig{
		BaseDir:      t.TempDir(),
		RawDir:       t.TempDir(),
		ProcessedDir: t.TempDir(),
	})
	return NewWriter(paths, 1, nil)
}

func TestBuildSchema(t *testing.T) {
	schema := buildSchema([]fieldSpec{
		{Name: "iso3", Type: "BYTE_ARRAY"},
		{Name: "year", Type: "INT64"},
		{Name: "value", Type: "DOUBLE"},
	})

	assert.Contains(t, schema, `"Tag":"name=parquet_go_root, repetitiontype=REQUIRED"`)
	assert.Contains(t, schema, "name=iso3, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL")
	assert.Contains(t, schema, "name=year, type=INT64, repetitiontype=OPTIONAL")
	assert.Contains(t, schema, "name=value, type=DOUBLE, repetitiontype=OPTIONAL")
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(""))
	assert.Equal(t, "x", nullableString("x"))
}

func TestWriteNexus(t *testing.T) {
	w := testWriter(t)

	v := 12.5
	meta := "N/A"
	records := []domain.EnrichedRecord{
		{
			Record: domain.Record{
				Country: "DNK", Year: 2018, Value: &v,
				IndicatorCode: "X.1", IndicatorLabel: "X",
				Source: "S", Database: "db", Collection: "coll",
			},
			Classification: map[string]string{"iso3": "DNK", "region": "Europe"},
		},
		{
			// classifier miss: the key column still fills from the record
			Record: domain.Record{
				Country: "XXX", Year: 2019, ValueMeta: &meta,
				IndicatorCode: "X.1", Source: "S", Database: "db", Collection: "coll",
			},
		},
	}

	err := w.WriteNexus(context.Background(), records, []string{"iso3", "region"}, "iso3")
	require.NoError(t, err)

	fr, err := local.NewLocalFileReader(w.paths.NexusParquet)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	assert.Equal(t, int64(2), pr.GetNumRows())
}

func TestWriteObservations(t *testing.T) {
	w := testWriter(t)

	obs := []domain.Observation{
		{Country: "DNK", Year: "2016", Value: "3", IndicatorCode: "PI-1",
			Source: "World Bank", Database: "WB-PEFA.xlsx", Collection: "PEFA"},
	}

	err := w.WriteObservations(context.Background(), "pefa", obs)
	require.NoError(t, err)

	info, err := os.Stat(w.paths.PefaParquet)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteNexusEmpty(t *testing.T) {
	w := testWriter(t)

	err := w.WriteNexus(context.Background(), nil, []string{"iso3"}, "iso3")
	require.NoError(t, err)

	_, err = os.Stat(w.paths.NexusParquet)
	assert.NoError(t, err)
}

func TestWriteRowsCancelledContext(t *testing.T) {
	w := testWriter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteNexus(ctx, nil, []string{"iso3"}, "iso3")
	assert.Error(t, err)
}

func TestRawTablePath(t *testing.T) {
	w := testWriter(t)

	assert.Equal(t, w.paths.PefaParquet, w.rawTablePath("pefa"))
	assert.Equal(t, w.paths.TaxWBParquet, w.rawTablePath("taxgap"))
	assert.Contains(t, w.rawTablePath("other"), "other.parquet")
}
