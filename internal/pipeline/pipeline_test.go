package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusetl/internal/config"
	"nexusetl/internal/exporter"
	"nexusetl/internal/extract"
	"nexusetl/internal/nexus"
	"nexusetl/pkg/contracts/domain"
)

func testPipeline(t *testing.T, rawTables bool, sources ...*fakeSource) (*Pipeline, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(config.PathsConfig{
		BaseDir:      t.TempDir(),
		RawDir:       t.TempDir(),
		ProcessedDir: t.TempDir(),
	})

	clsPath := filepath.Join(paths.RawDir, "classifiers.csv")
	require.NoError(t, os.WriteFile(clsPath, []byte("ISO3,Region\nDNK,Europe\n"), 0644))
	classifier, err := nexus.LoadClassifiers(clsPath, "iso3")
	require.NoError(t, err)

	extractors := make([]extract.Extractor, len(sources))
	for i, s := range sources {
		extractors[i] = s
	}
	manager := NewManager(nil, nil, extractors...)

	writer := exporter.NewWriter(paths, 1, nil)
	return New(manager, classifier, writer, nil, nil, rawTables), paths
}

func TestPipelineExecute(t *testing.T) {
	p, paths := testPipeline(t, false,
		&fakeSource{id: "a", obs: []domain.Observation{
			{Country: "DNK", Year: "2018", Value: "1.5", IndicatorCode: "X.1", Source: "S", Database: "db", Collection: "c"},
			{Country: "DNK", Year: "2019", Value: "N/A", IndicatorCode: "X.1", Source: "S", Database: "db", Collection: "c"},
		}},
	)

	require.NoError(t, p.Execute(context.Background()))

	info, err := os.Stat(paths.NexusParquet)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPipelineExecuteToleratesSourceFailure(t *testing.T) {
	p, paths := testPipeline(t, false,
		&fakeSource{id: "bad", err: errors.New("corrupt workbook")},
		&fakeSource{id: "good", obs: []domain.Observation{
			{Country: "DNK", Year: "2018", Value: "1", IndicatorCode: "X.1", Source: "S", Database: "db", Collection: "c"},
		}},
	)

	require.NoError(t, p.Execute(context.Background()))
	assert.FileExists(t, paths.NexusParquet)
}

func TestPipelineExecuteAllSourcesFailed(t *testing.T) {
	p, paths := testPipeline(t, false,
		&fakeSource{id: "bad1", err: errors.New("boom")},
		&fakeSource{id: "bad2", err: errors.New("boom")},
	)

	err := p.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 sources failed")
	assert.NoFileExists(t, paths.NexusParquet)
}

func TestPipelineExecuteAbortsOnUnparseableValue(t *testing.T) {
	p, paths := testPipeline(t, false,
		&fakeSource{id: "a", obs: []domain.Observation{
			{Country: "DNK", Year: "2018", Value: "not-a-number", IndicatorCode: "X.1", Source: "S", Database: "db", Collection: "c"},
		}},
	)

	err := p.Execute(context.Background())
	require.Error(t, err)

	var uve *nexus.UnparseableValueError
	assert.ErrorAs(t, err, &uve)
	assert.NoFileExists(t, paths.NexusParquet)
}

func TestPipelineExecuteRawTables(t *testing.T) {
	p, paths := testPipeline(t, true,
		&fakeSource{id: "pefa", obs: []domain.Observation{
			{Country: "DNK", Year: "2016", Value: "3", IndicatorCode: "PI-1", Source: "World Bank", Database: "WB-PEFA.xlsx", Collection: "PEFA"},
		}},
		&fakeSource{id: "taxgap", obs: []domain.Observation{
			{Country: "DNK", Year: "2015", Value: "12.5", IndicatorCode: "WB.TG.1", Source: "World Bank", Database: "db", Collection: "TAXGAP"},
		}},
	)

	require.NoError(t, p.Execute(context.Background()))
	assert.FileExists(t, paths.PefaParquet)
	assert.FileExists(t, paths.TaxWBParquet)
	assert.FileExists(t, paths.NexusParquet)
}

func TestPipelineExecuteSkipsRawTablesByDefault(t *testing.T) {
	p, paths := testPipeline(t, false,
		&fakeSource{id: "pefa", obs: []domain.Observation{
			{Country: "DNK", Year: "2016", Value: "3", IndicatorCode: "PI-1", Source: "World Bank", Database: "WB-PEFA.xlsx", Collection: "PEFA"},
		}},
	)

	require.NoError(t, p.Execute(context.Background()))
	assert.NoFileExists(t, paths.PefaParquet)
	assert.FileExists(t, paths.NexusParquet)
}
