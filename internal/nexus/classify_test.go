package nexus

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusetl/internal/shared/testutil"
	"nexusetl/pkg/contracts/domain"
)

func writeClassifiers(t *testing.T, csv string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifiers.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))
	return path
}

func TestLoadClassifiers(t *testing.T) {
	path := writeClassifiers(t,
		"ISO3,Country Name,Income Group\n"+
			"DNK,Denmark,High income\n"+
			"KEN,Kenya,Lower middle income\n"+
			",Nameless,ignored\n")

	c, err := LoadClassifiers(path, "iso3")
	require.NoError(t, err)

	// headers snake_case on load; the keyless row is skipped
	assert.Equal(t, []string{"iso3", "country_name", "income_group"}, c.Columns())
	assert.Equal(t, "iso3", c.KeyColumn())
	assert.Len(t, c.rows, 2)
	assert.Equal(t, "High income", c.rows["DNK"]["income_group"])
}

func TestLoadClassifiersMissingKeyColumn(t *testing.T) {
	path := writeClassifiers(t, "Country Name,Income Group\nDenmark,High income\n")

	_, err := LoadClassifiers(path, "iso3")
	assert.Error(t, err)
}

func TestLoadClassifiersMissingFile(t *testing.T) {
	_, err := LoadClassifiers(filepath.Join(t.TempDir(), "nope.csv"), "iso3")
	assert.Error(t, err)
}

func TestClassifierJoin(t *testing.T) {
	path := writeClassifiers(t, "ISO3,Region\nDNK,Europe\n")
	c, err := LoadClassifiers(path, "iso3")
	require.NoError(t, err)

	v := 1.5
	records := []domain.Record{
		{Country: "DNK", Year: 2018, Value: &v},
		{Country: "XXX", Year: 2018, Value: &v},
		{Country: "", Year: 2018, Value: &v},
	}

	handler := testutil.NewBufferedSlogHandler(t)
	enriched := c.Join(records, slog.New(handler))

	// the join is a left join: every input record survives
	require.Len(t, enriched, len(records))
	require.NotNil(t, enriched[0].Classification)
	assert.Equal(t, "Europe", enriched[0].Classification["region"])
	assert.Nil(t, enriched[1].Classification)
	assert.Nil(t, enriched[2].Classification)

	assert.True(t, handler.HasMessage("country classification match"))
	for _, r := range handler.Records() {
		if r.Message == "country classification match" {
			assert.Equal(t, int64(1), r.Attrs["matched"])
			assert.Equal(t, int64(3), r.Attrs["total"])
		}
	}
}

func TestClassifierJoinEmptyInput(t *testing.T) {
	path := writeClassifiers(t, "ISO3,Region\nDNK,Europe\n")
	c, err := LoadClassifiers(path, "iso3")
	require.NoError(t, err)

	enriched := c.Join(nil, nil)
	assert.Empty(t, enriched)
}
