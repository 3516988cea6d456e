package nexus

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"nexusetl/internal/extract"
	"nexusetl/pkg/contracts/domain"
)

// Classifier is the read-only country classification reference table,
// keyed by ISO3 code. Columns beyond the key (region, income group, ...)
// are carried through as-is under snake_cased names.
type Classifier struct {
	keyColumn string
	columns   []string
	rows      map[string]map[string]string
}

// LoadClassifiers reads the classification CSV. keyColumn names the join
// key column as published (matched after snake_casing, e.g. "iso3").
func LoadClassifiers(path, keyColumn string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open classifiers file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read classifiers file: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("classifiers file %s is empty", path)
	}

	header := make([]string, len(records[0]))
	keyIdx := -1
	for i, h := range records[0] {
		header[i] = extract.SnakeCase(h)
		if header[i] == keyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("classifiers file has no %q column", keyColumn)
	}

	rows := make(map[string]map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		if keyIdx >= len(rec) || rec[keyIdx] == "" {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows[rec[keyIdx]] = row
	}

	return &Classifier{keyColumn: keyColumn, columns: header, rows: rows}, nil
}

// Columns returns the snake_cased classifier column names in file order
func (c *Classifier) Columns() []string {
	return c.columns
}

// KeyColumn returns the snake_cased name of the ISO3 join key column
func (c *Classifier) KeyColumn() string {
	return c.keyColumn
}

// Join left-joins cleaned records onto the classification table by ISO3.
// Every input record survives; records whose code has no classifier row
// keep a nil Classification. The match rate is reported as a statistic,
// not enforced.
func (c *Classifier) Join(records []domain.Record, logger *slog.Logger) []domain.EnrichedRecord {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]domain.EnrichedRecord, len(records))
	matches := 0
	for i, rec := range records {
		out[i] = domain.EnrichedRecord{Record: rec}
		if cls, ok := c.rows[rec.Country]; ok {
			out[i].Classification = cls
			matches++
		}
	}

	pct := 0.0
	if len(records) > 0 {
		pct = float64(matches) / float64(len(records)) * 100
	}
	logger.Info("country classification match",
		slog.Int("matched", matches),
		slog.Int("total", len(records)),
		slog.String("pct", fmt.Sprintf("%.1f%%", pct)))

	return out
}
