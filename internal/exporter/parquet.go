// Package exporter persists pipeline outputs as Parquet. Artifacts are
// written once per run and overwritten on rerun; there is no append or
// versioning.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"nexusetl/internal/config"
	"nexusetl/pkg/contracts/domain"
)

// Canonical output columns of the merged nexus table, after the
// classifier columns
var nexusColumns = []string{
	"source", "database", "collection",
	"indicator_code", "indicator_label",
	"year", "value", "value_meta",
}

// Writer writes the pipeline's Parquet artifacts
type Writer struct {
	paths       *config.Paths
	parallelism int64
	logger      *slog.Logger
}

// NewWriter creates a Parquet writer rooted at the processed-data paths
func NewWriter(paths *config.Paths, parallelism int64, logger *slog.Logger) *Writer {
	if parallelism <= 0 {
		parallelism = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{paths: paths, parallelism: parallelism, logger: logger}
}

// WriteNexus writes the merged, enriched nexus table. classifierColumns
// lists the classification columns in file order; they lead the schema,
// followed by the canonical record columns. keyColumn names the ISO3 join
// key among them; it is filled from the record even on classifier misses.
func (w *Writer) WriteNexus(ctx context.Context, records []domain.EnrichedRecord, classifierColumns []string, keyColumn string) error {
	columns := make([]fieldSpec, 0, len(classifierColumns)+len(nexusColumns))
	for _, col := range classifierColumns {
		columns = append(columns, fieldSpec{Name: col, Type: "BYTE_ARRAY"})
	}
	columns = append(columns,
		fieldSpec{Name: "source", Type: "BYTE_ARRAY"},
		fieldSpec{Name: "database", Type: "BYTE_ARRAY"},
		fieldSpec{Name: "collection", Type: "BYTE_ARRAY"},
		fieldSpec{Name: "indicator_code", Type: "BYTE_ARRAY"},
		fieldSpec{Name: "indicator_label", Type: "BYTE_ARRAY"},
		fieldSpec{Name: "year", Type: "INT64"},
		fieldSpec{Name: "value", Type: "DOUBLE"},
		fieldSpec{Name: "value_meta", Type: "BYTE_ARRAY"},
	)

	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make(map[string]any, len(columns))
		for _, col := range classifierColumns {
			if rec.Classification != nil {
				if v, ok := rec.Classification[col]; ok {
					row[col] = v
					continue
				}
			}
			row[col] = nil
		}
		// The join key survives even without a classifier match
		row[keyColumn] = nullableString(rec.Country)
		row["source"] = rec.Source
		row["database"] = rec.Database
		row["collection"] = rec.Collection
		row["indicator_code"] = rec.IndicatorCode
		row["indicator_label"] = nullableString(rec.IndicatorLabel)
		row["year"] = int64(rec.Year)
		if rec.Value != nil {
			row["value"] = *rec.Value
		} else {
			row["value"] = nil
		}
		if rec.ValueMeta != nil {
			row["value_meta"] = *rec.ValueMeta
		} else {
			row["value_meta"] = nil
		}
		rows[i] = row
	}

	return w.writeRows(ctx, w.paths.NexusParquet, columns, rows)
}

// WriteObservations writes one raw per-source table
func (w *Writer) WriteObservations(ctx context.Context, name string, obs []domain.Observation) error {
	columns := []fieldSpec{
		{Name: "country", Type: "BYTE_ARRAY"},
		{Name: "year", Type: "BYTE_ARRAY"},
		{Name: "value", Type: "BYTE_ARRAY"},
		{Name: "indicator_code", Type: "BYTE_ARRAY"},
		{Name: "indicator_label", Type: "BYTE_ARRAY"},
		{Name: "source", Type: "BYTE_ARRAY"},
		{Name: "database", Type: "BYTE_ARRAY"},
		{Name: "collection", Type: "BYTE_ARRAY"},
	}

	rows := make([]map[string]any, len(obs))
	for i, o := range obs {
		rows[i] = map[string]any{
			"country":         nullableString(o.Country),
			"year":            o.Year,
			"value":           nullableString(o.Value),
			"indicator_code":  o.IndicatorCode,
			"indicator_label": nullableString(o.IndicatorLabel),
			"source":          o.Source,
			"database":        o.Database,
			"collection":      o.Collection,
		}
	}

	return w.writeRows(ctx, w.rawTablePath(name), columns, rows)
}

func (w *Writer) rawTablePath(name string) string {
	switch name {
	case "pefa":
		return w.paths.PefaParquet
	case "taxgap":
		return w.paths.TaxWBParquet
	default:
		return w.paths.ProcessedDir + "/" + name + ".parquet"
	}
}

// fieldSpec names one output column and its parquet physical type
type fieldSpec struct {
	Name string
	Type string
}

// writeRows streams the rows into a SNAPPY-compressed Parquet file using
// the JSON writer with a schema built from the column specs
func (w *Writer) writeRows(ctx context.Context, path string, columns []fieldSpec, rows []map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	pw, err := writer.NewJSONWriter(buildSchema(columns), fw, w.parallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return fmt.Errorf("failed to write row to %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	w.logger.Info("wrote parquet artifact",
		slog.String("path", path),
		slog.Int("rows", len(rows)),
		slog.Int("cols", len(columns)))
	return nil
}

// buildSchema renders the parquet-go JSON schema for the column specs.
// Every column is OPTIONAL; strings carry the UTF8 converted type.
func buildSchema(columns []fieldSpec) string {
	fields := make([]map[string]string, 0, len(columns))
	for _, c := range columns {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", c.Name, c.Type)
		if c.Type == "BYTE_ARRAY" {
			tag = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c.Name)
		}
		fields = append(fields, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
