// Package nexus owns the shared tail of the pipeline: the union/clean
// step that turns raw observations into typed records, and the country
// classifier join that enriches them.
package nexus

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"nexusetl/pkg/contracts/domain"
)

// Coded-missing tokens recoded to null, matched case-sensitively against
// the trimmed, de-comma'd cell text. A non-numeric value outside this set
// is a hard error: it means the list has a gap, not that the row is bad.
var missingSentinels = map[string]bool{
	"D":   true,
	"N/A": true,
	"..":  true,
	"N/D": true,
	"-":   true,
	"":    true,
	"o":   true,
	"n":   true,
}

var yesNoRecodes = map[string]float64{
	"Yes": 1,
	"No":  0,
}

// UnparseableValueError reports a value that survived sentinel recoding
// but still fails numeric coercion. It aborts the run: the fix is adding
// the token to the sentinel list, never silently coercing.
type UnparseableValueError struct {
	Value      string
	Source     string
	Database   string
	Collection string
	Indicator  string
	Country    string
	Year       string
}

func (e *UnparseableValueError) Error() string {
	return fmt.Sprintf("unparseable value %q (source=%s database=%s collection=%s indicator=%s country=%s year=%s): unrecognized missing-value sentinel",
		e.Value, e.Source, e.Database, e.Collection, e.Indicator, e.Country, e.Year)
}

// Clean converts the unioned observations into typed records:
//
//  1. rows with no value at all are dropped,
//  2. the year label coerces to an integer,
//  3. value text is trimmed and de-comma'd, known missing sentinels
//     recode to null (keeping the sentinel text in ValueMeta) and Yes/No
//     recode to 1/0,
//  4. everything remaining must parse as a number or the run aborts.
//
// Every returned record has exactly one of Value and ValueMeta set.
func Clean(obs []domain.Observation, logger *slog.Logger) ([]domain.Record, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]domain.Record, 0, len(obs))
	dropped := 0
	recoded := 0

	for _, o := range obs {
		if o.Value == "" {
			dropped++
			continue
		}

		year, err := parseYear(o.Year)
		if err != nil {
			return nil, fmt.Errorf("year %q (source=%s collection=%s): %w", o.Year, o.Source, o.Collection, err)
		}

		rec := domain.Record{
			Country:        o.Country,
			Year:           year,
			IndicatorCode:  o.IndicatorCode,
			IndicatorLabel: o.IndicatorLabel,
			Source:         o.Source,
			Database:       o.Database,
			Collection:     o.Collection,
		}

		text := strings.ReplaceAll(strings.TrimSpace(o.Value), ",", "")
		switch {
		case missingSentinels[text]:
			// The sentinel text itself never parses as a number, so it
			// is preserved as provenance.
			meta := text
			rec.ValueMeta = &meta
			recoded++
		case text == "Yes" || text == "No":
			v := yesNoRecodes[text]
			rec.Value = &v
			recoded++
		default:
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &UnparseableValueError{
					Value:      text,
					Source:     o.Source,
					Database:   o.Database,
					Collection: o.Collection,
					Indicator:  o.IndicatorCode,
					Country:    o.Country,
					Year:       o.Year,
				}
			}
			rec.Value = &v
		}

		out = append(out, rec)
	}

	logger.Info("cleaned nexus data",
		slog.Int("input_rows", len(obs)),
		slog.Int("output_rows", len(out)),
		slog.Int("dropped_empty", dropped),
		slog.Int("recoded", recoded))

	return out, nil
}

// parseYear coerces a raw year label to an integer, tolerating a
// spreadsheet float rendering like "2018.0"
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a numeric year")
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("fractional year")
	}
	return int(f), nil
}
