package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"nexusetl/pkg/contracts/domain"
)

// Extractor is the shared contract of all source extractors: one or more
// raw files in, long-format observations out.
type Extractor interface {
	// ID returns the short stable identifier of this source
	ID() string

	// Name returns the human-readable source description
	Name() string

	// Extract reads the raw file(s) and reshapes them into observations
	Extract(ctx context.Context) ([]domain.Observation, error)
}

var snakeNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)
var snakeCamel = regexp.MustCompile(`([a-z0-9])([A-Z])`)
var snakeRuns = regexp.MustCompile(`_+`)

// SnakeCase converts a column header to snake_case
func SnakeCase(text string) string {
	s := snakeNonAlnum.ReplaceAllString(text, "_")
	s = snakeCamel.ReplaceAllString(s, "${1}_${2}")
	s = snakeRuns.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}

// cellAt returns the trimmed-length-safe cell at 0-indexed column c of a
// possibly ragged row
func cellAt(row []string, c int) string {
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// headerIndex returns the index of the column whose header matches name
// exactly, or -1
func headerIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// parseNumeric parses a cell the way the clean step will: trimmed, with
// thousands-separator commas removed
func parseNumeric(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
