package domain

import (
	"time"
)

// Source organizations in the nexus vocabulary
const (
	SourceISORA     = "ISORA"
	SourceWorldBank = "World Bank"
	SourceGFI       = "GFI"
	SourceUSAID     = "USAID"
	SourceTJN       = "TJN"
	SourceUNODC     = "UNODC"
)

// Observation is the raw long-format row produced by every extractor,
// before cleaning. Value holds the original cell text and may still be a
// coded-missing sentinel; Year holds the raw year label and is coerced
// downstream.
type Observation struct {
	Country        string `json:"country"`
	Year           string `json:"year"`
	Value          string `json:"value"`
	IndicatorCode  string `json:"indicator_code"`
	IndicatorLabel string `json:"indicator_label"`
	Source         string `json:"source"`
	Database       string `json:"database"`
	Collection     string `json:"collection"`
}

// Record is a cleaned nexus row. Exactly one of Value and ValueMeta is
// non-nil: Value carries the parsed measurement, ValueMeta preserves the
// original text of a coded-missing cell.
type Record struct {
	Country        string   `json:"country"`
	Year           int      `json:"year"`
	Value          *float64 `json:"value"`
	ValueMeta      *string  `json:"value_meta"`
	IndicatorCode  string   `json:"indicator_code"`
	IndicatorLabel string   `json:"indicator_label"`
	Source         string   `json:"source"`
	Database       string   `json:"database"`
	Collection     string   `json:"collection"`
}

// EnrichedRecord is a cleaned record joined with country classification
// attributes. Classification holds the classifier CSV's columns keyed by
// snake_cased header; nil when the ISO3 code had no classifier row.
type EnrichedRecord struct {
	Record
	Classification map[string]string `json:"classification,omitempty"`
}

// SourceResult captures the outcome of running one source extractor.
// Either Observations is populated or Err records why the source was
// excluded from the union.
type SourceResult struct {
	SourceID  string        `json:"source_id"`
	Name      string        `json:"name"`
	Rows      int           `json:"rows"`
	Err       error         `json:"-"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`

	Observations []Observation `json:"-"`
}

// Failed reports whether the source extraction was excluded from the union.
func (r *SourceResult) Failed() bool {
	return r.Err != nil
}
