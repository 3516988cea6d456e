// Package extract turns the raw source files into long-format nexus
// observations. Each source has its own physical layout (merged header
// blocks, metadata sheets, embedded-year column names, paired workbooks),
// so each extractor is a bespoke transform; they agree only on the
// Observation schema they emit.
//
// Extraction keeps cell text verbatim: coded-missing sentinels and
// thousands separators survive to the union/clean step, which owns the
// numeric coercion rules.
package extract
