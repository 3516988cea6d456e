package extract

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"nexusetl/internal/config"
	"nexusetl/internal/country"
	"nexusetl/pkg/contracts/domain"
)

// UNODC extracts the drug-market monetary-loss estimate by joining the
// price and seizure workbooks on (country, drug, year). The join is inner
// on purpose: revenue can only be estimated where both a price and a
// seizure exist for the same country, drug and year. Gram-denominated
// prices normalize to per-kilogram before the product.
type UNODC struct {
	paths    *config.Paths
	resolver *country.Resolver
}

// NewUNODC creates the drug-market extractor
func NewUNODC(paths *config.Paths, resolver *country.Resolver) *UNODC {
	return &UNODC{paths: paths, resolver: resolver}
}

// ID implements Extractor
func (e *UNODC) ID() string { return "unodc" }

// Name implements Extractor
func (e *UNODC) Name() string { return "UNODC drug prices and seizures" }

const (
	unodcPricesSheet   = "Prices in USD"
	unodcSeizuresSheet = "Export"
	unodcCollection    = "Drug prices & seizures"
	unodcSkipRows      = 1

	unodcIndicatorCode  = "UNODC.DPS.losses"
	unodcIndicatorLabel = "Monetary losses (in USD) to drug sales. Amount of drugs seized in kilograms multiplied by the drug price in kilograms. Excludes all seizures not measured in grams or kilograms."
)

// seizureKey joins the two workbooks: price (Country/Territory, Drug,
// Year) against seizure (Country, DrugName, Reference year)
type seizureKey struct {
	Country string
	Drug    string
	Year    string
}

// countryYear keys the post-join aggregation across drug types
type countryYear struct {
	Country string
	Year    string
}

// Extract implements Extractor
func (e *UNODC) Extract(ctx context.Context) ([]domain.Observation, error) {
	seized, err := e.readSeizures()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	totals, err := e.joinPrices(seized)
	if err != nil {
		return nil, err
	}

	// Deterministic output order for the aggregated rows
	keys := make([]countryYear, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Country != keys[j].Country {
			return keys[i].Country < keys[j].Country
		}
		return keys[i].Year < keys[j].Year
	})

	out := make([]domain.Observation, 0, len(keys))
	for _, k := range keys {
		iso3, err := e.resolver.Resolve(k.Country)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Observation{
			Country:        iso3,
			Year:           k.Year,
			Value:          strconv.FormatFloat(totals[k], 'f', -1, 64),
			IndicatorCode:  unodcIndicatorCode,
			IndicatorLabel: unodcIndicatorLabel,
			Source:         domain.SourceUNODC,
			Database:       unodcCollection,
			Collection:     unodcCollection,
		})
	}

	return out, nil
}

// readSeizures sums seized kilograms per (country, drug, year)
func (e *UNODC) readSeizures() (map[seizureKey]float64, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.SeizuresFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.SeizuresFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(unodcSeizuresSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", unodcSeizuresSheet, err)
	}
	if len(rows) <= unodcSkipRows+1 {
		return nil, fmt.Errorf("sheet %q has no data rows", unodcSeizuresSheet)
	}

	header := rows[unodcSkipRows]
	countryCol := headerIndex(header, "Country")
	drugCol := headerIndex(header, "DrugName")
	yearCol := headerIndex(header, "Reference year")
	kgCol := headerIndex(header, "Kilograms")
	if countryCol < 0 || drugCol < 0 || yearCol < 0 || kgCol < 0 {
		return nil, fmt.Errorf("sheet %q missing expected columns", unodcSeizuresSheet)
	}

	seized := make(map[seizureKey]float64)
	for _, row := range rows[unodcSkipRows+1:] {
		kg, ok := parseNumeric(cellAt(row, kgCol))
		if !ok {
			continue
		}
		key := seizureKey{
			Country: cellAt(row, countryCol),
			Drug:    cellAt(row, drugCol),
			Year:    cellAt(row, yearCol),
		}
		seized[key] += kg
	}
	return seized, nil
}

// joinPrices walks the price table and accumulates kilograms × per-kg
// price into one total per (country, year). Price rows without a matching
// seizure, and seizures without a price, contribute nothing.
func (e *UNODC) joinPrices(seized map[seizureKey]float64) (map[countryYear]float64, error) {
	f, err := excelize.OpenFile(e.paths.RawFile(config.PricesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", config.PricesFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(unodcPricesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", unodcPricesSheet, err)
	}
	if len(rows) <= unodcSkipRows+1 {
		return nil, fmt.Errorf("sheet %q has no data rows", unodcPricesSheet)
	}

	header := rows[unodcSkipRows]
	countryCol := headerIndex(header, "Country/Territory")
	drugCol := headerIndex(header, "Drug")
	yearCol := headerIndex(header, "Year")
	unitCol := headerIndex(header, "Unit")
	priceCol := headerIndex(header, "Typical_USD")
	if countryCol < 0 || drugCol < 0 || yearCol < 0 || unitCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("sheet %q missing expected columns", unodcPricesSheet)
	}

	totals := make(map[countryYear]float64)
	for _, row := range rows[unodcSkipRows+1:] {
		price, ok := parseNumeric(cellAt(row, priceCol))
		if !ok {
			continue
		}
		price = NormalizePrice(price, cellAt(row, unitCol))

		key := seizureKey{
			Country: cellAt(row, countryCol),
			Drug:    cellAt(row, drugCol),
			Year:    cellAt(row, yearCol),
		}
		kg, ok := seized[key]
		if !ok {
			continue
		}
		totals[countryYear{Country: key.Country, Year: key.Year}] += kg * price
	}
	return totals, nil
}

// NormalizePrice converts a unit price to per-kilogram: gram-denominated
// prices multiply by 1000, anything else is already per-kilogram.
func NormalizePrice(price float64, unit string) float64 {
	if unit == "Grams" {
		return price * 1000
	}
	return price
}
