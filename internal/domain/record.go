package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canonical NEI header names.
const (
	ColumnPollutant     = "Pollutant"
	ColumnPollutantType = "Pollutant Type"
	ColumnFacilityName  = "SITE  NAME"
	ColumnFacilityType  = "Facility Type"
	ColumnStateCounty   = "State-County"
	ColumnEPARegion     = "EPA Region"
	ColumnLatitude      = "Latitude"
	ColumnLongitude     = "Longitude"
	ColumnEmissions     = "Emissions (Tons)"
)

// FacilityRecord is one emission observation for a facility and pollutant.
type FacilityRecord struct {
	FacilityName  string  `json:"facility_name"`
	Pollutant     string  `json:"pollutant"`
	PollutantType string  `json:"pollutant_type"`
	FacilityType  string  `json:"facility_type"`
	StateCounty   string  `json:"state_county"`
	EPARegion     string  `json:"epa_region"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Emissions     float64 `json:"emissions_tons"`
}

type field int

const (
	fieldPollutant field = iota
	fieldPollutantType
	fieldFacilityName
	fieldFacilityType
	fieldStateCounty
	fieldEPARegion
	fieldLatitude
	fieldLongitude
	fieldEmissions
	numFields
)

// requiredColumns lists the canonical header and accepted aliases per field,
// indexed by field.
var requiredColumns = [numFields][]string{
	fieldPollutant:     {ColumnPollutant},
	fieldPollutantType: {ColumnPollutantType},
	fieldFacilityName:  {ColumnFacilityName, "Site Name", "Facility Name"},
	fieldFacilityType:  {ColumnFacilityType},
	fieldStateCounty:   {ColumnStateCounty},
	fieldEPARegion:     {ColumnEPARegion},
	fieldLatitude:      {ColumnLatitude},
	fieldLongitude:     {ColumnLongitude},
	fieldEmissions:     {ColumnEmissions},
}

// ColumnIndex maps each required field to its position in a header row.
type ColumnIndex [numFields]int

// ResolveColumns locates every required column in header. The first missing
// column is reported as a *LoadError wrapping ErrMissingColumn.
func ResolveColumns(header []string) (ColumnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	var idx ColumnIndex
	for f := field(0); f < numFields; f++ {
		found := false
		for _, name := range requiredColumns[f] {
			if pos, ok := positions[normalizeHeader(name)]; ok {
				idx[f] = pos
				found = true
				break
			}
		}
		if !found {
			return ColumnIndex{}, &LoadError{Column: requiredColumns[f][0], Err: ErrMissingColumn}
		}
	}
	return idx, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// ParseRow converts one data row into a FacilityRecord. rowNum is the 1-based
// row in the source, used for error reporting. The boolean result is false
// for blank rows, which callers skip.
func ParseRow(idx ColumnIndex, row []string, rowNum int) (FacilityRecord, bool, error) {
	if isBlankRow(row) {
		return FacilityRecord{}, false, nil
	}

	cell := func(f field) string {
		i := idx[f]
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	lat, err := parseNumber(cell(fieldLatitude))
	if err != nil {
		return FacilityRecord{}, false, &LoadError{Column: ColumnLatitude, Row: rowNum, Err: err}
	}
	lon, err := parseNumber(cell(fieldLongitude))
	if err != nil {
		return FacilityRecord{}, false, &LoadError{Column: ColumnLongitude, Row: rowNum, Err: err}
	}
	emissions, err := parseNumber(cell(fieldEmissions))
	if err != nil {
		return FacilityRecord{}, false, &LoadError{Column: ColumnEmissions, Row: rowNum, Err: err}
	}

	return FacilityRecord{
		FacilityName:  cell(fieldFacilityName),
		Pollutant:     cell(fieldPollutant),
		PollutantType: cell(fieldPollutantType),
		FacilityType:  cell(fieldFacilityType),
		StateCounty:   cell(fieldStateCounty),
		EPARegion:     cell(fieldEPARegion),
		Lat:           lat,
		Lon:           lon,
		Emissions:     Round(emissions, 3),
	}, true, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber parses a numeric cell, tolerating thousands separators.
// Empty, NaN and infinite values are rejected.
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidValue)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return v, nil
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
