package domain

import (
	"fmt"
	"html"
	"strconv"
)

// DensitySample is a weighted point for heat-map rendering.
type DensitySample struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

// Marker is one facility record placed on the map with its popup text.
type Marker struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Emissions float64 `json:"emissions_tons"`
	Label     string  `json:"label"`
}

// CategorySummary is the payload for a proportional (pie) chart.
type CategorySummary struct {
	Title  string              `json:"title"`
	Slices []CategoryAggregate `json:"slices"`
}

// Report is everything the presentation layer needs for one pollutant.
type Report struct {
	Pollutant string          `json:"pollutant"`
	Density   []DensitySample `json:"density"`
	Markers   []Marker        `json:"markers"`
	Summary   CategorySummary `json:"summary"`
}

// SummaryTitle returns the chart title for a pollutant.
func SummaryTitle(pollutant string) string {
	return fmt.Sprintf("Total Emissions of %s by Facility Type (Grouping < 10%% into %q)", pollutant, OtherLabel)
}

// BuildReport turns aggregates and the pollutant's records into a Report.
// A pollutant with no records yields empty density, markers and slices.
func BuildReport(pollutant string, coords []CoordinateAggregate, categories []CategoryAggregate, records []FacilityRecord) Report {
	density := make([]DensitySample, 0, len(coords))
	for _, c := range coords {
		density = append(density, DensitySample{Lat: c.Lat, Lon: c.Lon, Weight: c.Emissions})
	}

	markers := make([]Marker, 0, len(records))
	for _, r := range records {
		markers = append(markers, Marker{
			Lat:       r.Lat,
			Lon:       r.Lon,
			Emissions: r.Emissions,
			Label:     FormatLabel(r),
		})
	}

	slicesOut := make([]CategoryAggregate, 0, len(categories))
	if len(records) > 0 {
		slicesOut = append(slicesOut, categories...)
	}

	return Report{
		Pollutant: pollutant,
		Density:   density,
		Markers:   markers,
		Summary: CategorySummary{
			Title:  SummaryTitle(pollutant),
			Slices: slicesOut,
		},
	}
}

// SelectPollutant aggregates and builds the report for one pollutant. Unknown
// pollutants produce an empty report.
func SelectPollutant(ds *PollutantDataset, pollutant string) Report {
	records := ds.Records(pollutant)
	return BuildReport(pollutant, AggregateByCoordinate(records), AggregateByFacilityType(records), records)
}

// FormatLabel renders the marker popup and tooltip block for a record.
// Field values are HTML-escaped.
func FormatLabel(r FacilityRecord) string {
	return fmt.Sprintf("<div style='width: 300px;'>"+
		"<b>Facility:</b> %s<br>"+
		"<b>State-County:</b> %s<br>"+
		"<b>EPA Region:</b> %s<br>"+
		"<b>Pollutant Type:</b> %s<br>"+
		"<b>Emissions:</b> %s Tons</div>",
		html.EscapeString(r.FacilityName),
		html.EscapeString(r.StateCounty),
		html.EscapeString(r.EPARegion),
		html.EscapeString(r.PollutantType),
		strconv.FormatFloat(r.Emissions, 'f', -1, 64),
	)
}
