package domain

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// OtherLabel is the synthetic category holding every facility type below the
// significance threshold.
const OtherLabel = "Other"

// SignificanceShare is the fraction of a pollutant's total emissions a
// facility type needs to get its own category.
const SignificanceShare = 0.1

// otherEpsilon absorbs float residue when every group is significant.
const otherEpsilon = 1e-9

// CoordinateAggregate is the summed emissions at one exact coordinate.
type CoordinateAggregate struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Emissions float64 `json:"emissions_tons"`
}

// CategoryAggregate is the summed emissions of one facility type, or of the
// synthetic Other bucket.
type CategoryAggregate struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type coordinate struct {
	lat, lon float64
}

// AggregateByCoordinate sums emissions per exact (lat, lon) pair and rounds
// each sum to 2 decimals. Output is sorted by latitude, then longitude.
func AggregateByCoordinate(records []FacilityRecord) []CoordinateAggregate {
	sums := make(map[coordinate]float64)
	for _, r := range records {
		sums[coordinate{r.Lat, r.Lon}] += r.Emissions
	}

	out := make([]CoordinateAggregate, 0, len(sums))
	for c, sum := range sums {
		out = append(out, CoordinateAggregate{Lat: c.lat, Lon: c.lon, Emissions: Round(sum, 2)})
	}
	slices.SortFunc(out, func(a, b CoordinateAggregate) int {
		if c := cmp.Compare(a.Lat, b.Lat); c != 0 {
			return c
		}
		return cmp.Compare(a.Lon, b.Lon)
	})
	return out
}

// AggregateByFacilityType sums emissions per facility type, keeps every type
// whose sum is at least SignificanceShare of the total, and appends one Other
// bucket holding the remainder. Significant types are ordered by label.
//
// Other is emitted for any non-empty input, with value 0 when nothing was
// folded into it. A facility type literally labelled Other is always folded
// into the bucket so the label appears once. An empty input yields an empty
// result. Sums run in label order, so identical input gives bit-identical
// output.
func AggregateByFacilityType(records []FacilityRecord) []CategoryAggregate {
	if len(records) == 0 {
		return []CategoryAggregate{}
	}

	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.FacilityType] += r.Emissions
	}

	groups := make([]CategoryAggregate, 0, len(sums))
	for label, sum := range sums {
		groups = append(groups, CategoryAggregate{Label: label, Value: sum})
	}
	slices.SortFunc(groups, func(a, b CategoryAggregate) int { return cmp.Compare(a.Label, b.Label) })

	values := make([]float64, len(groups))
	for i, g := range groups {
		values[i] = g.Value
	}

	total := floats.Sum(values)
	threshold := SignificanceShare * total

	out := make([]CategoryAggregate, 0, len(groups)+1)
	significant := make([]float64, 0, len(groups))
	for _, g := range groups {
		if g.Label != OtherLabel && g.Value >= threshold {
			out = append(out, g)
			significant = append(significant, g.Value)
		}
	}

	other := total - floats.Sum(significant)
	if total == 0 || math.Abs(other) < otherEpsilon {
		other = 0
	}
	return append(out, CategoryAggregate{Label: OtherLabel, Value: other})
}
