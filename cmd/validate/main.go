// Command validate performs data integrity checks over a facility emissions
// file: load-time normalization, the pollutant partition, and the
// aggregation properties the dashboard relies on. With -boundary it also
// checks that every facility lies inside the boundary layer.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data/2020_NEI_LACounty_Facilities.xlsx \
//	  -boundary data/County_Boundary.geojson
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/emissions-dashboard/internal/adapter/boundary"
	"github.com/couchcryptid/emissions-dashboard/internal/adapter/spreadsheet"
	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"gonum.org/v1/gonum/floats"
)

const sumTolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataFile := flag.String("data", "", "path to the .xlsx/.xlsm/.csv facility file")
	sheet := flag.String("sheet", "", "worksheet name (default: first sheet)")
	boundaryFile := flag.String("boundary", "", "optional GeoJSON boundary every facility must fall inside")
	flag.Parse()

	if *dataFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataFile, *sheet, *boundaryFile); code != 0 {
		os.Exit(code)
	}
}

func run(dataFile, sheet, boundaryFile string) int {
	fmt.Println("=== Emissions Data Integrity Validation ===")
	fmt.Println()

	records, err := spreadsheet.LoadRecords(dataFile, spreadsheet.Options{Sheet: sheet})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load data: %v\n", err)
		return 1
	}
	ds := domain.NewPollutantDataset(records)

	phases := []*phase{
		validateRecords(records),
		validatePartition(records, ds),
		validateCategorySums(ds),
		validateCoordinateSums(ds),
		validateReports(ds),
	}

	if boundaryFile != "" {
		b, err := boundary.Load(boundaryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load boundary: %v\n", err)
			return 1
		}
		phases = append(phases, validateWithinBoundary(records, b))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d across %d pollutants\n", ds.Len(), len(ds.Pollutants()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateRecords(records []domain.FacilityRecord) *phase {
	p := &phase{name: "Record normalization"}
	for i, r := range records {
		if r.Pollutant == "" {
			p.errorf("record %d (%s): empty pollutant", i, r.FacilityName)
		}
		if r.FacilityType == "" {
			p.errorf("record %d (%s): empty facility type", i, r.FacilityName)
		}
		if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
			p.errorf("record %d (%s): coordinate out of range (%g, %g)", i, r.FacilityName, r.Lat, r.Lon)
		}
		if r.Emissions != domain.Round(r.Emissions, 3) {
			p.errorf("record %d (%s): emissions %g not rounded to 3 decimals", i, r.FacilityName, r.Emissions)
		}
	}
	return p
}

func validatePartition(records []domain.FacilityRecord, ds *domain.PollutantDataset) *phase {
	p := &phase{name: "Pollutant partition"}
	total := 0
	for _, name := range ds.Pollutants() {
		group := ds.Records(name)
		if len(group) == 0 {
			p.errorf("pollutant %q has no records", name)
		}
		for _, r := range group {
			if r.Pollutant != name {
				p.errorf("record %s filed under %q but has pollutant %q", r.FacilityName, name, r.Pollutant)
			}
		}
		total += len(group)
	}
	if total != len(records) {
		p.errorf("partition covers %d records, file has %d", total, len(records))
	}
	return p
}

func validateCategorySums(ds *domain.PollutantDataset) *phase {
	p := &phase{name: "Facility-type grouping"}
	for _, name := range ds.Pollutants() {
		records := ds.Records(name)
		total := emissionsTotal(records)
		cats := domain.AggregateByFacilityType(records)

		if len(cats) == 0 || cats[len(cats)-1].Label != domain.OtherLabel {
			p.errorf("%s: last category is not %q", name, domain.OtherLabel)
			continue
		}

		var sum, significant float64
		for _, c := range cats[:len(cats)-1] {
			sum += c.Value
			significant += c.Value
			if c.Value < domain.SignificanceShare*total {
				p.errorf("%s: %q holds %.4f of total, below the significance share", name, c.Label, c.Value/total)
			}
		}
		other := cats[len(cats)-1].Value
		sum += other

		if math.Abs(sum-total) > sumTolerance {
			p.errorf("%s: categories sum to %.6f, records sum to %.6f", name, sum, total)
		}
		if other < 0 {
			p.errorf("%s: negative %s value %g", name, domain.OtherLabel, other)
		}
		if math.Abs(other-(total-significant)) > sumTolerance {
			p.errorf("%s: %s is %.6f, want %.6f", name, domain.OtherLabel, other, total-significant)
		}
	}
	return p
}

func validateCoordinateSums(ds *domain.PollutantDataset) *phase {
	p := &phase{name: "Coordinate aggregation"}
	for _, name := range ds.Pollutants() {
		records := ds.Records(name)
		coords := domain.AggregateByCoordinate(records)

		distinct := make(map[[2]float64]struct{}, len(records))
		for _, r := range records {
			distinct[[2]float64{r.Lat, r.Lon}] = struct{}{}
		}
		if len(coords) != len(distinct) {
			p.errorf("%s: %d coordinate groups, %d distinct coordinates", name, len(coords), len(distinct))
		}

		var sum float64
		for _, c := range coords {
			sum += c.Emissions
		}
		// Each group is rounded to 2 decimals, so allow half a cent per group.
		tolerance := 0.005*float64(len(coords)) + sumTolerance
		if total := emissionsTotal(records); math.Abs(sum-total) > tolerance {
			p.errorf("%s: coordinate groups sum to %.3f, records sum to %.3f", name, sum, total)
		}
	}
	return p
}

func validateReports(ds *domain.PollutantDataset) *phase {
	p := &phase{name: "Report shape"}
	for _, name := range ds.Pollutants() {
		r := domain.SelectPollutant(ds, name)
		if len(r.Markers) != len(ds.Records(name)) {
			p.errorf("%s: %d markers for %d records", name, len(r.Markers), len(ds.Records(name)))
		}
		if r.Summary.Title != domain.SummaryTitle(name) {
			p.errorf("%s: unexpected summary title %q", name, r.Summary.Title)
		}
		for _, m := range r.Markers {
			if !strings.HasSuffix(m.Label, " Tons</div>") {
				p.errorf("%s: malformed label %q", name, m.Label)
				break
			}
		}
	}
	return p
}

func validateWithinBoundary(records []domain.FacilityRecord, b *boundary.Boundary) *phase {
	p := &phase{name: "Facilities within boundary"}
	for _, r := range records {
		if !b.Contains(r.Lat, r.Lon) {
			p.errorf("%s (%s) at (%g, %g) is outside the boundary", r.FacilityName, r.Pollutant, r.Lat, r.Lon)
		}
	}
	return p
}

func emissionsTotal(records []domain.FacilityRecord) float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Emissions
	}
	return floats.Sum(values)
}
