// Command report loads an emissions data file and writes the dashboard
// report for one or all pollutants as JSON. It runs the same loader,
// aggregation, and report code the service uses, so its output doubles as
// a fixture for front-end and API tests.
//
// Usage:
//
//	go run ./cmd/report \
//	  -data data/2020_NEI_LACounty_Facilities.xlsx \
//	  -pollutant "Carbon Monoxide" \
//	  -out out/carbon_monoxide.json \
//	  -chart out/carbon_monoxide.png
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/emissions-dashboard/internal/adapter/chart"
	"github.com/couchcryptid/emissions-dashboard/internal/adapter/spreadsheet"
	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataFile := flag.String("data", "", "path to the .xlsx/.xlsm/.csv facility file")
	sheet := flag.String("sheet", "", "worksheet name (default: first sheet)")
	pollutant := flag.String("pollutant", "", "pollutant to report (default: all)")
	out := flag.String("out", "", "output path for the report JSON")
	chartOut := flag.String("chart", "", "optional output path for a PNG summary chart (requires -pollutant)")
	events := flag.String("events", "", "optional output path for report events JSON")
	at := flag.String("at", "", "RFC 3339 timestamp stamped on events for reproducible output")
	flag.Parse()

	if *dataFile == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -data, -out")
	}
	if *chartOut != "" && *pollutant == "" {
		return fmt.Errorf("-chart requires -pollutant")
	}

	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	ds, err := spreadsheet.Load(*dataFile, spreadsheet.Options{Sheet: *sheet})
	if err != nil {
		return err
	}
	log.Printf("loaded %d records across %d pollutants", ds.Len(), len(ds.Pollutants()))

	names := ds.Pollutants()
	if *pollutant != "" {
		if !ds.Has(*pollutant) {
			return fmt.Errorf("unknown pollutant %q", *pollutant)
		}
		names = []string{*pollutant}
	}

	reports := make([]domain.Report, 0, len(names))
	for _, name := range names {
		reports = append(reports, domain.SelectPollutant(ds, name))
	}

	if len(reports) == 1 {
		err = writeJSON(*out, reports[0])
	} else {
		err = writeJSON(*out, reports)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Printf("wrote report: %s", *out)

	if *chartOut != "" {
		if err := writeChart(*chartOut, reports[0].Summary); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		log.Printf("wrote chart: %s", *chartOut)
	}

	if *events != "" {
		evts := make([]domain.ReportEvent, 0, len(reports))
		for _, r := range reports {
			evts = append(evts, domain.NewReportEvent(r))
		}
		if err := writeJSON(*events, evts); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		log.Printf("wrote events: %s", *events)
	}

	printStats(reports)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeChart(path string, summary domain.CategorySummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.RenderSummary(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type pollutantStats struct {
	name        string
	records     int
	coordinates int
	total       float64
	top         string
}

func collectStats(reports []domain.Report) []pollutantStats {
	stats := make([]pollutantStats, 0, len(reports))
	for _, r := range reports {
		s := pollutantStats{
			name:        r.Pollutant,
			records:     len(r.Markers),
			coordinates: len(r.Density),
		}
		var topValue float64
		for _, slice := range r.Summary.Slices {
			s.total += slice.Value
			if slice.Label != domain.OtherLabel && slice.Value > topValue {
				topValue = slice.Value
				s.top = slice.Label
			}
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].total > stats[j].total })
	return stats
}

func printStats(reports []domain.Report) {
	fmt.Println("\n=== Emissions by pollutant ===")
	for _, s := range collectStats(reports) {
		fmt.Printf("%-40s records=%-5d coordinates=%-5d total=%.3f tons top=%s\n",
			s.name, s.records, s.coordinates, domain.Round(s.total, 3), s.top)
	}
}
