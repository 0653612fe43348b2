package domain

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// ReportEvent records one pollutant selection for downstream consumers.
type ReportEvent struct {
	ID             string          `json:"id"`
	Pollutant      string          `json:"pollutant"`
	Records        int             `json:"records"`
	Coordinates    int             `json:"coordinates"`
	TotalEmissions float64         `json:"total_emissions_tons"`
	Summary        CategorySummary `json:"summary"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// NewReportEvent summarizes a report into an event stamped with the package
// clock.
func NewReportEvent(r Report) ReportEvent {
	values := make([]float64, 0, len(r.Summary.Slices))
	for _, s := range r.Summary.Slices {
		values = append(values, s.Value)
	}
	return ReportEvent{
		ID:             uuid.NewString(),
		Pollutant:      r.Pollutant,
		Records:        len(r.Markers),
		Coordinates:    len(r.Density),
		TotalEmissions: Round(floats.Sum(values), 3),
		Summary:        r.Summary,
		GeneratedAt:    clock.Now().UTC(),
	}
}
