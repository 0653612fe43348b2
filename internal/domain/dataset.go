package domain

import (
	"slices"
	"time"
)

// PollutantDataset partitions facility records by pollutant. It is built once
// at load time and never mutated afterwards, so it can be shared across
// goroutines without copying or locking.
type PollutantDataset struct {
	names    []string
	records  map[string][]FacilityRecord
	size     int
	loadedAt time.Time
}

// NewPollutantDataset groups records by pollutant. Pollutants are listed in
// ascending order; records keep their input order within each pollutant.
func NewPollutantDataset(records []FacilityRecord) *PollutantDataset {
	ds := &PollutantDataset{
		records:  make(map[string][]FacilityRecord),
		size:     len(records),
		loadedAt: clock.Now(),
	}
	for _, r := range records {
		if _, ok := ds.records[r.Pollutant]; !ok {
			ds.names = append(ds.names, r.Pollutant)
		}
		ds.records[r.Pollutant] = append(ds.records[r.Pollutant], r)
	}
	slices.Sort(ds.names)
	return ds
}

// Pollutants returns the pollutant names in ascending order.
func (ds *PollutantDataset) Pollutants() []string {
	return slices.Clone(ds.names)
}

// Records returns the records for a pollutant, or nil if it is unknown.
// The returned slice is shared and must not be modified.
func (ds *PollutantDataset) Records(pollutant string) []FacilityRecord {
	return ds.records[pollutant]
}

// Has reports whether the dataset contains the pollutant.
func (ds *PollutantDataset) Has(pollutant string) bool {
	_, ok := ds.records[pollutant]
	return ok
}

// Len returns the total number of records across all pollutants.
func (ds *PollutantDataset) Len() int { return ds.size }

// LoadedAt returns when the dataset was built.
func (ds *PollutantDataset) LoadedAt() time.Time { return ds.loadedAt }
