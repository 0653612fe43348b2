package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryTitle(t *testing.T) {
	assert.Equal(t,
		`Total Emissions of Lead by Facility Type (Grouping < 10% into "Other")`,
		SummaryTitle("Lead"),
	)
}

func TestFormatLabel(t *testing.T) {
	r := FacilityRecord{
		FacilityName:  "Smith & Sons <Plating>",
		StateCounty:   "CA - Los Angeles",
		EPARegion:     "9",
		PollutantType: "HAP",
		Emissions:     0.125,
	}

	label := FormatLabel(r)

	assert.Equal(t,
		"<div style='width: 300px;'>"+
			"<b>Facility:</b> Smith &amp; Sons &lt;Plating&gt;<br>"+
			"<b>State-County:</b> CA - Los Angeles<br>"+
			"<b>EPA Region:</b> 9<br>"+
			"<b>Pollutant Type:</b> HAP<br>"+
			"<b>Emissions:</b> 0.125 Tons</div>",
		label,
	)
}

func TestBuildReport(t *testing.T) {
	records := []FacilityRecord{
		rec("FacilityA", typeX, 34.0, -118.0, 80),
		rec("FacilityB", typeY, 34.0, -118.0, 15),
		rec("FacilityC", typeZ, 33.5, -117.5, 5),
	}

	report := BuildReport(testPollutant, AggregateByCoordinate(records), AggregateByFacilityType(records), records)

	assert.Equal(t, testPollutant, report.Pollutant)
	assert.Equal(t, []DensitySample{
		{Lat: 33.5, Lon: -117.5, Weight: 5},
		{Lat: 34.0, Lon: -118.0, Weight: 95},
	}, report.Density)

	require.Len(t, report.Markers, 3)
	assert.Equal(t, 34.0, report.Markers[0].Lat)
	assert.Equal(t, 80.0, report.Markers[0].Emissions)
	assert.Contains(t, report.Markers[0].Label, "<b>Facility:</b> FacilityA")
	assert.Contains(t, report.Markers[2].Label, "<b>Emissions:</b> 5 Tons")

	assert.Equal(t, SummaryTitle(testPollutant), report.Summary.Title)
	if diff := cmp.Diff([]CategoryAggregate{
		{Label: typeX, Value: 80},
		{Label: typeY, Value: 15},
		{Label: OtherLabel, Value: 5},
	}, report.Summary.Slices, floatApprox); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildReport_NoRecords(t *testing.T) {
	report := BuildReport("Ozone", nil, nil, nil)

	assert.Equal(t, "Ozone", report.Pollutant)
	assert.NotNil(t, report.Density)
	assert.Empty(t, report.Density)
	assert.NotNil(t, report.Markers)
	assert.Empty(t, report.Markers)
	assert.NotNil(t, report.Summary.Slices)
	assert.Empty(t, report.Summary.Slices)
	assert.Equal(t, SummaryTitle("Ozone"), report.Summary.Title)
}

func TestSelectPollutant(t *testing.T) {
	lead := rec("L", typeX, 34.1, -118.1, 2)
	lead.Pollutant = "Lead"
	ds := NewPollutantDataset([]FacilityRecord{
		rec("A", typeX, 34.0, -118.0, 80),
		rec("B", typeY, 34.0, -118.0, 15),
		rec("C", typeZ, 33.5, -117.5, 5),
		lead,
	})

	t.Run("idempotent", func(t *testing.T) {
		first := SelectPollutant(ds, testPollutant)
		second := SelectPollutant(ds, testPollutant)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("repeated selection differs (-first +second):\n%s", diff)
		}
	})

	t.Run("only selected pollutant", func(t *testing.T) {
		report := SelectPollutant(ds, "Lead")
		require.Len(t, report.Markers, 1)
		assert.Equal(t, []CategoryAggregate{{Label: typeX, Value: 2}, {Label: OtherLabel, Value: 0}}, report.Summary.Slices)
	})

	t.Run("unknown pollutant degrades to empty", func(t *testing.T) {
		report := SelectPollutant(ds, "Ozone")
		assert.Empty(t, report.Density)
		assert.Empty(t, report.Markers)
		assert.Empty(t, report.Summary.Slices)
	})
}

func TestNewReportEvent(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	records := []FacilityRecord{
		rec("A", typeX, 34.0, -118.0, 80),
		rec("B", typeY, 34.0, -118.0, 15),
		rec("C", typeZ, 33.5, -117.5, 5.001),
	}
	report := BuildReport(testPollutant, AggregateByCoordinate(records), AggregateByFacilityType(records), records)

	event := NewReportEvent(report)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, testPollutant, event.Pollutant)
	assert.Equal(t, 3, event.Records)
	assert.Equal(t, 2, event.Coordinates)
	assert.InDelta(t, 100.001, event.TotalEmissions, 1e-9)
	assert.Equal(t, report.Summary, event.Summary)
	assert.Equal(t, fakeClock.Now(), event.GeneratedAt)

	other := NewReportEvent(report)
	assert.NotEqual(t, event.ID, other.ID)
}
