package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/emissions-dashboard/internal/adapter/boundary"
	httpadapter "github.com/couchcryptid/emissions-dashboard/internal/adapter/http"
	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockDashboard struct {
	ds       *domain.PollutantDataset
	readyErr error
	selected []string
}

func (m *mockDashboard) ListPollutants() []string { return m.ds.Pollutants() }
func (m *mockDashboard) Has(name string) bool     { return m.ds.Has(name) }
func (m *mockDashboard) SelectPollutant(_ context.Context, name string) domain.Report {
	m.selected = append(m.selected, name)
	return domain.SelectPollutant(m.ds, name)
}
func (m *mockDashboard) CheckReadiness(_ context.Context) error { return m.readyErr }

type mockGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return m.result, m.err
}

func newDashboard() *mockDashboard {
	return &mockDashboard{ds: domain.NewPollutantDataset([]domain.FacilityRecord{
		{FacilityName: "LAX", Pollutant: "Lead", FacilityType: "Airport", StateCounty: "CA - Los Angeles", EPARegion: "9", PollutantType: "HAP", Lat: 33.94, Lon: -118.40, Emissions: 80},
		{FacilityName: "Refinery A", Pollutant: "Lead", FacilityType: "Refinery", Lat: 33.80, Lon: -118.22, Emissions: 15},
		{FacilityName: "Shop", Pollutant: "Lead", FacilityType: "Auto Body", Lat: 34.01, Lon: -118.30, Emissions: 5},
		{FacilityName: "Plant", Pollutant: "Carbon Monoxide", FacilityType: "Power Plant", Lat: 34.10, Lon: -118.10, Emissions: 12.5},
	})}
}

func testBoundary(t *testing.T) *boundary.Boundary {
	t.Helper()
	b, err := boundary.Parse([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-118.7,33.7],[-117.6,33.7],[-117.6,34.8],[-118.7,34.8],[-118.7,33.7]]]}}]}`))
	require.NoError(t, err)
	return b
}

func testMap() httpadapter.MapSettings {
	return httpadapter.MapSettings{CenterLat: 34.052235, CenterLon: -118.243683, Zoom: 9}
}

func newTestServer(d httpadapter.Dashboard, opts httpadapter.Options) *httpadapter.Server {
	return httpadapter.NewServer(":0", d, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	d := newDashboard()
	d.readyErr = fmt.Errorf("not ready yet")
	rec := get(newTestServer(d, httpadapter.Options{}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- dashboard API ---

func TestIndex(t *testing.T) {
	srv := newTestServer(newDashboard(), httpadapter.Options{Map: testMap(), Geocoder: &mockGeocoder{}})

	rec := get(srv, "/?pollutant=Lead")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `<option value="Lead" selected>Lead</option>`)
	assert.Contains(t, body, `<option value="Carbon Monoxide">Carbon Monoxide</option>`)
	assert.Contains(t, body, `id="search"`)
	assert.Contains(t, body, "34.052235")
}

func TestIndex_DefaultsToFirstPollutant(t *testing.T) {
	srv := newTestServer(newDashboard(), httpadapter.Options{Map: testMap()})

	body := get(srv, "/").Body.String()

	assert.Contains(t, body, `<option value="Carbon Monoxide" selected>`)
	assert.NotContains(t, body, `id="search"`)
}

func TestUnknownPathReturns404(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPollutants(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/api/pollutants")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Carbon Monoxide", "Lead"}, body["pollutants"])
}

func TestReport(t *testing.T) {
	d := newDashboard()
	rec := get(newTestServer(d, httpadapter.Options{}), "/api/pollutants/Lead/report")

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "Lead", report.Pollutant)
	assert.Len(t, report.Markers, 3)
	assert.Len(t, report.Density, 3)
	assert.Equal(t, domain.SummaryTitle("Lead"), report.Summary.Title)
	require.Len(t, report.Summary.Slices, 3)
	assert.Equal(t, domain.OtherLabel, report.Summary.Slices[2].Label)
	assert.Equal(t, []string{"Lead"}, d.selected)
}

func TestReport_EscapedName(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/api/pollutants/Carbon%20Monoxide/report")

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Carbon Monoxide", report.Pollutant)
}

func TestReport_UnknownPollutant(t *testing.T) {
	d := newDashboard()
	rec := get(newTestServer(d, httpadapter.Options{}), "/api/pollutants/Ozone/report")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, d.selected)
}

func TestChart(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/api/pollutants/Lead/chart.png")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
}

func TestChart_UnknownPollutant(t *testing.T) {
	rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/api/pollutants/Ozone/chart.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBoundary(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		rec := get(newTestServer(newDashboard(), httpadapter.Options{Boundary: testBoundary(t)}), "/api/boundary")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
		var fc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
		assert.Equal(t, "FeatureCollection", fc["type"])
	})

	t.Run("not configured", func(t *testing.T) {
		rec := get(newTestServer(newDashboard(), httpadapter.Options{}), "/api/boundary")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGeocode(t *testing.T) {
	match := domain.GeocodingResult{Lat: 34.14, Lon: -118.14, FormattedAddress: "Pasadena, California", PlaceName: "Pasadena", Confidence: 1}

	tests := []struct {
		name     string
		geocoder domain.Geocoder
		target   string
		expected int
	}{
		{"disabled", nil, "/api/geocode?q=Pasadena", http.StatusServiceUnavailable},
		{"empty query", &mockGeocoder{result: match}, "/api/geocode?q=%20", http.StatusBadRequest},
		{"provider error", &mockGeocoder{err: errors.New("boom")}, "/api/geocode?q=Pasadena", http.StatusBadGateway},
		{"no match", &mockGeocoder{}, "/api/geocode?q=Atlantis", http.StatusNotFound},
		{"match", &mockGeocoder{result: match}, "/api/geocode?q=Pasadena", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(newDashboard(), httpadapter.Options{Geocoder: tt.geocoder}), tt.target)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}

	t.Run("body", func(t *testing.T) {
		rec := get(newTestServer(newDashboard(), httpadapter.Options{Geocoder: &mockGeocoder{result: match}}), "/api/geocode?q=Pasadena")
		var got domain.GeocodingResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, match, got)
	})
}

func TestMapSettings(t *testing.T) {
	t.Run("with boundary", func(t *testing.T) {
		rec := get(newTestServer(newDashboard(), httpadapter.Options{Map: testMap(), Boundary: testBoundary(t)}), "/api/map")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			CenterLat float64        `json:"center_lat"`
			CenterLon float64        `json:"center_lon"`
			Zoom      int            `json:"zoom"`
			Bounds    *[2][2]float64 `json:"bounds"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.InDelta(t, 34.052235, body.CenterLat, 1e-9)
		assert.InDelta(t, -118.243683, body.CenterLon, 1e-9)
		assert.Equal(t, 9, body.Zoom)
		require.NotNil(t, body.Bounds)
		assert.Equal(t, [2][2]float64{{33.7, -118.7}, {34.8, -117.6}}, *body.Bounds)
	})

	t.Run("without boundary", func(t *testing.T) {
		rec := get(newTestServer(newDashboard(), httpadapter.Options{Map: testMap()}), "/api/map")
		assert.NotContains(t, rec.Body.String(), "bounds")
	})
}
