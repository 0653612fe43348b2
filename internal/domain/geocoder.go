package domain

import "context"

// GeocodingResult is a place returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	FormattedAddress string  `json:"formatted_address"`
	PlaceName        string  `json:"place_name"`
	Confidence       float64 `json:"confidence"` // 0.0–1.0 provider relevance
}

// Geocoder resolves free-text searches from the map search box.
type Geocoder interface {
	// ForwardGeocode returns the best match for query. A zero result with a
	// nil error means nothing matched.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
