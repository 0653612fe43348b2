// Package boundary loads the administrative boundary drawn under the
// emissions layers, e.g. the Los Angeles County outline.
package boundary

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrNotGeographic reports coordinates outside WGS-84 degree ranges, which
// usually means the file is in a projected CRS.
var ErrNotGeographic = errors.New("boundary coordinates are not WGS-84 longitude/latitude")

// Boundary is an immutable boundary layer.
type Boundary struct {
	fc    *geojson.FeatureCollection
	raw   []byte
	bound orb.Bound
}

// Load reads a GeoJSON FeatureCollection (or a single Feature) from path.
// Coordinates must already be WGS-84 (EPSG:4326), as RFC 7946 requires.
// Files in a projected CRS are not reprojected to EPSG:4326; they fail with
// ErrNotGeographic and must be converted before loading.
func Load(path string) (*Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("boundary %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes GeoJSON bytes into a Boundary.
func Parse(data []byte) (*Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil || len(fc.Features) == 0 {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil || f.Geometry == nil {
			if err == nil {
				err = errors.New("no features")
			}
			return nil, fmt.Errorf("decode geojson: %w", err)
		}
		fc = geojson.NewFeatureCollection().Append(f)
	}

	var bound orb.Bound
	first := true
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			bound = f.Geometry.Bound()
			first = false
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	if first {
		return nil, errors.New("decode geojson: no geometries")
	}
	if bound.Min.Lon() < -180 || bound.Max.Lon() > 180 || bound.Min.Lat() < -90 || bound.Max.Lat() > 90 {
		return nil, ErrNotGeographic
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return &Boundary{fc: fc, raw: raw, bound: bound}, nil
}

// GeoJSON returns the boundary as an encoded FeatureCollection.
func (b *Boundary) GeoJSON() []byte { return b.raw }

// Bound returns the bounding box of every feature.
func (b *Boundary) Bound() orb.Bound { return b.bound }

// Features returns the number of features in the layer.
func (b *Boundary) Features() int { return len(b.fc.Features) }

// Contains reports whether the point falls inside any polygon of the layer.
func (b *Boundary) Contains(lat, lon float64) bool {
	p := orb.Point{lon, lat}
	if !b.bound.Contains(p) {
		return false
	}
	for _, f := range b.fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return true
			}
		}
	}
	return false
}
