// Package geo resolves POI names to coordinates and measures great-circle
// distances between them.
package geo

import (
	"context"
	"errors"
	"math"
)

// ErrNotFound is returned by a Locator that does not know a POI.
var ErrNotFound = errors.New("poi not found")

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Locator geocodes a POI name within a city.
type Locator interface {
	Locate(ctx context.Context, city, name string) (Point, error)
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Distance returns the distance in kilometers between two POIs of a city.
// ok is false when either POI cannot be located; callers enforcing a hard
// limit must then treat the limit as violated.
func Distance(ctx context.Context, loc Locator, city, a, b string) (km float64, ok bool) {
	pa, err := loc.Locate(ctx, city, a)
	if err != nil {
		return 0, false
	}
	pb, err := loc.Locate(ctx, city, b)
	if err != nil {
		return 0, false
	}
	return Haversine(pa, pb), true
}

// TableLocator is an in-memory Locator keyed by city and name.
type TableLocator map[string]map[string]Point

// Add registers a POI.
func (t TableLocator) Add(city, name string, p Point) {
	if t[city] == nil {
		t[city] = make(map[string]Point)
	}
	t[city][name] = p
}

func (t TableLocator) Locate(_ context.Context, city, name string) (Point, error) {
	p, ok := t[city][name]
	if !ok {
		return Point{}, ErrNotFound
	}
	return p, nil
}
