package geo

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// earthRadius in meters
const earthRadius = 6371e3

var (
	ErrInvalidLatitude  = errors.New("latitude must be within [-90, 90]")
	ErrInvalidLongitude = errors.New("longitude must be within [-180, 180]")
)

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Validate rejects NaN and out-of-range coordinates.
// Distance assumes valid points; callers validate first.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// Position is a device position at a point in time. It is created per
// attendance-mark attempt and discarded right after use; never persisted.
type Position struct {
	Point
	Accuracy   float64   // meters
	CapturedAt time.Time `json:"-"`
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula. Symmetric; Distance(p, p) == 0.
func Distance(a, b Point) float64 {
	φ1 := radians(a.Lat)
	φ2 := radians(b.Lat)
	Δφ := radians(b.Lat - a.Lat)
	Δλ := radians(b.Lng - a.Lng)

	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
