package locsvc

import (
	"context"
	"time"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/location"
)

// staticAccuracy is reported for manually supplied positions; there is no
// real fix quality to report.
const staticAccuracy = 50.0 // meters

// staticDevice answers every position request with a fixed point: kiosk
// installs with a configured position, or a position given on the command
// line when the host has no location hardware.
type staticDevice struct {
	point geo.Point
}

var _ location.Device = (*staticDevice)(nil)

func NewStaticDevice(point geo.Point) (location.Device, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	return &staticDevice{point: point}, nil
}

func (d *staticDevice) CurrentPosition(_ context.Context, _ location.Options) (geo.Position, error) {
	return geo.Position{
		Point:      d.point,
		Accuracy:   staticAccuracy,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// DeviceFromConfig returns the configured static device, or nil when no
// position is configured (the acquirer then reports unsupported).
func DeviceFromConfig(conf *core.Config) location.Device {
	if conf.Location.StaticLat == 0 && conf.Location.StaticLng == 0 {
		return nil
	}
	dev, err := NewStaticDevice(geo.Point{Lat: conf.Location.StaticLat, Lng: conf.Location.StaticLng})
	if err != nil {
		return nil
	}
	return dev
}
