package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/location"
)

type fakeDevice struct {
	pos geo.Position
	err error
}

func (d *fakeDevice) CurrentPosition(_ context.Context, _ location.Options) (geo.Position, error) {
	return d.pos, d.err
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConf() *core.Config {
	return &core.Config{
		API: core.APIConfig{Timeout: time.Second},
		Attendance: core.AttendanceConfig{
			CodeTTL:      90 * time.Second,
			PollInterval: 20 * time.Millisecond,
		},
		Location: core.LocationConfig{
			HighAccuracy: true,
			Timeout:      100 * time.Millisecond,
			MaximumAge:   60 * time.Second,
		},
	}
}

func newClassifier(dev location.Device) *Classifier {
	return NewClassifier(location.NewService(dev, testConf()), nopLogger{})
}

func TestClassifier_Classify(t *testing.T) {
	venue := &Venue{
		Name:      "Conference Room A",
		Latitude:  null.Float64From(40.7128),
		Longitude: null.Float64From(-74.0060),
		Radius:    null.Float64From(50),
	}
	noGeom := &Venue{Name: "TBD"}

	atVenue := geo.Position{Point: geo.Point{Lat: 40.7128, Lng: -74.0060}, Accuracy: 10}
	twoBlocksOut := geo.Position{Point: geo.Point{Lat: 40.7128, Lng: -74.0040}, Accuracy: 10} // ~170m away

	tests := []struct {
		name      string
		device    location.Device
		venue     *Venue
		wantState State
	}{
		{name: "at venue", device: &fakeDevice{pos: atVenue}, venue: venue, wantState: StateInRange},
		{name: "outside radius", device: &fakeDevice{pos: twoBlocksOut}, venue: venue, wantState: StateOutOfRange},
		{name: "venue without geometry", device: &fakeDevice{pos: atVenue}, venue: noGeom, wantState: StateLocationDetected},
		{name: "no venue", device: &fakeDevice{pos: atVenue}, venue: nil, wantState: StateNoVenueData},
		{
			name:      "permission denied",
			device:    &fakeDevice{err: location.NewError(location.ErrPermissionDenied, nil)},
			venue:     venue,
			wantState: StateError,
		},
		{name: "no device", device: nil, venue: venue, wantState: StateError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := newClassifier(tt.device).Classify(context.Background(), tt.venue)
			if cls.State != tt.wantState {
				t.Fatalf("Classify() state = %q, want %q", cls.State, tt.wantState)
			}
			if cls.Attempt == "" {
				t.Error("Classify() attempt id not set")
			}
			if tt.wantState == StateError && cls.Err == nil {
				t.Error("Classify() error state without Err")
			}
			if tt.wantState == StateOutOfRange && cls.Distance <= 50 {
				t.Errorf("Classify() distance = %v, want > radius", cls.Distance)
			}
		})
	}
}

func TestState_Submittable(t *testing.T) {
	blocked := []State{StateChecking, StateOutOfRange, StateError}
	for _, s := range blocked {
		if s.Submittable() {
			t.Errorf("Submittable(%q) = true, want false", s)
		}
	}
	allowed := []State{StateInRange, StateLocationDetected, StateNoVenueData}
	for _, s := range allowed {
		if !s.Submittable() {
			t.Errorf("Submittable(%q) = false, want true", s)
		}
	}
}
