package location

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
)

type fakeDevice struct {
	pos   geo.Position
	err   error
	delay time.Duration
}

func (d *fakeDevice) CurrentPosition(ctx context.Context, opts Options) (geo.Position, error) {
	if d.delay > 0 {
		select {
		case <-ctx.Done():
			return geo.Position{}, ctx.Err()
		case <-time.After(d.delay):
		}
	}
	if d.err != nil {
		return geo.Position{}, d.err
	}
	return d.pos, nil
}

func testConf(timeout time.Duration) *core.Config {
	return &core.Config{
		Location: core.LocationConfig{
			HighAccuracy: true,
			Timeout:      timeout,
			MaximumAge:   60 * time.Second,
		},
	}
}

func TestService_Acquire(t *testing.T) {
	pos := geo.Position{Point: geo.Point{Lat: 40.7128, Lng: -74.0060}, Accuracy: 12}

	tests := []struct {
		name     string
		device   Device
		wantKind ErrKind
	}{
		{name: "success", device: &fakeDevice{pos: pos}},
		{name: "no device", device: nil, wantKind: ErrUnsupported},
		{name: "permission denied", device: &fakeDevice{err: NewError(ErrPermissionDenied, nil)}, wantKind: ErrPermissionDenied},
		{name: "unavailable", device: &fakeDevice{err: NewError(ErrPositionUnavailable, nil)}, wantKind: ErrPositionUnavailable},
		{name: "untagged device error", device: &fakeDevice{err: errors.New("gps glitch")}, wantKind: ErrPositionUnavailable},
		{name: "timeout", device: &fakeDevice{delay: time.Second}, wantKind: ErrTimeout},
		{name: "invalid position", device: &fakeDevice{pos: geo.Position{Point: geo.Point{Lat: 91}}}, wantKind: ErrPositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.device, testConf(50*time.Millisecond))
			got, err := svc.Acquire(context.Background())
			if tt.wantKind != 0 {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("Acquire() error = %v, want kind %d", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Acquire() unexpected error: %v", err)
			}
			if got.Point != pos.Point {
				t.Errorf("Acquire() = %v, want %v", got.Point, pos.Point)
			}
			if got.CapturedAt.IsZero() {
				t.Error("Acquire() did not stamp CapturedAt")
			}
		})
	}
}

func TestError_messages(t *testing.T) {
	// each kind maps to a distinct user-facing message
	seen := make(map[string]ErrKind, len(errKindMessages))
	for kind, msg := range errKindMessages {
		if msg == "" {
			t.Errorf("kind %d has no message", kind)
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("kinds %d and %d share a message", prev, kind)
		}
		seen[msg] = kind
	}
}
