package attendance

import (
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
)

func newValidate() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestMarkRequest_Validate(t *testing.T) {
	validate := newValidate()

	tests := []struct {
		name     string
		req      MarkRequest
		wantCode string
		wantErr  bool
	}{
		{name: "6 chars", req: MarkRequest{AttendanceCode: "A1B2C3"}, wantCode: "A1B2C3"},
		{name: "7 chars", req: MarkRequest{AttendanceCode: "A1B2C3D"}, wantCode: "A1B2C3D"},
		{name: "lowercase normalized", req: MarkRequest{AttendanceCode: "a1b2c3"}, wantCode: "A1B2C3"},
		{name: "surrounding spaces", req: MarkRequest{AttendanceCode: "  a1b2c3 "}, wantCode: "A1B2C3"},
		{name: "empty", req: MarkRequest{}, wantErr: true},
		{name: "too short", req: MarkRequest{AttendanceCode: "A1B2C"}, wantErr: true},
		{name: "too long", req: MarkRequest{AttendanceCode: "A1B2C3D4"}, wantErr: true},
		{name: "dash not allowed", req: MarkRequest{AttendanceCode: "A1B-C2D"}, wantErr: true},
		{name: "bad latitude", req: MarkRequest{AttendanceCode: "A1B2C3", Latitude: 91}, wantErr: true},
		{name: "bad longitude", req: MarkRequest{AttendanceCode: "A1B2C3", Longitude: -181}, wantErr: true},
		{name: "coords ok", req: MarkRequest{AttendanceCode: "A1B2C3", Latitude: 40.7128, Longitude: -74.0060}, wantCode: "A1B2C3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(validate)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.req.AttendanceCode != tt.wantCode {
				t.Errorf("AttendanceCode = %q, want %q", tt.req.AttendanceCode, tt.wantCode)
			}
		})
	}
}

func TestVenue_Geometry(t *testing.T) {
	full := &Venue{
		Name:      "Conference Room A",
		Latitude:  null.Float64From(40.7128),
		Longitude: null.Float64From(-74.0060),
		Radius:    null.Float64From(50),
	}

	tests := []struct {
		name   string
		venue  *Venue
		wantOK bool
	}{
		{name: "full geometry", venue: full, wantOK: true},
		{name: "nil venue", venue: nil},
		{name: "no coords", venue: &Venue{Name: "TBD", Radius: null.Float64From(50)}},
		{name: "no radius", venue: &Venue{Latitude: null.Float64From(1), Longitude: null.Float64From(1)}},
		{
			name: "zero radius",
			venue: &Venue{
				Latitude: null.Float64From(1), Longitude: null.Float64From(1), Radius: null.Float64From(0),
			},
		},
		{
			name: "out-of-range latitude",
			venue: &Venue{
				Latitude: null.Float64From(91), Longitude: null.Float64From(1), Radius: null.Float64From(50),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, radius, ok := tt.venue.Geometry()
			if ok != tt.wantOK {
				t.Fatalf("Geometry() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (point.Lat != 40.7128 || point.Lng != -74.0060 || radius != 50) {
				t.Errorf("Geometry() = %v, %v", point, radius)
			}
		})
	}
}

func TestEvent_IsActive(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{name: "started", start: now.Add(-time.Hour), want: true},
		{name: "starts within lead time", start: now.Add(10 * time.Minute), want: true},
		{name: "starts later", start: now.Add(time.Hour), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := Event{StartTime: tt.start, EndTime: tt.start.Add(time.Hour)}
			if got := evt.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode_Remaining(t *testing.T) {
	now := time.Now().UTC()
	code := Code{Value: "A1B2C3", IssuedAt: now, ExpiresAt: now.Add(90 * time.Second)}

	if got := code.Remaining(now); got != 90*time.Second {
		t.Errorf("Remaining() = %v, want 90s", got)
	}
	if got := code.Remaining(now.Add(89 * time.Second)); got != time.Second {
		t.Errorf("Remaining() = %v, want 1s", got)
	}
	if got := code.Remaining(now.Add(2 * time.Minute)); got != 0 {
		t.Errorf("Remaining() after expiry = %v, want 0", got)
	}
	if code.Expired(now) {
		t.Error("Expired() = true for a fresh code")
	}
	if !code.Expired(now.Add(91 * time.Second)) {
		t.Error("Expired() = false past the window")
	}
}

func TestEventDetail_Stats(t *testing.T) {
	detail := EventDetail{
		Attendees: []Attendee{
			{FirstName: "John", Status: StatusPresent},
			{FirstName: "Jane", Status: StatusPresent},
			{FirstName: "Bob", Status: StatusLate},
			{FirstName: "Alice", Status: StatusAbsent},
			{FirstName: "Eve", Status: StatusPending},
			{FirstName: "Sam"}, // no status yet
		},
	}
	want := RosterStats{Total: 6, Present: 2, Late: 1, Absent: 1, Pending: 2}
	if got := detail.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}
