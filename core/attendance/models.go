package attendance

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
)

// Statuses
const (
	StatusPending = "PENDING"
	StatusPresent = "PRESENT"
	StatusLate    = "LATE"
	StatusAbsent  = "ABSENT"
)

// markLeadTime: an event accepts marking from this long before its start.
const markLeadTime = 15 * time.Minute

type (
	Venue struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Latitude  null.Float64 `json:"latitude"`
		Longitude null.Float64 `json:"longitude"`
		Radius    null.Float64 `json:"radius"` // meters
	}

	Group struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Event struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		StartTime   time.Time `json:"startTime"` // UTC
		EndTime     time.Time `json:"endTime"`   // UTC
		Venue       *Venue    `json:"venue"`
		Group       *Group    `json:"group"`
		MyStatus    string    `json:"myAttendanceStatus"`
	}

	Attendee struct {
		ID        string    `json:"id"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		Email     string    `json:"email"`
		Status    string    `json:"status"`
		MarkedAt  null.Time `json:"markedAt"`
	}

	EventDetail struct {
		Event
		Attendees []Attendee `json:"attendees"`
	}

	RosterStats struct {
		Total   int
		Present int
		Late    int
		Absent  int
		Pending int
	}

	// Code is a short-lived, server-issued attendance code. The server owns
	// correctness and expiry; ExpiresAt only communicates the declared window.
	Code struct {
		Value     string    `json:"attendanceCode"`
		EventID   string    `json:"-"`
		IssuedAt  time.Time `json:"-"`
		ExpiresAt time.Time `json:"-"`
	}

	// MarkRequest is the verification request sent to the backend.
	MarkRequest struct {
		AttendanceCode string  `json:"attendanceCode" validate:"required,attendance_code"`
		Latitude       float64 `json:"latitude" validate:"latitude"`
		Longitude      float64 `json:"longitude" validate:"longitude"`
	}
)

// Geometry returns the venue's registered point and radius.
// ok is false when any of latitude/longitude/radius is undefined or the
// radius is not positive.
func (v *Venue) Geometry() (point geo.Point, radius float64, ok bool) {
	if v == nil || !v.Latitude.Valid || !v.Longitude.Valid || !v.Radius.Valid {
		return geo.Point{}, 0, false
	}
	point = geo.Point{Lat: v.Latitude.Float64, Lng: v.Longitude.Float64}
	if v.Radius.Float64 <= 0 || point.Validate() != nil {
		return geo.Point{}, 0, false
	}
	return point, v.Radius.Float64, true
}

// IsActive reports whether the event currently accepts attendance marking.
func (e Event) IsActive(now time.Time) bool {
	return now.After(e.StartTime.Add(-markLeadTime))
}

func (a Attendee) FullName() string {
	return core.CleanString(a.FirstName + " " + a.LastName)
}

// Remaining returns how much of the server-declared validity window is left.
func (c Code) Remaining(now time.Time) time.Duration {
	if rem := c.ExpiresAt.Sub(now); rem > 0 {
		return rem
	}
	return 0
}

func (c Code) Expired(now time.Time) bool {
	return c.Remaining(now) == 0
}

// Stats aggregates the roster by status.
func (d EventDetail) Stats() RosterStats {
	stats := RosterStats{Total: len(d.Attendees)}
	for _, att := range d.Attendees {
		switch att.Status {
		case StatusPresent:
			stats.Present++
		case StatusLate:
			stats.Late++
		case StatusAbsent:
			stats.Absent++
		default:
			stats.Pending++
		}
	}
	return stats
}

// NormalizeCode uppercases a user-entered attendance code; codes are
// case-insensitive on the wire.
func NormalizeCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

func (r *MarkRequest) Validate(validate *validator.Validate) error {
	r.AttendanceCode = NormalizeCode(r.AttendanceCode)
	return validate.Struct(r)
}
