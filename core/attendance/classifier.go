package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
	"github.com/trezcool/mahudhurio/core/location"
)

// Proximity states. Every mark attempt starts fresh at StateChecking;
// nothing persists across attempts.
type State string

const (
	StateChecking         State = "checking"
	StateInRange          State = "in-range"
	StateOutOfRange       State = "out-of-range"
	StateLocationDetected State = "location-detected"
	StateNoVenueData      State = "no-venue-data"
	StateError            State = "error"
)

// Submittable reports whether a code submission is admissible from this
// state. This is client-side admission control only; the server remains the
// authority on the actual proximity check.
func (s State) Submittable() bool {
	switch s {
	case StateChecking, StateOutOfRange, StateError:
		return false
	}
	return true
}

type (
	// Classification is the outcome of a single proximity check attempt.
	Classification struct {
		Attempt  string // correlation id
		State    State
		Position geo.Position
		Distance float64 // meters to the venue; valid only for in/out-of-range
		Err      error   // set when State == StateError
	}

	// Classifier runs the advisory venue-proximity pre-check: acquire the
	// device position once and compare it against the venue geometry.
	Classifier struct {
		loc    *location.Service
		logger core.Logger
	}
)

func NewClassifier(loc *location.Service, logger core.Logger) *Classifier {
	return &Classifier{loc: loc, logger: logger}
}

// Classify performs one attempt. A location failure is terminal for the
// attempt; the caller retries the whole flow.
func (c *Classifier) Classify(ctx context.Context, venue *Venue) Classification {
	cls := Classification{
		Attempt: uuid.New().String(),
		State:   StateChecking,
	}

	pos, err := c.loc.Acquire(ctx)
	if err != nil {
		cls.State = StateError
		cls.Err = err
		c.logger.Debug(fmt.Sprintf("proximity check %s: location failed: %v", cls.Attempt, err))
		return cls
	}
	cls.Position = pos

	if venue == nil {
		cls.State = StateNoVenueData
		return cls
	}

	point, radius, ok := venue.Geometry()
	if !ok {
		// server will authoritatively validate; client cannot pre-judge
		cls.State = StateLocationDetected
		return cls
	}

	cls.Distance = geo.Distance(pos.Point, point)
	if cls.Distance <= radius {
		cls.State = StateInRange
	} else {
		cls.State = StateOutOfRange
	}
	c.logger.Debug(fmt.Sprintf(
		"proximity check %s: %.1fm from %s (radius %.0fm): %s", cls.Attempt, cls.Distance, venue.Name, radius, cls.State,
	))
	return cls
}
