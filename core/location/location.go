package location

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/geo"
)

// ErrKind classifies a failed position request.
type ErrKind int

const (
	ErrPermissionDenied ErrKind = iota + 1
	ErrPositionUnavailable
	ErrTimeout
	ErrUnsupported
)

var errKindMessages = map[ErrKind]string{
	ErrPermissionDenied:    "location permission denied. Please allow location access and try again.",
	ErrPositionUnavailable: "your position could not be determined. Please try again.",
	ErrTimeout:             "timed out waiting for your position. Please try again.",
	ErrUnsupported:         "location services are not available on this device.",
}

// Error is a failed position request, tagged with its kind.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string {
	return errKindMessages[e.Kind]
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind ErrKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the ErrKind of err, or 0 if err is not a location Error.
func KindOf(err error) ErrKind {
	if lerr, ok := errors.Cause(err).(*Error); ok {
		return lerr.Kind
	}
	return 0
}

type (
	// Options configures a single position request.
	Options struct {
		HighAccuracy bool
		Timeout      time.Duration
		// MaximumAge is the oldest cached position the device may return
		// instead of taking a fresh fix.
		MaximumAge time.Duration
	}

	// Device is any source of the current device position: a GPS adapter, a
	// platform location service, or a fixed kiosk position. A Device takes a
	// single fix per call; there is no watch mode. Implementations report
	// failures as *Error so the kind survives the acquirer.
	Device interface {
		CurrentPosition(ctx context.Context, opts Options) (geo.Position, error)
	}

	// Service wraps a Device with the configured one-shot acquisition
	// semantics: a bounded wait and the failure taxonomy. It never retries;
	// the caller decides whether to re-invoke.
	Service struct {
		device Device
		opts   Options
	}
)

func NewService(device Device, conf *core.Config) *Service {
	return &Service{
		device: device,
		opts: Options{
			HighAccuracy: conf.Location.HighAccuracy,
			Timeout:      conf.Location.Timeout,
			MaximumAge:   conf.Location.MaximumAge,
		},
	}
}

// Acquire requests the current position once, suspending the caller until a
// position is returned, the device fails, or the timeout elapses.
func (svc *Service) Acquire(ctx context.Context) (geo.Position, error) {
	if svc.device == nil {
		return geo.Position{}, NewError(ErrUnsupported, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.opts.Timeout)
	defer cancel()

	pos, err := svc.device.CurrentPosition(ctx, svc.opts)
	if err != nil {
		if lerr, ok := errors.Cause(err).(*Error); ok {
			return geo.Position{}, lerr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return geo.Position{}, NewError(ErrTimeout, err)
		}
		return geo.Position{}, NewError(ErrPositionUnavailable, err)
	}

	if err := pos.Validate(); err != nil {
		return geo.Position{}, NewError(ErrPositionUnavailable, err)
	}
	if pos.CapturedAt.IsZero() {
		pos.CapturedAt = time.Now().UTC()
	}
	return pos, nil
}
