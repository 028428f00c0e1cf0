package attendance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrMarkInFlight   = errors.New("a submission is already in progress")
	ErrMarkBlocked    = errors.New("cannot submit attendance from the current proximity state")
	ErrAlreadyPresent = errors.New("attendee is already marked present")

	errMarkFailedMsg = "failed to mark attendance"

	nowFunc = time.Now // mockable
)

type (
	// Backend is the external attendance API; it is the sole authority on
	// code correctness, expiry and the actual proximity check.
	Backend interface {
		AttendeeEvents(ctx context.Context) ([]Event, error)
		EventDetail(ctx context.Context, eventID string) (EventDetail, error)
		StartAttendance(ctx context.Context, eventID string) (Code, error)
		MarkAttendance(ctx context.Context, eventID string, req MarkRequest) error
		ManualOverride(ctx context.Context, eventID, userID string) error
	}

	// MarkedStore persists the set of event ids this client believes are
	// already confirmed present. Advisory only; server state always wins.
	MarkedStore interface {
		Add(eventID string) error
		Has(eventID string) bool
		All() ([]string, error)
	}

	Service struct {
		backend  Backend
		store    MarkedStore
		validate *validator.Validate
		logger   core.Logger
		conf     *core.Config

		marking uint32 // in-flight submission lock
	}
)

func NewService(backend Backend, store MarkedStore, validate *validator.Validate, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		backend:  backend,
		store:    store,
		validate: validate,
		logger:   logger,
		conf:     conf,
	}
}

// Events returns the attendee's events reconciled with the local marked set:
// an event the client already confirmed renders PRESENT even while the server
// still reports PENDING. Server statuses other than PENDING always win.
func (svc *Service) Events(ctx context.Context) ([]Event, error) {
	events, err := svc.backend.AttendeeEvents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetching attendee events")
	}
	return svc.reconcile(events), nil
}

func (svc *Service) reconcile(events []Event) []Event {
	for i, evt := range events {
		if (evt.MyStatus == "" || evt.MyStatus == StatusPending) && svc.store.Has(evt.ID) {
			events[i].MyStatus = StatusPresent
		}
	}
	return events
}

// IsMarkedLocally reports whether this client already confirmed attendance
// for the event. Used to skip redundant prompts; never authoritative.
func (svc *Service) IsMarkedLocally(eventID string) bool {
	return svc.store.Has(eventID)
}

// Mark submits an attendance code together with the attempt's position for
// authoritative server verification. The classification gate and the code
// format check are client-side admission control; they never reach the
// server. On success the event is cached as marked and the event list is
// refetched to reconcile with server truth (a refetch failure is logged, not
// fatal). A second call while one is pending returns ErrMarkInFlight.
func (svc *Service) Mark(ctx context.Context, eventID, code string, cls Classification) ([]Event, error) {
	if !atomic.CompareAndSwapUint32(&svc.marking, 0, 1) {
		return nil, ErrMarkInFlight
	}
	defer atomic.StoreUint32(&svc.marking, 0)

	if !cls.State.Submittable() {
		return nil, errors.Wrapf(ErrMarkBlocked, "state %q", cls.State)
	}

	req := MarkRequest{
		AttendanceCode: code,
		Latitude:       cls.Position.Lat,
		Longitude:      cls.Position.Lng,
	}
	if err := req.Validate(svc.validate); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			flds := make([]core.FieldError, 0, len(vErrs))
			for _, vErr := range vErrs {
				flds = append(flds, core.FieldError{Field: vErr.Field(), Error: vErr.Translate(core.Translator)})
			}
			return nil, core.NewValidationError(errors.New("invalid attendance details"), flds...)
		}
		return nil, err
	}

	if err := svc.backend.MarkAttendance(ctx, eventID, req); err != nil {
		if apiErr, ok := errors.Cause(err).(*core.APIError); ok && apiErr.Message != "" {
			return nil, apiErr // surface the server message verbatim
		}
		svc.logger.Error(fmt.Sprintf("marking attendance for event %s: %v", eventID, err), err)
		return nil, errors.New(errMarkFailedMsg)
	}

	if err := svc.store.Add(eventID); err != nil {
		svc.logger.Warn(fmt.Sprintf("caching marked event %s: %v", eventID, err))
	}

	events, err := svc.Events(ctx)
	if err != nil {
		// the mark itself succeeded; reconciliation will catch up next fetch
		svc.logger.Warn(fmt.Sprintf("refetching events after mark: %v", err))
		return nil, nil
	}
	return events, nil
}

// StartAttendance requests a fresh rotating code for the event. A new code
// invalidates any prior code server-side. The returned Code carries the
// server-declared validity window; the client displays it and never enforces
// expiry itself.
func (svc *Service) StartAttendance(ctx context.Context, eventID string) (Code, error) {
	code, err := svc.backend.StartAttendance(ctx, eventID)
	if err != nil {
		return Code{}, errors.Wrap(err, "starting attendance")
	}
	code.EventID = eventID
	if code.IssuedAt.IsZero() {
		code.IssuedAt = nowFunc().UTC()
	}
	if code.ExpiresAt.IsZero() {
		code.ExpiresAt = code.IssuedAt.Add(svc.conf.Attendance.CodeTTL)
	}
	return code, nil
}

// ManualOverride force-marks an attendee present outside the code flow.
// Rejected when the roster already shows the attendee present. Success
// triggers the same reconciliation refetch as a poll tick.
func (svc *Service) ManualOverride(ctx context.Context, eventID string, att Attendee) (EventDetail, error) {
	if att.Status == StatusPresent {
		return EventDetail{}, ErrAlreadyPresent
	}
	if err := svc.backend.ManualOverride(ctx, eventID, att.ID); err != nil {
		if apiErr, ok := errors.Cause(err).(*core.APIError); ok && apiErr.Message != "" {
			return EventDetail{}, apiErr
		}
		return EventDetail{}, errors.Wrap(err, "overriding attendance")
	}
	detail, err := svc.backend.EventDetail(ctx, eventID)
	if err != nil {
		return EventDetail{}, errors.Wrap(err, "refetching event detail")
	}
	return detail, nil
}
