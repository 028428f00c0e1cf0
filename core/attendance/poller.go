package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Poller is a cancellable fixed-interval roster refresh, running while the
// admin keeps the code dialog open. Stop is idempotent and must be called on
// dialog close or teardown; an in-flight tick finishes before Stop returns.
type Poller struct {
	svc      *Service
	eventID  string
	interval time.Duration
	onTick   func(EventDetail)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartPolling refetches the event detail (attendee roster + statuses) every
// poll interval and hands each result to onTick. A failed tick is logged and
// polling continues; the interval is fixed, never adaptive.
func (svc *Service) StartPolling(eventID string, onTick func(EventDetail)) *Poller {
	p := &Poller{
		svc:      svc,
		eventID:  eventID,
		interval: svc.conf.Attendance.PollInterval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Poller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.svc.conf.API.Timeout)
	defer cancel()

	detail, err := p.svc.backend.EventDetail(ctx, p.eventID)
	if err != nil {
		// non-fatal; keep polling
		p.svc.logger.Error(fmt.Sprintf("polling event %s: %v", p.eventID, err), err)
		return
	}
	p.onTick(detail)
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}
