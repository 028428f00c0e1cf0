package attendance

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestPoller(t *testing.T) {
	backend := &fakeBackend{detail: EventDetail{
		Event:     Event{ID: "evt-1"},
		Attendees: []Attendee{{ID: "usr-1", Status: StatusPresent}},
	}}
	svc := newTestService(backend, newMemStore())

	var ticks int32
	poller := svc.StartPolling("evt-1", func(detail EventDetail) {
		if detail.ID != "evt-1" {
			t.Errorf("onTick detail = %+v", detail)
		}
		atomic.AddInt32(&ticks, 1)
	})

	time.Sleep(110 * time.Millisecond) // ~5 ticks at 20ms
	poller.Stop()

	got := atomic.LoadInt32(&ticks)
	if got < 3 {
		t.Errorf("ticks = %d, want at least 3", got)
	}

	// no ticks after Stop
	time.Sleep(60 * time.Millisecond)
	if after := atomic.LoadInt32(&ticks); after != got {
		t.Errorf("ticks after Stop = %d, want %d", after, got)
	}
}

func TestPoller_errorsAreNotFatal(t *testing.T) {
	backend := &fakeBackend{detailErr: errors.New("server unavailable")}
	svc := newTestService(backend, newMemStore())

	var ticks int32
	poller := svc.StartPolling("evt-1", func(EventDetail) { atomic.AddInt32(&ticks, 1) })

	time.Sleep(110 * time.Millisecond)
	poller.Stop()

	if atomic.LoadInt32(&ticks) != 0 {
		t.Error("failed fetches must not reach onTick")
	}
	if calls := atomic.LoadInt32(&backend.detailCalls); calls < 3 {
		t.Errorf("backend calls = %d; polling must survive failed ticks", calls)
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend, newMemStore())

	poller := svc.StartPolling("evt-1", func(EventDetail) {})
	poller.Stop()
	poller.Stop() // must not panic or deadlock
}
