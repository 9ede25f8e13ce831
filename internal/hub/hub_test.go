package hub

import (
	"errors"
	"sync"
	"testing"
)

type memChannel struct {
	mu     sync.Mutex
	events []Event
	failOn int
	sent   int
	closed bool
}

func (m *memChannel) Send(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	if m.failOn > 0 && m.sent >= m.failOn {
		return errors.New("send failed")
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestSubscribeReportsNewSession(t *testing.T) {
	h := New()
	a, b := &memChannel{}, &memChannel{}
	if !h.Subscribe("s1", a) {
		t.Fatal("first channel of a session should report new")
	}
	if h.Subscribe("s1", b) {
		t.Fatal("second channel of the same session reported new")
	}
	if !h.Subscribe("s2", &memChannel{}) {
		t.Fatal("first channel of another session should report new")
	}
}

func TestPublishFansOutToAllChannels(t *testing.T) {
	h := New()
	a, b := &memChannel{}, &memChannel{}
	h.Subscribe("s1", a)
	h.Subscribe("s1", b)
	h.Subscribe("s2", &memChannel{})

	h.Publish("s1", Event{ItemID: "i1", Status: StatusDone, Progress: 100})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fanout: a=%d b=%d, want 1/1", len(a.events), len(b.events))
	}
	if a.events[0].ItemID != "i1" || a.events[0].Status != StatusDone {
		t.Fatalf("event %+v", a.events[0])
	}
}

func TestFailedChannelDroppedSiblingsUnaffected(t *testing.T) {
	h := New()
	bad := &memChannel{failOn: 1}
	good := &memChannel{}
	h.Subscribe("s1", bad)
	h.Subscribe("s1", good)

	h.Publish("s1", Event{ItemID: "i1", Status: StatusUploading, Progress: 10})
	if len(good.events) != 1 {
		t.Fatal("sibling missed the event")
	}
	if !bad.closed {
		t.Fatal("failed channel was not closed")
	}

	// the dropped channel gets nothing further
	h.Publish("s1", Event{ItemID: "i1", Status: StatusDone, Progress: 100})
	if bad.sent != 1 {
		t.Fatalf("dropped channel still receiving: sent=%d", bad.sent)
	}
	if len(good.events) != 2 {
		t.Fatalf("sibling events %d, want 2", len(good.events))
	}
}

func TestUnsubscribePrunesSession(t *testing.T) {
	h := New()
	a := &memChannel{}
	h.Subscribe("s1", a)
	h.Unsubscribe("s1", a)
	if h.Sessions() != 0 {
		t.Fatal("empty session not pruned")
	}
	// a re-subscribe counts as a fresh session again
	if !h.Subscribe("s1", a) {
		t.Fatal("re-subscribe after prune should report new")
	}
}

func TestPublishToUnknownSessionIsNoop(t *testing.T) {
	h := New()
	h.Publish("ghost", Event{ItemID: "i1", Status: StatusDone})
}
