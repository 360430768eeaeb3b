package hub

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/sirupsen/logrus"
)

type fakeSink struct {
	id      string
	enc     protocol.Encoding
	mu      sync.Mutex
	frames  [][]byte
	refuse  bool
	blockCh chan struct{}
}

func (f *fakeSink) ID() string                  { return f.id }
func (f *fakeSink) Encoding() protocol.Encoding { return f.enc }

func (f *fakeSink) Deliver(b []byte) bool {
	if f.blockCh != nil {
		select {
		case f.blockCh <- struct{}{}:
		default:
			return false
		}
	}
	if f.refuse {
		return false
	}
	f.mu.Lock()
	f.frames = append(f.frames, b)
	f.mu.Unlock()
	return true
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newTestHub() (*Hub, *metrics.Metrics) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	m := metrics.New()
	return New(l, m), m
}

func TestPublishReachesEverySink(t *testing.T) {
	h, _ := newTestHub()
	sinks := []*fakeSink{
		{id: "a", enc: protocol.JSON},
		{id: "b", enc: protocol.JSON},
		{id: "c", enc: protocol.MsgPack},
	}
	for _, s := range sinks {
		h.Add(s)
	}

	h.Publish(protocol.Snapshot{GameMode: true, Tick: 3})

	for _, s := range sinks {
		if s.count() != 1 {
			t.Fatalf("sink %s got %d frames, want 1", s.id, s.count())
		}
	}
	var snap protocol.Snapshot
	if err := json.Unmarshal(sinks[0].frames[0], &snap); err != nil || !snap.GameMode || snap.Tick != 3 {
		t.Fatalf("json frame = %s (%v)", sinks[0].frames[0], err)
	}
	if string(sinks[0].frames[0]) == string(sinks[2].frames[0]) {
		t.Fatal("msgpack sink got the json frame")
	}
}

func TestSlowSinkDoesNotBlockOthers(t *testing.T) {
	h, m := newTestHub()
	slow := &fakeSink{id: "slow", blockCh: make(chan struct{})}
	fast := &fakeSink{id: "fast"}
	h.Add(slow)
	h.Add(fast)

	done := make(chan struct{})
	go func() {
		h.Publish(protocol.Snapshot{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow sink")
	}
	if fast.count() != 1 {
		t.Fatalf("fast sink got %d frames", fast.count())
	}
	if m.GetDeliveriesDropped() != 1 {
		t.Fatalf("dropped = %d, want 1", m.GetDeliveriesDropped())
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	h, _ := newTestHub()
	s := &fakeSink{id: "a"}
	h.Add(s)
	h.Remove("a")
	h.Remove("a")

	h.Publish(protocol.Snapshot{})

	if s.count() != 0 || h.Len() != 0 {
		t.Fatalf("removed sink got %d frames, hub len %d", s.count(), h.Len())
	}
}

func TestSendToOnlyTargetsOneSink(t *testing.T) {
	h, _ := newTestHub()
	a, b := &fakeSink{id: "a"}, &fakeSink{id: "b"}
	h.Add(a)
	h.Add(b)

	if !h.SendTo(a, protocol.Snapshot{}) {
		t.Fatal("SendTo reported failure")
	}
	if a.count() != 1 || b.count() != 0 {
		t.Fatalf("a=%d b=%d", a.count(), b.count())
	}

	refusing := &fakeSink{id: "r", refuse: true}
	if h.SendTo(refusing, protocol.Snapshot{}) {
		t.Fatal("SendTo to a refusing sink reported success")
	}
}

func TestConcurrentAddRemovePublish(t *testing.T) {
	h, _ := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		id := fmt.Sprintf("v%d", i)
		go func() {
			defer wg.Done()
			h.Add(&fakeSink{id: id})
			h.Remove(id)
		}()
		go func() {
			defer wg.Done()
			h.Publish(protocol.Snapshot{})
		}()
	}
	wg.Wait()
	if h.Len() != 0 {
		t.Fatalf("Len = %d after all removes", h.Len())
	}
}
