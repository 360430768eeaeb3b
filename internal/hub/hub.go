package hub

import (
	"sync"

	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Sink is one connected viewer. Deliver must not block: a viewer that
// cannot take the frame straight away drops it and reports false.
type Sink interface {
	ID() string
	Encoding() protocol.Encoding
	Deliver(frame []byte) bool
}

// Hub is the registry of connected viewers and fans snapshots out to them.
type Hub struct {
	mu      sync.RWMutex
	sinks   map[string]Sink
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func New(log logrus.FieldLogger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Hub{
		sinks:   make(map[string]Sink),
		log:     log.WithField("component", "hub"),
		metrics: m,
	}
}

// Add registers a sink, replacing any sink with the same id.
func (h *Hub) Add(s Sink) {
	h.mu.Lock()
	h.sinks[s.ID()] = s
	h.mu.Unlock()
	h.log.WithField("viewer", s.ID()).Debug("viewer registered")
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	_, ok := h.sinks[id]
	delete(h.sinks, id)
	h.mu.Unlock()
	if ok {
		h.log.WithField("viewer", id).Debug("viewer removed")
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks)
}

// Publish sends snap to every registered sink. Each encoding in use is
// encoded once.
func (h *Hub) Publish(snap protocol.Snapshot) {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.sinks))
	for _, s := range h.sinks {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()

	frames := make(map[protocol.Encoding][]byte, 2)
	for _, s := range sinks {
		enc := s.Encoding()
		frame, ok := frames[enc]
		if !ok {
			var err error
			frame, err = protocol.Encode(enc, snap)
			if err != nil {
				h.log.Errorf("encode snapshot as %s: %v", enc, err)
				continue
			}
			frames[enc] = frame
		}
		if !s.Deliver(frame) {
			h.metrics.IncrementDeliveriesDropped()
		}
	}
	h.metrics.IncrementSnapshotsPublished()
}

// SendTo delivers snap to a single sink, used to bring a new viewer up to date.
func (h *Hub) SendTo(s Sink, snap protocol.Snapshot) bool {
	frame, err := protocol.Encode(s.Encoding(), snap)
	if err != nil {
		h.log.Errorf("encode snapshot for %s: %v", s.ID(), err)
		return false
	}
	if !s.Deliver(frame) {
		h.metrics.IncrementDeliveriesDropped()
		return false
	}
	return true
}
