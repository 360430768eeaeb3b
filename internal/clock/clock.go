package clock

import "time"

// Ticker is the engine's only source of time-driven mutation.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker firing every d.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Manual is a Ticker that only fires when told to. Fire blocks until the
// receiver has taken the tick, so a test knows the tick is being processed.
type Manual struct {
	ch chan time.Time
}

func NewManual() *Manual {
	return &Manual{ch: make(chan time.Time)}
}

func (m *Manual) C() <-chan time.Time { return m.ch }
func (m *Manual) Stop()               {}

// Fire delivers one tick stamped with the current time.
func (m *Manual) Fire() {
	m.ch <- time.Now()
}
