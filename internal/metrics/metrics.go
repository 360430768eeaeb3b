package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics collects process-wide game counters. All methods are safe for
// concurrent use.
type Metrics struct {
	// Engine metrics
	ticks              atomic.Int64
	snapshotsPublished atomic.Int64

	// Aircraft metrics
	aircraftSpawned  atomic.Int64
	aircraftDeparted atomic.Int64
	aircraftResolved atomic.Int64

	// Guess metrics
	guessesCorrect  atomic.Int64
	guessesWrong    atomic.Int64
	guessesRejected atomic.Int64

	// Viewer metrics
	viewersConnected    atomic.Int64
	deliveriesDropped   atomic.Int64
	commandsRateLimited atomic.Int64

	startTime time.Time
}

// New creates a new metrics collector
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrementTicks()              { m.ticks.Add(1) }
func (m *Metrics) IncrementSnapshotsPublished() { m.snapshotsPublished.Add(1) }

func (m *Metrics) AddAircraftSpawned(n int)   { m.aircraftSpawned.Add(int64(n)) }
func (m *Metrics) AddAircraftDeparted(n int)  { m.aircraftDeparted.Add(int64(n)) }
func (m *Metrics) IncrementAircraftResolved() { m.aircraftResolved.Add(1) }

func (m *Metrics) IncrementGuessesCorrect()  { m.guessesCorrect.Add(1) }
func (m *Metrics) IncrementGuessesWrong()    { m.guessesWrong.Add(1) }
func (m *Metrics) IncrementGuessesRejected() { m.guessesRejected.Add(1) }

func (m *Metrics) ViewerConnected()    { m.viewersConnected.Add(1) }
func (m *Metrics) ViewerDisconnected() { m.viewersConnected.Add(-1) }

func (m *Metrics) IncrementDeliveriesDropped()   { m.deliveriesDropped.Add(1) }
func (m *Metrics) IncrementCommandsRateLimited() { m.commandsRateLimited.Add(1) }

func (m *Metrics) GetTicks() int64              { return m.ticks.Load() }
func (m *Metrics) GetSnapshotsPublished() int64 { return m.snapshotsPublished.Load() }
func (m *Metrics) GetViewersConnected() int64   { return m.viewersConnected.Load() }
func (m *Metrics) GetDeliveriesDropped() int64  { return m.deliveriesDropped.Load() }

func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.startTime)
}

// Snapshot represents a point-in-time snapshot of all metrics
type Snapshot struct {
	Ticks              int64 `json:"ticks"`
	SnapshotsPublished int64 `json:"snapshots_published"`

	AircraftSpawned  int64 `json:"aircraft_spawned"`
	AircraftDeparted int64 `json:"aircraft_departed"`
	AircraftResolved int64 `json:"aircraft_resolved"`

	GuessesCorrect  int64 `json:"guesses_correct"`
	GuessesWrong    int64 `json:"guesses_wrong"`
	GuessesRejected int64 `json:"guesses_rejected"`

	ViewersConnected    int64 `json:"viewers_connected"`
	DeliveriesDropped   int64 `json:"deliveries_dropped"`
	CommandsRateLimited int64 `json:"commands_rate_limited"`

	UptimeSeconds int64 `json:"uptime_seconds"`
	Timestamp     int64 `json:"timestamp"`
}

// GetSnapshot returns a snapshot of all current metrics
func (m *Metrics) GetSnapshot() *Snapshot {
	return &Snapshot{
		Ticks:               m.ticks.Load(),
		SnapshotsPublished:  m.snapshotsPublished.Load(),
		AircraftSpawned:     m.aircraftSpawned.Load(),
		AircraftDeparted:    m.aircraftDeparted.Load(),
		AircraftResolved:    m.aircraftResolved.Load(),
		GuessesCorrect:      m.guessesCorrect.Load(),
		GuessesWrong:        m.guessesWrong.Load(),
		GuessesRejected:     m.guessesRejected.Load(),
		ViewersConnected:    m.viewersConnected.Load(),
		DeliveriesDropped:   m.deliveriesDropped.Load(),
		CommandsRateLimited: m.commandsRateLimited.Load(),
		UptimeSeconds:       int64(m.GetUptime().Seconds()),
		Timestamp:           time.Now().Unix(),
	}
}
