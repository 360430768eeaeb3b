package game

import (
	"time"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/sirupsen/logrus"
)

type Mode int

const (
	Idle Mode = iota
	Running
)

func (m Mode) String() string {
	return [...]string{
		"Idle",
		"Running",
	}[m]
}

// Settings are the game rules that are not part of the airspace.
type Settings struct {
	TickInterval  time.Duration
	PointsCorrect int
}

// State is the whole authoritative game: session mode, tick counter,
// aircraft and scoreboard. It is not safe for concurrent use; Engine
// serialises every access to it.
type State struct {
	mode     Mode
	tick     uint64
	settings Settings
	sim      *airspace.Simulator
	scores   *Scoreboard
	log      logrus.FieldLogger
}

// TickResult describes what one clock fire did.
type TickResult struct {
	Advanced bool
	Spawned  []*airspace.Aircraft
	Removed  []*airspace.Aircraft
}

func NewState(settings Settings, sim *airspace.Simulator, log logrus.FieldLogger) *State {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &State{
		mode:     Idle,
		settings: settings,
		sim:      sim,
		scores:   NewScoreboard(),
		log:      log.WithField("component", "session"),
	}
}

func (s *State) Mode() Mode              { return s.mode }
func (s *State) Tick() uint64            { return s.tick }
func (s *State) Scoreboard() *Scoreboard { return s.scores }

// Start moves idle to running. The airspace starts empty and is filled by
// the first running tick.
func (s *State) Start() error {
	if s.mode == Running {
		return ErrAlreadyRunning
	}
	s.mode = Running
	s.log.WithField("players", s.scores.Len()).Info("game started")
	return nil
}

// Stop moves running to idle and clears every aircraft. Scores are kept.
func (s *State) Stop() error {
	if s.mode == Idle {
		return ErrNotRunning
	}
	s.mode = Idle
	s.sim.Clear()
	s.log.WithField("players", s.scores.Len()).Info("game stopped")
	return nil
}

// Toggle starts or stops depending on the mode when it runs and returns the
// resulting mode.
func (s *State) Toggle() (Mode, error) {
	if s.mode == Running {
		return s.mode, s.Stop()
	}
	return s.mode, s.Start()
}

// Advance handles one clock fire. The tick counter always moves; the world
// only moves while running.
func (s *State) Advance() TickResult {
	s.tick++
	if s.mode != Running {
		return TickResult{}
	}
	removed := s.sim.Advance(s.settings.TickInterval, s.tick)
	spawned := s.sim.Fill(s.tick)
	return TickResult{Advanced: true, Spawned: spawned, Removed: removed}
}

// Snapshot builds the public view. Destinations are never copied out.
func (s *State) Snapshot() protocol.Snapshot {
	active := s.sim.Active()
	planes := make(map[string]protocol.PlaneView, len(active))
	for _, ac := range active {
		planes[ac.ID] = protocol.PlaneView{
			Altitude: ac.Altitude,
			Lat:      ac.Position.Lat,
			Lon:      ac.Position.Lon,
			Heading:  ac.Heading,
			Speed:    ac.Speed,
			Progress: ac.Progress,
			Resolved: ac.Status == airspace.Resolved,
		}
	}
	return protocol.Snapshot{
		ActivePlanes: planes,
		Scores:       s.scores.Scores(),
		GameMode:     s.mode == Running,
		Tick:         s.tick,
	}
}
