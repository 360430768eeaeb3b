package game

import (
	"strings"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/sirupsen/logrus"
)

type Guess struct {
	Player     string
	AircraftID string
	Airport    string
}

// Result is the outcome of an evaluated guess. It never carries the true
// destination.
type Result struct {
	AircraftID string
	Correct    bool
	Points     int
	Score      int
}

// Evaluate checks a guess against the aircraft's destination. A correct
// guess resolves the aircraft and awards points in the same call, so no
// snapshot can see one without the other.
func (s *State) Evaluate(g Guess) (Result, error) {
	player := strings.TrimSpace(g.Player)
	id := strings.TrimSpace(g.AircraftID)
	code := airspace.NormalizeCode(g.Airport)
	if player == "" || id == "" || !airspace.ValidCode(code) {
		return Result{}, ErrInvalidCommand
	}

	if s.mode != Running {
		return Result{}, ErrUnknownAircraft
	}
	ac, ok := s.sim.Get(id)
	if !ok {
		return Result{}, ErrUnknownAircraft
	}
	if ac.Status != airspace.Airborne {
		return Result{}, ErrAlreadyResolved
	}

	log := s.log.WithFields(logrus.Fields{"player": player, "aircraft": id})

	if code != ac.Destination {
		s.scores.RecordAttempt(player, false)
		log.Debugf("wrong guess %s", code)
		return Result{AircraftID: id, Score: s.scores.Score(player)}, nil
	}

	if _, err := s.sim.Resolve(id, player, s.tick); err != nil {
		return Result{}, err
	}
	points := s.settings.PointsCorrect
	score := s.scores.AwardPoints(player, points)
	s.scores.RecordAttempt(player, true)
	log.Infof("correct guess, +%d (score %d)", points, score)

	return Result{AircraftID: id, Correct: true, Points: points, Score: score}, nil
}
