package game

import (
	"errors"

	"github.com/curbz/planeguess/internal/airspace"
)

var (
	ErrUnknownAircraft = airspace.ErrUnknownAircraft
	ErrAlreadyResolved = airspace.ErrAlreadyResolved
	ErrInvalidCommand  = errors.New("invalid command")
	ErrAlreadyRunning  = errors.New("game already running")
	ErrNotRunning      = errors.New("game not running")
	ErrEngineStopped   = errors.New("engine stopped")
)
