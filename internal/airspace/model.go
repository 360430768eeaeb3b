package airspace

import (
	"errors"
	"time"
)

var (
	ErrUnknownAircraft = errors.New("unknown aircraft")
	ErrAlreadyResolved = errors.New("aircraft already resolved")
	ErrNoCallsign      = errors.New("no free callsign")
)

type Status int

const (
	Airborne     Status = iota // Flying through the airspace, open for guesses.
	Resolved                   // Destination guessed correctly, kept for a grace period.
	DepartedArea               // Reached the airspace boundary, removed on the same tick.
)

func (s Status) String() string {
	return [...]string{
		"Airborne",
		"Resolved",
		"Departed Area",
	}[s]
}

// Position
type Position struct {
	Lat float64
	Lon float64
}

// Aircraft is a simulated flight. Destination is server-side only and must
// never be copied into anything sent to viewers.
type Aircraft struct {
	ID             string
	Position       Position
	Altitude       float64 // feet
	TargetAltitude float64
	Heading        float64 // degrees true
	Speed          float64 // knots
	Progress       float64 // 0..1 along the route
	Destination    string
	Status         Status
	SpawnedAt      time.Time
	SpawnTick      uint64
	ResolvedTick   uint64
	ResolvedBy     string

	entry   Position
	exit    Position
	routeNM float64
}

// RouteNM is the length of the aircraft's track through the airspace.
func (ac *Aircraft) RouteNM() float64 {
	return ac.routeNM
}
