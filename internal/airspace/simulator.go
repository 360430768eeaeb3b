package airspace

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/curbz/planeguess/pkg/geometry"
	"github.com/sirupsen/logrus"
)

// Config shapes the simulated airspace. It is decoded straight from the
// airspace section of the server's YAML file.
type Config struct {
	CenterLat          float64   `yaml:"center_lat"`
	CenterLon          float64   `yaml:"center_lon"`
	RadiusNM           float64   `yaml:"radius_nm"`
	AltitudeMinFt      float64   `yaml:"altitude_min_ft"`
	AltitudeMaxFt      float64   `yaml:"altitude_max_ft"`
	AltitudeJitterFt   float64   `yaml:"altitude_jitter_ft"`
	ClimbRateFPM       float64   `yaml:"climb_rate_fpm"`
	SpeedMinKts        float64   `yaml:"speed_min_kts"`
	SpeedMaxKts        float64   `yaml:"speed_max_kts"`
	TimeScale          float64   `yaml:"time_scale"`
	ExitJitterDeg      float64   `yaml:"exit_jitter_deg"`
	TargetDensity      int       `yaml:"target_density"`
	ResolvedGraceTicks uint64    `yaml:"resolved_grace_ticks"`
	Airports           []Airport `yaml:"airports"`
	Airlines           []string  `yaml:"airlines"`
}

// DefaultConfig centres a 60NM airspace on New York.
func DefaultConfig() Config {
	return Config{
		CenterLat:          40.7,
		CenterLon:          -74.0,
		RadiusNM:           60,
		AltitudeMinFt:      5000,
		AltitudeMaxFt:      38000,
		AltitudeJitterFt:   50,
		ClimbRateFPM:       2000,
		SpeedMinKts:        250,
		SpeedMaxKts:        480,
		TimeScale:          10,
		ExitJitterDeg:      20,
		TargetDensity:      5,
		ResolvedGraceTicks: 3,
		Airports:           slices.Clone(DefaultAirports),
		Airlines:           slices.Clone(DefaultAirlines),
	}
}

// Validate checks the values the simulator divides by or samples from.
func (c Config) Validate() error {
	switch {
	case c.RadiusNM <= 0:
		return fmt.Errorf("airspace radius must be positive, got %v", c.RadiusNM)
	case c.AltitudeMaxFt < c.AltitudeMinFt:
		return fmt.Errorf("altitude band inverted: %v > %v", c.AltitudeMinFt, c.AltitudeMaxFt)
	case c.SpeedMinKts <= 0 || c.SpeedMaxKts < c.SpeedMinKts:
		return fmt.Errorf("invalid speed band %v..%v", c.SpeedMinKts, c.SpeedMaxKts)
	case c.TimeScale <= 0:
		return fmt.Errorf("time scale must be positive, got %v", c.TimeScale)
	case c.TargetDensity < 0:
		return fmt.Errorf("target density must not be negative, got %d", c.TargetDensity)
	case len(c.Airports) == 0:
		return fmt.Errorf("at least one destination airport is required")
	case len(c.Airlines) == 0:
		return fmt.Errorf("at least one airline is required")
	}
	for _, ap := range c.Airports {
		if !ValidCode(NormalizeCode(ap.Code)) {
			return fmt.Errorf("invalid airport code %q", ap.Code)
		}
	}
	return nil
}

// Simulator owns the aircraft in the airspace. It is not safe for concurrent
// use; the game engine is its only caller.
type Simulator struct {
	cfg      Config
	rng      *rand.Rand
	log      logrus.FieldLogger
	aircraft map[string]*Aircraft
	now      func() time.Time
}

func New(cfg Config, rng *rand.Rand, log logrus.FieldLogger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg.Airports = slices.Clone(cfg.Airports)
	for i := range cfg.Airports {
		cfg.Airports[i].Code = NormalizeCode(cfg.Airports[i].Code)
	}
	return &Simulator{
		cfg:      cfg,
		rng:      rng,
		log:      log.WithField("component", "airspace"),
		aircraft: make(map[string]*Aircraft),
		now:      time.Now,
	}, nil
}

func (s *Simulator) Config() Config {
	return s.cfg
}

// Spawn creates one aircraft on the airspace boundary, routed across it
// towards the side its destination lies on.
func (s *Simulator) Spawn(tick uint64) (*Aircraft, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	dest := s.cfg.Airports[s.rng.Intn(len(s.cfg.Airports))]
	c := s.cfg

	exitBearing := geometry.BearingDeg(c.CenterLat, c.CenterLon, dest.Lat, dest.Lon) + s.jitter(c.ExitJitterDeg)
	entryBearing := exitBearing + 180 + s.jitter(60)

	entryLat, entryLon := geometry.DestinationPoint(c.CenterLat, c.CenterLon, entryBearing, c.RadiusNM)
	exitLat, exitLon := geometry.DestinationPoint(c.CenterLat, c.CenterLon, exitBearing, c.RadiusNM)

	ac := &Aircraft{
		ID:             id,
		Position:       Position{Lat: entryLat, Lon: entryLon},
		Altitude:       s.between(c.AltitudeMinFt, c.AltitudeMaxFt),
		TargetAltitude: s.between(c.AltitudeMinFt, c.AltitudeMaxFt),
		Heading:        geometry.BearingDeg(entryLat, entryLon, exitLat, exitLon),
		Speed:          s.between(c.SpeedMinKts, c.SpeedMaxKts),
		Destination:    dest.Code,
		Status:         Airborne,
		SpawnedAt:      s.now(),
		SpawnTick:      tick,
		entry:          Position{Lat: entryLat, Lon: entryLon},
		exit:           Position{Lat: exitLat, Lon: exitLon},
		routeNM:        geometry.DistNM(entryLat, entryLon, exitLat, exitLon),
	}
	s.aircraft[id] = ac

	s.log.WithFields(logrus.Fields{
		"id":      id,
		"heading": math.Round(ac.Heading),
		"alt":     math.Round(ac.Altitude),
		"route":   math.Round(ac.routeNM),
	}).Debug("aircraft entered airspace")

	return ac, nil
}

// Fill spawns aircraft until the airborne count reaches the target density.
func (s *Simulator) Fill(tick uint64) []*Aircraft {
	var spawned []*Aircraft
	for s.AirborneCount() < s.cfg.TargetDensity {
		ac, err := s.Spawn(tick)
		if err != nil {
			s.log.Warnf("spawn failed: %v", err)
			break
		}
		spawned = append(spawned, ac)
	}
	return spawned
}

// Advance moves every aircraft along its route by dt of wall time scaled by
// the configured time scale. Aircraft that reach the boundary, and resolved
// aircraft whose grace period has run out, are removed and returned.
func (s *Simulator) Advance(dt time.Duration, tick uint64) []*Aircraft {
	if dt <= 0 {
		return nil
	}
	c := s.cfg
	hours := dt.Hours() * c.TimeScale
	maxStep := c.ClimbRateFPM * dt.Minutes() * c.TimeScale

	var removed []*Aircraft
	for _, id := range slices.Sorted(maps.Keys(s.aircraft)) {
		ac := s.aircraft[id]

		if ac.Status == Resolved && tick-ac.ResolvedTick >= c.ResolvedGraceTicks {
			delete(s.aircraft, id)
			removed = append(removed, ac)
			continue
		}

		if ac.routeNM > 0 {
			ac.Progress += ac.Speed * hours / ac.routeNM
		} else {
			ac.Progress = 1
		}
		if ac.Progress >= 1 {
			ac.Progress = 1
			ac.Position = ac.exit
			if ac.Status == Airborne {
				ac.Status = DepartedArea
			}
			delete(s.aircraft, id)
			removed = append(removed, ac)
			s.log.WithField("id", id).Debugf("aircraft left airspace (%s)", ac.Status)
			continue
		}

		lat, lon := geometry.Interpolate(ac.entry.Lat, ac.entry.Lon, ac.exit.Lat, ac.exit.Lon, ac.Progress)
		ac.Position = Position{Lat: lat, Lon: lon}

		diff := ac.TargetAltitude - ac.Altitude
		step := math.Max(-maxStep, math.Min(maxStep, diff))
		ac.Altitude = math.Max(c.AltitudeMinFt, math.Min(c.AltitudeMaxFt, ac.Altitude+step+s.jitter(c.AltitudeJitterFt)))
		if math.Abs(ac.TargetAltitude-ac.Altitude) < 100 && s.rng.Float64() < 0.05 {
			ac.TargetAltitude = s.between(c.AltitudeMinFt, c.AltitudeMaxFt)
		}
	}
	return removed
}

// Resolve marks an airborne aircraft as guessed. It fails with
// ErrUnknownAircraft or ErrAlreadyResolved and never resolves twice.
func (s *Simulator) Resolve(id, player string, tick uint64) (*Aircraft, error) {
	ac, ok := s.aircraft[id]
	if !ok {
		return nil, ErrUnknownAircraft
	}
	if ac.Status != Airborne {
		return ac, ErrAlreadyResolved
	}
	ac.Status = Resolved
	ac.ResolvedTick = tick
	ac.ResolvedBy = player
	return ac, nil
}

// Clear removes every aircraft.
func (s *Simulator) Clear() {
	clear(s.aircraft)
}

func (s *Simulator) Get(id string) (*Aircraft, bool) {
	ac, ok := s.aircraft[id]
	return ac, ok
}

// Active returns the aircraft currently in the airspace ordered by id.
func (s *Simulator) Active() []*Aircraft {
	out := make([]*Aircraft, 0, len(s.aircraft))
	for _, id := range slices.Sorted(maps.Keys(s.aircraft)) {
		out = append(out, s.aircraft[id])
	}
	return out
}

func (s *Simulator) Len() int {
	return len(s.aircraft)
}

// AirborneCount excludes resolved aircraft still inside their grace period.
func (s *Simulator) AirborneCount() int {
	n := 0
	for _, ac := range s.aircraft {
		if ac.Status == Airborne {
			n++
		}
	}
	return n
}

func (s *Simulator) newID() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		airline := s.cfg.Airlines[s.rng.Intn(len(s.cfg.Airlines))]
		id := fmt.Sprintf("%s%d", airline, 100+s.rng.Intn(9900))
		if _, taken := s.aircraft[id]; !taken {
			return id, nil
		}
	}
	return "", ErrNoCallsign
}

func (s *Simulator) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// jitter returns a value uniformly distributed in [-amp, amp).
func (s *Simulator) jitter(amp float64) float64 {
	return (s.rng.Float64()*2 - 1) * amp
}
