package airspace

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// Airport is a possible destination. Lat/Lon decide which side of the
// airspace an aircraft bound for it leaves through.
type Airport struct {
	Code string  `yaml:"code"`
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// DefaultAirports is the destination set used when the configuration has none.
var DefaultAirports = []Airport{
	{Code: "JFK", Name: "New York JFK", Lat: 40.6413, Lon: -73.7781},
	{Code: "LGA", Name: "New York LaGuardia", Lat: 40.7769, Lon: -73.8740},
	{Code: "EWR", Name: "Newark", Lat: 40.6895, Lon: -74.1745},
	{Code: "BOS", Name: "Boston Logan", Lat: 42.3656, Lon: -71.0096},
	{Code: "ATL", Name: "Atlanta", Lat: 33.6407, Lon: -84.4277},
	{Code: "ORD", Name: "Chicago O'Hare", Lat: 41.9742, Lon: -87.9073},
	{Code: "MIA", Name: "Miami", Lat: 25.7959, Lon: -80.2870},
	{Code: "DFW", Name: "Dallas Fort Worth", Lat: 32.8998, Lon: -97.0403},
	{Code: "LAX", Name: "Los Angeles", Lat: 33.9416, Lon: -118.4085},
	{Code: "LHR", Name: "London Heathrow", Lat: 51.4700, Lon: -0.4543},
}

// DefaultAirlines are the ICAO airline prefixes used to build flight ids.
var DefaultAirlines = []string{"AAL", "DAL", "UAL", "JBU", "SWA", "BAW", "DLH", "AFR"}

// NormalizeCode folds an airport code typed by a player into canonical form:
// surrounding space trimmed, full-width characters narrowed and upper-cased,
// so " jfk " and "ｊｆｋ" both become "JFK".
func NormalizeCode(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	return cases.Upper(language.Und).String(s)
}

// ValidCode reports whether a normalised code looks like an IATA or ICAO
// airport code: three or four ASCII letters.
func ValidCode(code string) bool {
	if len(code) < 3 || len(code) > 4 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
