package protocol

import "fmt"

// Inbound message types.
const (
	MsgGuess          = "guess"
	MsgToggleGameMode = "toggleGameMode"
	MsgStartGame      = "startGame"
	MsgStopGame       = "stopGame"
)

// Outbound acknowledgement types. Snapshots carry no type tag.
const (
	MsgGuessResult = "guessResult"
	MsgError       = "error"
)

// Error codes sent in Error acknowledgements.
const (
	CodeUnknownAircraft = "unknown_aircraft"
	CodeAlreadyResolved = "already_resolved"
	CodeInvalidCommand  = "invalid_command"
	CodeRateLimited     = "rate_limited"
	CodeAlreadyRunning  = "already_running"
	CodeNotRunning      = "not_running"
	CodeInternal        = "internal"
)

type Encoding int

const (
	JSON Encoding = iota
	MsgPack
)

func (e Encoding) String() string {
	return [...]string{
		"json",
		"msgpack",
	}[e]
}

// ParseEncoding maps the ?encoding= query value to an Encoding. An empty
// value selects JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	}
	return JSON, fmt.Errorf("unsupported encoding %q", s)
}

// Command is any inbound message. Fields not used by Type are empty.
type Command struct {
	Type    string `json:"type" msgpack:"type"`
	Player  string `json:"player,omitempty" msgpack:"player,omitempty"`
	PlaneID string `json:"planeId,omitempty" msgpack:"planeId,omitempty"`
	Airport string `json:"airport,omitempty" msgpack:"airport,omitempty"`
}

// PlaneView is the public part of an aircraft. It deliberately has no
// destination field.
type PlaneView struct {
	Altitude float64 `json:"altitude" msgpack:"altitude"`
	Lat      float64 `json:"lat" msgpack:"lat"`
	Lon      float64 `json:"lon" msgpack:"lon"`
	Heading  float64 `json:"heading" msgpack:"heading"`
	Speed    float64 `json:"speed" msgpack:"speed"`
	Progress float64 `json:"progress" msgpack:"progress"`
	Resolved bool    `json:"resolved" msgpack:"resolved"`
}

// Snapshot is the full public game state pushed to every viewer.
type Snapshot struct {
	ActivePlanes map[string]PlaneView `json:"activePlanes" msgpack:"activePlanes"`
	Scores       map[string]int       `json:"scores" msgpack:"scores"`
	GameMode     bool                 `json:"gameMode" msgpack:"gameMode"`
	Tick         uint64               `json:"tick" msgpack:"tick"`
}

// GuessResult acknowledges an evaluated guess to the viewer that sent it.
type GuessResult struct {
	Type    string `json:"type" msgpack:"type"`
	PlaneID string `json:"planeId" msgpack:"planeId"`
	Correct bool   `json:"correct" msgpack:"correct"`
	Points  int    `json:"points" msgpack:"points"`
	Score   int    `json:"score" msgpack:"score"`
}

func NewGuessResult(planeID string, correct bool, points, score int) GuessResult {
	return GuessResult{Type: MsgGuessResult, PlaneID: planeID, Correct: correct, Points: points, Score: score}
}

// Error reports a rejected command to the viewer that sent it.
type Error struct {
	Type    string `json:"type" msgpack:"type"`
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}

func NewError(code, message string) Error {
	return Error{Type: MsgError, Code: code, Message: message}
}
