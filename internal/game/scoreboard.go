package game

import (
	"sort"

	"github.com/mohae/deepcopy"
)

type PlayerStats struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// Scoreboard maps display names to cumulative scores. Names are not unique
// per viewer: two viewers using the same name share one entry.
type Scoreboard struct {
	scores map[string]int
	stats  map[string]*PlayerStats
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{
		scores: make(map[string]int),
		stats:  make(map[string]*PlayerStats),
	}
}

// AwardPoints adds amount to the player's score, creating the entry at zero
// first. It returns the new score.
func (sb *Scoreboard) AwardPoints(player string, amount int) int {
	sb.scores[player] += amount
	sb.player(player).Score = sb.scores[player]
	return sb.scores[player]
}

// RecordAttempt counts a guess for the player's stats. It never touches the
// score.
func (sb *Scoreboard) RecordAttempt(player string, correct bool) {
	st := sb.player(player)
	st.Attempts++
	if correct {
		st.Correct++
	}
}

func (sb *Scoreboard) Score(player string) int {
	return sb.scores[player]
}

// Scores returns a copy of the name to score view.
func (sb *Scoreboard) Scores() map[string]int {
	return deepcopy.Copy(sb.scores).(map[string]int)
}

// Leaders returns every player's stats, highest score first, ties by name.
func (sb *Scoreboard) Leaders() []PlayerStats {
	out := make([]PlayerStats, 0, len(sb.stats))
	for _, st := range sb.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (sb *Scoreboard) Len() int {
	return len(sb.stats)
}

func (sb *Scoreboard) player(name string) *PlayerStats {
	st, ok := sb.stats[name]
	if !ok {
		st = &PlayerStats{Name: name}
		sb.stats[name] = st
	}
	return st
}
