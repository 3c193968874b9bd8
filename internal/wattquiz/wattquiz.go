// Package wattquiz defines the core domain types shared by the game,
// question generator and storage packages.
// Apart from uuid it has no external dependencies.
package wattquiz

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxUsernameLength is the longest accepted username, in runes.
const MaxUsernameLength = 20

// QuestionsPerSession is the fixed length of a session's question program.
const QuestionsPerSession = 20

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("not found")

// Fact is a content record: an activity and the energy it consumes in Wh.
type Fact struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Consumption uint64 `json:"consumption"`
	ImagePath   string `json:"imagePath,omitempty"`
}

// Filter constrains a random fact lookup. A zero Max means unbounded.
type Filter struct {
	Min           uint64
	Max           uint64
	ExcludeIDs    []string
	ExcludeValues []uint64
}

// Matches reports whether f satisfies the filter.
func (flt Filter) Matches(f Fact) bool {
	if f.Consumption < flt.Min {
		return false
	}
	if flt.Max != 0 && f.Consumption > flt.Max {
		return false
	}
	return !slices.Contains(flt.ExcludeIDs, f.ID) && !slices.Contains(flt.ExcludeValues, f.Consumption)
}

type Mode string

const (
	ModeSingleplayer Mode = "SINGLEPLAYER"
	ModeMultiplayer  Mode = "MULTIPLAYER"
)

func (m Mode) Valid() bool {
	return m == ModeSingleplayer || m == ModeMultiplayer
}

// Player is a participant of one session.
type Player struct {
	Username string `json:"username"`
	Points   int32  `json:"points"`
}

// ScoreEntry is one leaderboard row.
type ScoreEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// NormalizeUsername trims surrounding whitespace.
func NormalizeUsername(name string) string {
	return strings.TrimSpace(name)
}

// UsernameTooLong reports whether name exceeds MaxUsernameLength runes.
func UsernameTooLong(name string) bool {
	return utf8.RuneCountInString(name) > MaxUsernameLength
}
