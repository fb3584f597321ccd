// internal/game/types.go
//
// Core type definitions for the puzzle game-state engine.
// Defines:
//   - Difficulty and Mode enums plus per-mode defaults.
//   - Tile and the Catalog lookup contract.
//   - SolvedRow, Event, Feedback and HintState.
//   - State: one snapshot of a game session. Transitions never mutate a
//     State they were given; they Clone it and return the copy.

package game

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	NumTiers  = 4                    // buckets / solved rows per puzzle
	GroupSize = 4                    // tiles per group
	GridSize  = NumTiers * GroupSize // tiles per puzzle
)

// Difficulty is the tier a group of tiles belongs to. Bucket i and display
// row i are bound to Difficulty(i).
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
	Expert
)

// DifficultyUnknown marks a tile whose catalog record carries no tier.
const DifficultyUnknown Difficulty = -1

var difficultyNames = [NumTiers]string{"easy", "medium", "hard", "expert"}

// Valid reports whether d is one of the four tiers.
func (d Difficulty) Valid() bool { return d >= Easy && d <= Expert }

func (d Difficulty) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return difficultyNames[d]
}

// ParseDifficulty maps "easy".."expert" (any case) to a Difficulty.
// "unknown" parses to DifficultyUnknown so String round-trips.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "unknown" {
		return DifficultyUnknown, true
	}
	for i, n := range difficultyNames {
		if n == s {
			return Difficulty(i), true
		}
	}
	return DifficultyUnknown, false
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, ok := ParseDifficulty(string(b))
	if !ok && strings.TrimSpace(string(b)) != "" {
		return fmt.Errorf("game: unknown difficulty %q", string(b))
	}
	*d = v
	return nil
}

// Mode selects the rule set for a session.
type Mode string

const (
	ModeEasy   Mode = "easy"
	ModeNormal Mode = "normal"
	ModeExpert Mode = "expert"
)

// UnlimitedMistakes is the MistakesLeft value of an easy-mode session.
const UnlimitedMistakes = -1

// ParseMode accepts "easy", "normal" or "expert". An empty string is normal.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeEasy:
		return ModeEasy, true
	case ModeNormal, "":
		return ModeNormal, true
	case ModeExpert:
		return ModeExpert, true
	}
	return ModeNormal, false
}

// MistakeBudget returns the starting MistakesLeft for the mode.
func (m Mode) MistakeBudget() int {
	switch m {
	case ModeEasy:
		return UnlimitedMistakes
	case ModeExpert:
		return 2
	default:
		return 4
	}
}

// Tile is one immutable catalog record. ID is the tile's position in the
// catalog and is the only identity used by the engine.
type Tile struct {
	ID         int               `json:"id"`
	Code       string            `json:"countryCode,omitempty"`
	Difficulty Difficulty        `json:"difficulty"`
	ImageRef   string            `json:"imageRef,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Catalog resolves tile IDs to records.
type Catalog interface {
	Tile(id int) (Tile, bool)
	Len() int
}

// TileList is a Catalog backed by a slice; a tile's ID is its index.
type TileList []Tile

func (l TileList) Tile(id int) (Tile, bool) {
	if id < 0 || id >= len(l) {
		return Tile{}, false
	}
	return l[id], true
}

func (l TileList) Len() int { return len(l) }

// SolvedRow is a locked-in group for one tier.
type SolvedRow struct {
	Tiles      []int      `json:"tileIndexes"`
	Difficulty Difficulty `json:"difficulty"`
}

// EventKind labels an entry of the attempt log.
type EventKind string

const (
	EventTileGuess  EventKind = "tile_guess"
	EventGroupGuess EventKind = "group_guess"
	EventHintUse    EventKind = "hint_use"
)

// Event is one entry of the attempt log used to build share summaries.
// Named is false only for easy-mode skips.
type Event struct {
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`
	Tiles   []int     `json:"tiles"`
	Correct bool      `json:"isCorrect"`
	Named   bool      `json:"named"`
}

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
	FeedbackWarning FeedbackKind = "warning"
	FeedbackInfo    FeedbackKind = "info"
)

// Feedback is the message shown to the player. ID grows on every emission
// so identical consecutive messages are still distinguishable.
type Feedback struct {
	Message string       `json:"message"`
	Kind    FeedbackKind `json:"type"`
	ID      int          `json:"id"`
}

// HintState tracks the hint economy. Left is the replenishable counter,
// TotalUsed the lifetime ledger capped at HintCap.
type HintState struct {
	Armed     bool
	Left      int
	TotalUsed int
	Revealed  map[int]struct{}
}

// State is a full session snapshot.
type State struct {
	Mode         Mode
	MistakesLeft int
	MistakesMade int
	GameOver     bool
	GaveUp       bool
	Completed    bool // a result (win or give-up) was emitted; survives Reset and ChangeMode

	Buckets   [NumTiers][]int
	BucketOf  map[int]int
	Selection []int // insertion order of currently selected tiles
	Solved    []SolvedRow

	ShowAttributeGuess bool
	Hints              HintState

	Order        []int // visual permutation of tile IDs
	Feedback     Feedback
	History      map[string]struct{}
	Attempts     []Event
	TilesToShake []int
}

// Clone returns a deep copy sharing no slices or maps with s.
func (s State) Clone() State {
	c := s
	for i := range s.Buckets {
		c.Buckets[i] = slices.Clone(s.Buckets[i])
	}
	c.BucketOf = maps.Clone(s.BucketOf)
	if c.BucketOf == nil {
		c.BucketOf = map[int]int{}
	}
	c.Selection = slices.Clone(s.Selection)
	c.Solved = make([]SolvedRow, len(s.Solved))
	for i, r := range s.Solved {
		c.Solved[i] = SolvedRow{Tiles: slices.Clone(r.Tiles), Difficulty: r.Difficulty}
	}
	c.Hints.Revealed = maps.Clone(s.Hints.Revealed)
	if c.Hints.Revealed == nil {
		c.Hints.Revealed = map[int]struct{}{}
	}
	c.Order = slices.Clone(s.Order)
	c.History = maps.Clone(s.History)
	if c.History == nil {
		c.History = map[string]struct{}{}
	}
	c.Attempts = make([]Event, len(s.Attempts))
	for i, ev := range s.Attempts {
		ev.Tiles = slices.Clone(ev.Tiles)
		c.Attempts[i] = ev
	}
	c.TilesToShake = slices.Clone(s.TilesToShake)
	return c
}

// IsSolved reports whether tier d already has a solved row.
func (s State) IsSolved(d Difficulty) bool {
	return slices.ContainsFunc(s.Solved, func(r SolvedRow) bool { return r.Difficulty == d })
}

// Won reports whether all four tiers are solved.
func (s State) Won() bool { return len(s.Solved) == NumTiers }

// Finished reports whether the session accepts no further play.
func (s State) Finished() bool { return s.GameOver || s.GaveUp || s.Won() }

// SolvedTile reports whether id belongs to a solved row.
func (s State) SolvedTile(id int) bool {
	return slices.ContainsFunc(s.Solved, func(r SolvedRow) bool { return slices.Contains(r.Tiles, id) })
}

// Revealed reports whether a hint has revealed id.
func (s State) Revealed(id int) bool {
	_, ok := s.Hints.Revealed[id]
	return ok
}

// CanSubmit reports whether the mode's fill requirement is met.
func (s State) CanSubmit() bool {
	if s.Finished() {
		return false
	}
	if s.Mode == ModeExpert {
		return len(s.openTiers()) > 0 && s.allOpenBucketsFull()
	}
	_, ok := s.fullBucket()
	return ok
}

// NamedSolves counts tiers solved by naming the attribute.
func (s State) NamedSolves() int {
	n := 0
	for _, ev := range s.Attempts {
		if ev.Kind == EventGroupGuess && ev.Correct && ev.Named {
			n++
		}
	}
	return n
}
