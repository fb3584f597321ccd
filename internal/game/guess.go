// internal/game/guess.go
//
// Guess variants and duplicate-key construction.
//
// The caller decides which variant it is submitting; ParseGuess converts the
// loose wire form (nil for a tile submission, a code, or four pipe-joined
// codes in expert mode) into a variant.

package game

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Guess is one of TileSubmission, AttributeGuess or ExpertGuess.
type Guess interface{ isGuess() }

// TileSubmission submits the currently filled bucket(s).
type TileSubmission struct{}

// AttributeGuess names the code shared by the one submitted bucket.
type AttributeGuess struct{ Code string }

// ExpertGuess names one code per bucket, in tier order.
type ExpertGuess struct{ Codes [NumTiers]string }

func (TileSubmission) isGuess() {}
func (AttributeGuess) isGuess() {}
func (ExpertGuess) isGuess()    {}

// Input renders the expert guess in its pipe-joined wire form.
func (g ExpertGuess) Input() string { return strings.Join(g.Codes[:], "|") }

var ErrMalformedGuess = errors.New("game: malformed guess")

// ParseGuess converts the wire form into a Guess for mode.
func ParseGuess(mode Mode, input *string) (Guess, error) {
	if input == nil {
		return TileSubmission{}, nil
	}
	raw := strings.TrimSpace(*input)
	if mode != ModeExpert {
		if raw == "" || strings.Contains(raw, "|") {
			return nil, ErrMalformedGuess
		}
		return AttributeGuess{Code: raw}, nil
	}
	parts := strings.Split(raw, "|")
	if len(parts) != NumTiers {
		return nil, ErrMalformedGuess
	}
	var g ExpertGuess
	for i, p := range parts {
		g.Codes[i] = strings.TrimSpace(p)
	}
	return g, nil
}

func sortedIDs(ids []int) string {
	s := slices.Sorted(slices.Values(ids))
	return strings.Join(lo.Map(s, func(id int, _ int) string { return strconv.Itoa(id) }), ",")
}

// TileSubmissionKey is the guess-history key of a tile submission. Expert
// keys list every evaluated bucket so that regrouping the same tiles is a
// new attempt.
func TileSubmissionKey(mode Mode, groups ...[]int) string {
	if mode == ModeExpert {
		parts := lo.Map(groups, func(g []int, _ int) string { return sortedIDs(g) })
		return "tile-submission:expert:" + strings.Join(parts, "|")
	}
	return "tile:" + sortedIDs(lo.Flatten(groups))
}

// AttributeGuessKey is the guess-history key of an attribute guess. Expert
// keys depend on the input alone.
func AttributeGuessKey(mode Mode, tiles []int, input string) string {
	if mode == ModeExpert {
		return "expert:" + input
	}
	return sortedIDs(tiles) + ":" + input
}
