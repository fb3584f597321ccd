// internal/game/share.go
//
// Share summary formatter. Turns the attempt log into a deterministic
// multi-line text block for copy-paste:
//
//	Pano #12 (Easy)
//	🔥 Streak: 3
//	Named: 3/4
//	🟨🟨🟩🟨 ❌
//	🟨🟨🟨🟡 ✅
//	...
//	https://geonections.com/pano
//
// Each group_guess event renders a row. A tile_guess event renders only
// when no later group_guess event covers the same set of tiles.

package game

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultShareLink terminates every summary unless overridden.
const DefaultShareLink = "https://geonections.com/pano"

var (
	tierSquares = [NumTiers]string{"🟨", "🟩", "🟦", "🟪"}
	tierCircles = [NumTiers]string{"🟡", "🟢", "🔵", "🟣"}
)

// ShareInput is everything the formatter needs.
type ShareInput struct {
	Puzzle   int
	Mode     Mode
	Streak   int
	Mistakes int
	Events   []Event
	Revealed map[int]struct{}
	Link     string
}

// Summary assembles formatter input from the session snapshot.
func (s State) Summary(puzzle, streak int) ShareInput {
	return ShareInput{
		Puzzle:   puzzle,
		Mode:     s.Mode,
		Streak:   streak,
		Mistakes: s.MistakesMade,
		Events:   s.Attempts,
		Revealed: s.Hints.Revealed,
	}
}

// FormatShare renders in against cat.
func FormatShare(cat Catalog, in ShareInput) string {
	link := in.Link
	if link == "" {
		link = DefaultShareLink
	}
	header := fmt.Sprintf("Pano #%d", in.Puzzle)
	switch in.Mode {
	case ModeEasy:
		header += " (Easy)"
	case ModeExpert:
		header += " (Expert)"
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	if len(in.Events) == 0 {
		b.WriteString("No attempts recorded.\n")
		b.WriteString(link)
		return b.String()
	}

	fmt.Fprintf(&b, "🔥 Streak: %d\n", in.Streak)
	if in.Mode == ModeEasy {
		named := 0
		for _, ev := range in.Events {
			if ev.Kind == EventGroupGuess && ev.Correct && ev.Named {
				named++
			}
		}
		fmt.Fprintf(&b, "Named: %d/%d\n", named, NumTiers)
	} else {
		fmt.Fprintf(&b, "Mistakes: %d\n", in.Mistakes)
	}

	for i, ev := range in.Events {
		switch ev.Kind {
		case EventGroupGuess:
		case EventTileGuess:
			if namedLater(in.Events[i+1:], ev.Tiles) {
				continue
			}
		default:
			continue
		}
		b.WriteString(emojiRow(cat, ev.Tiles, in.Revealed))
		b.WriteString(" " + resultGlyph(ev) + "\n")
	}
	b.WriteString(link)
	return b.String()
}

func namedLater(rest []Event, tiles []int) bool {
	key := sortedIDs(tiles)
	return slices.ContainsFunc(rest, func(ev Event) bool {
		return ev.Kind == EventGroupGuess && sortedIDs(ev.Tiles) == key
	})
}

func emojiRow(cat Catalog, tiles []int, revealed map[int]struct{}) string {
	var b strings.Builder
	for _, id := range tiles {
		t, ok := cat.Tile(id)
		if !ok || !t.Difficulty.Valid() {
			b.WriteString("⬜")
			continue
		}
		if _, r := revealed[id]; r {
			b.WriteString(tierCircles[t.Difficulty])
		} else {
			b.WriteString(tierSquares[t.Difficulty])
		}
	}
	return b.String()
}

func resultGlyph(ev Event) string {
	switch {
	case !ev.Correct:
		return "❌"
	case ev.Kind == EventGroupGuess && !ev.Named:
		return "☑️"
	default:
		return "✅"
	}
}
