// internal/game/selection.go
//
// Session-level transitions outside guess evaluation: tile selection,
// the easy-mode skip, give-up, reset, mode change and "keep trying".

package game

import (
	"slices"

	"github.com/samber/lo"
)

// ToggleTile selects or deselects tile id.
//
// A selected tile leaves its bucket. An unselected tile joins the first
// unsolved bucket with room. Easy and normal mode cap the whole selection
// at one group; expert mode may fill every open bucket at once.
func (e *Engine) ToggleTile(s State, id int) Step {
	next := s.begin()
	if next.Finished() || next.SolvedTile(id) {
		return Step{State: next, Result: ResultIgnored}
	}
	if _, ok := e.catalog.Tile(id); !ok {
		return Step{State: next, Result: ResultIgnored}
	}

	if _, ok := next.BucketOf[id]; ok {
		next.removeFromBucket(id)
		next.syncPrompt()
		return Step{State: next, Result: ResultDeselected}
	}

	if next.Mode != ModeExpert && len(next.Selection) >= GroupSize {
		return Step{State: next, Result: ResultIgnored}
	}
	b := next.openBucket()
	if b < 0 {
		return Step{State: next, Result: ResultIgnored}
	}
	next.addToBucket(b, id)
	return Step{State: next, Result: ResultSelected}
}

// Skip solves a complete, correct group without naming it. Easy mode only.
// The group is filed under its real tier even if the player filled a
// different bucket, and it is logged with Named=false.
func (e *Engine) Skip(s State) Step {
	next := s.begin()
	if next.Mode != ModeEasy || next.Finished() {
		return Step{State: next, Result: ResultIgnored}
	}
	for _, b := range next.openTiers() {
		if len(next.Buckets[b]) != GroupSize {
			continue
		}
		chk := e.check(next.Buckets[b])
		if chk.Valid && chk.Tier.Valid() && !next.IsSolved(chk.Tier) {
			return e.promote(next, []promotion{{bucket: b, tier: chk.Tier}}, false, "Group solved.")
		}
	}
	next.feedback("Complete a group of 4 first.", FeedbackInfo)
	return Step{State: next, Result: ResultIncomplete}
}

// GiveUp replaces the solution with the catalog's ground truth. Every tier
// with exactly four tiles becomes a solved row, whatever the player had
// selected. It marks GaveUp, not GameOver. The gave_up effect is emitted
// only when no result has been emitted for the puzzle yet.
func (e *Engine) GiveUp(s State) Step {
	next := s.begin()
	if next.GaveUp || next.Won() {
		return Step{State: next, Result: ResultIgnored}
	}
	next.clearSelection()
	next.Hints.Armed = false

	byTier := map[Difficulty][]int{}
	for id := range e.catalog.Len() {
		if t, ok := e.catalog.Tile(id); ok && t.Difficulty.Valid() {
			byTier[t.Difficulty] = append(byTier[t.Difficulty], id)
		}
	}
	next.Solved = nil
	for i := range NumTiers {
		ids := byTier[Difficulty(i)]
		if len(ids) != GroupSize {
			continue
		}
		placeRow(next.Order, len(next.Solved), ids)
		next.Solved = append(next.Solved, SolvedRow{Tiles: slices.Clone(ids), Difficulty: Difficulty(i)})
	}
	next.GaveUp = true
	next.feedback("Here's the solution.", FeedbackInfo)
	if next.Completed {
		return Step{State: next, Result: ResultGaveUp}
	}
	next.Completed = true
	return Step{State: next, Result: ResultGaveUp, Effects: []Effect{{
		Kind: EffectGaveUp,
		Fields: map[string]any{
			"mode":     string(next.Mode),
			"mistakes": next.MistakesMade,
			"solved":   len(s.Solved),
		},
	}}}
}

// Reset starts the puzzle over in the same mode, keeping the visual order.
func (e *Engine) Reset(s State) Step {
	next := restart(s, s.Mode, s.Order)
	return Step{State: next, Result: ResultReset}
}

// ChangeMode reshuffles the whole grid and starts over under mode.
func (e *Engine) ChangeMode(s State, mode Mode) Step {
	order := lo.Range(e.catalog.Len())
	e.shuffle(order)
	next := restart(s, mode, order)
	return Step{State: next, Result: ResultStarted, Effects: []Effect{
		{Kind: EffectModeChanged, Fields: map[string]any{"from": string(s.Mode), "mode": string(mode)}},
		{Kind: EffectPuzzleStarted, Fields: map[string]any{"mode": string(mode)}},
	}}
}

// AddMistakes grants n more mistakes and lifts a game over. Nothing else
// about the session changes.
func (e *Engine) AddMistakes(s State, n int) Step {
	next := s.begin()
	if n <= 0 || next.MistakesLeft == UnlimitedMistakes || next.GaveUp {
		return Step{State: next, Result: ResultIgnored}
	}
	next.MistakesLeft += n
	if next.MistakesLeft > 0 {
		next.GameOver = false
	}
	next.feedback("Keep trying!", FeedbackInfo)
	return Step{State: next, Result: ResultKeepTrying}
}
