// internal/game/hints.go
//
// Hint economy: idle -> armed -> idle.
//
// Hints.Left is a replenishable counter topped up in batches. Hints.TotalUsed
// is a lifetime ledger capped at HintCap; once the cap is reached the visible
// remaining count reads 0 whatever Left says.

package game

import "fmt"

const (
	HintCap   = 10 // lifetime hints per puzzle attempt
	HintBatch = 2  // hints granted per "get more hints"
)

// StartHintMode arms hint mode so the next tile click reveals a tile.
func (e *Engine) StartHintMode(s State) Step {
	next := s.begin()
	switch {
	case next.Finished():
		return Step{State: next, Result: ResultIgnored}
	case next.Hints.TotalUsed >= HintCap:
		next.feedback(hintCapMessage, FeedbackError)
		return Step{State: next, Result: ResultHintCapReached}
	case next.Hints.Left <= 0:
		next.feedback("No hints left. Get more hints!", FeedbackWarning)
		return Step{State: next, Result: ResultOutOfHints}
	}
	next.Hints.Armed = true
	next.feedback("Pick a tile to reveal its country.", FeedbackInfo)
	return Step{State: next, Result: ResultHintArmed}
}

const hintCapMessage = "You've used all 10 hints for this puzzle."

// RevealTile spends a hint on tile id. It only takes effect while armed,
// with hints left, on an unfinished game, and for an unsolved tile not
// yet revealed.
func (e *Engine) RevealTile(s State, id int) Step {
	next := s.begin()
	if next.Finished() || next.SolvedTile(id) {
		return Step{State: next, Result: ResultIgnored}
	}
	if next.Hints.TotalUsed >= HintCap {
		next.Hints.Armed = false
		next.feedback(hintCapMessage, FeedbackError)
		return Step{State: next, Result: ResultHintCapReached}
	}
	if !next.Hints.Armed {
		return Step{State: next, Result: ResultIgnored}
	}
	if next.Hints.Left <= 0 {
		next.Hints.Armed = false
		next.feedback("No hints left. Get more hints!", FeedbackWarning)
		return Step{State: next, Result: ResultOutOfHints}
	}
	tile, ok := e.catalog.Tile(id)
	if !ok {
		return Step{State: next, Result: ResultIgnored}
	}
	if next.Revealed(id) {
		next.feedback("That tile is already revealed.", FeedbackInfo)
		return Step{State: next, Result: ResultAlreadyRevealed}
	}

	next.Hints.Armed = false
	next.Hints.Left--
	next.Hints.TotalUsed++
	next.Hints.Revealed[id] = struct{}{}
	ev := next.record(EventHintUse, e.now(), []int{id}, true, false)
	next.feedback("Tile revealed.", FeedbackInfo)
	eff := eventEffect(ev)
	eff.Fields["countryCode"] = tile.Code
	eff.Fields["totalHintsUsed"] = next.Hints.TotalUsed
	return Step{State: next, Result: ResultHintRevealed, Effects: []Effect{eff}}
}

// CancelHintMode disarms hint mode with no other effect.
func (e *Engine) CancelHintMode(s State) Step {
	next := s.begin()
	if !next.Hints.Armed {
		return Step{State: next, Result: ResultIgnored}
	}
	next.Hints.Armed = false
	return Step{State: next, Result: ResultHintCancelled}
}

// GetMoreHints adds up to HintBatch hints without letting the lifetime
// total pass HintCap.
func (e *Engine) GetMoreHints(s State) Step {
	next := s.begin()
	grant := min(HintBatch, HintCap-next.Hints.TotalUsed)
	if grant <= 0 {
		next.feedback("No more hints available for this puzzle.", FeedbackError)
		return Step{State: next, Result: ResultHintCapReached}
	}
	next.Hints.Left += grant
	next.feedback(fmt.Sprintf("+%d hints", grant), FeedbackSuccess)
	return Step{State: next, Result: ResultHintsGranted}
}

// HintDisplay is the externally visible hint counter. Once the lifetime cap
// is reached it reports zero remaining even when Left is positive.
func HintDisplay(h HintState) (remaining int, label string) {
	remaining = max(h.Left, 0)
	if h.TotalUsed >= HintCap {
		remaining = 0
	}
	if remaining == 0 {
		return 0, "Get More Hints"
	}
	return remaining, fmt.Sprintf("Hint (%d)", remaining)
}
