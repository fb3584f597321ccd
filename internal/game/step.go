// internal/game/step.go
//
// Transition results. Every engine call returns a Step: the next State, a
// coarse Result for the caller, and the side effects the caller should
// dispatch (fire-and-forget) after committing the State.

package game

// Result classifies what a transition did.
type Result string

const (
	ResultIgnored         Result = "ignored"
	ResultStarted         Result = "started"
	ResultSelected        Result = "selected"
	ResultDeselected      Result = "deselected"
	ResultPrompt          Result = "attribute_prompt"
	ResultSolved          Result = "solved"
	ResultInvalidGroup    Result = "invalid_group"
	ResultWrongAttribute  Result = "wrong_attribute"
	ResultDuplicateGuess  Result = "duplicate_guess"
	ResultIncomplete      Result = "incomplete_selection"
	ResultOutOfMistakes   Result = "out_of_mistakes"
	ResultFinished        Result = "finished"
	ResultGaveUp          Result = "gave_up"
	ResultReset           Result = "reset"
	ResultShuffled        Result = "shuffled"
	ResultKeepTrying      Result = "keep_trying"
	ResultHintArmed       Result = "hint_armed"
	ResultHintCancelled   Result = "hint_cancelled"
	ResultHintRevealed    Result = "hint_revealed"
	ResultHintsGranted    Result = "hints_granted"
	ResultOutOfHints      Result = "out_of_hints"
	ResultHintCapReached  Result = "hint_cap_reached"
	ResultAlreadyRevealed Result = "already_revealed"
)

// Penalized reports whether the result charged a mistake.
func (r Result) Penalized() bool {
	return r == ResultInvalidGroup || r == ResultWrongAttribute
}

// EffectKind names an external side effect.
type EffectKind string

const (
	EffectPuzzleStarted   EffectKind = "puzzle_started"
	EffectModeChanged     EffectKind = "mode_changed"
	EffectTileGuess       EffectKind = "tile_guess"
	EffectGroupGuess      EffectKind = "group_guess"
	EffectHintUse         EffectKind = "hint_use"
	EffectPuzzleCompleted EffectKind = "puzzle_completed"
	EffectGameOver        EffectKind = "game_over"
	EffectGaveUp          EffectKind = "gave_up"
)

// Effect is a side effect requested by a transition. The engine never
// performs it; Session dispatches it to the telemetry sink and ledgers.
type Effect struct {
	Kind   EffectKind
	Fields map[string]any
}

// Step is the outcome of one transition.
type Step struct {
	State   State
	Result  Result
	Effects []Effect
}

func eventEffect(ev Event) Effect {
	return Effect{Kind: EffectKind(ev.Kind), Fields: map[string]any{
		"tiles":     ev.Tiles,
		"isCorrect": ev.Correct,
		"named":     ev.Named,
	}}
}
