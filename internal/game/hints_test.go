package game

import "testing"

// useHints spends n hints, topping up whenever the counter runs dry.
func useHints(t *testing.T, e *Engine, s State, n int) State {
	t.Helper()
	for i := range n {
		if s.Hints.Left == 0 {
			step := e.GetMoreHints(s)
			if step.Result != ResultHintsGranted {
				t.Fatalf("hint %d: GetMoreHints = %s", i, step.Result)
			}
			s = step.State
		}
		step := e.StartHintMode(s)
		if step.Result != ResultHintArmed {
			t.Fatalf("hint %d: StartHintMode = %s", i, step.Result)
		}
		step = e.RevealTile(step.State, i)
		if step.Result != ResultHintRevealed {
			t.Fatalf("hint %d: RevealTile = %s", i, step.Result)
		}
		s = step.State
		assertConsistent(t, s)
	}
	return s
}

func TestScenarioHintCap(t *testing.T) {
	e := newTestEngine()
	s := useHints(t, e, start(e, ModeNormal), HintCap)

	if s.Hints.TotalUsed != HintCap || len(s.Hints.Revealed) != HintCap {
		t.Fatalf("used=%d revealed=%d", s.Hints.TotalUsed, len(s.Hints.Revealed))
	}
	left := s.Hints.Left

	step := e.RevealTile(s, 10)
	if step.Result != ResultHintCapReached {
		t.Fatalf("eleventh reveal = %s", step.Result)
	}
	if step.State.Feedback.Message != "You've used all 10 hints for this puzzle." {
		t.Fatalf("feedback = %q", step.State.Feedback.Message)
	}
	if len(step.State.Hints.Revealed) != HintCap || step.State.Hints.Left != left {
		t.Fatal("reveal past the cap changed hint state")
	}

	if got := e.StartHintMode(s).Result; got != ResultHintCapReached {
		t.Fatalf("StartHintMode at cap = %s", got)
	}
	more := e.GetMoreHints(s)
	if more.Result != ResultHintCapReached || more.State.Hints.Left != left {
		t.Fatalf("GetMoreHints at cap = %s left=%d", more.Result, more.State.Hints.Left)
	}
	if more.State.Feedback.Message != "No more hints available for this puzzle." {
		t.Fatalf("feedback = %q", more.State.Feedback.Message)
	}
}

func TestGetMoreHintsClampsToCap(t *testing.T) {
	e := newTestEngine()
	s := useHints(t, e, start(e, ModeNormal), HintCap-1)
	if s.Hints.Left != 0 {
		t.Fatalf("Left = %d, want 0", s.Hints.Left)
	}
	step := e.GetMoreHints(s)
	if step.Result != ResultHintsGranted || step.State.Hints.Left != 1 {
		t.Fatalf("result=%s left=%d", step.Result, step.State.Hints.Left)
	}
	if step.State.Feedback.Message != "+1 hints" {
		t.Fatalf("feedback = %q", step.State.Feedback.Message)
	}
}

func TestRevealRules(t *testing.T) {
	e := newTestEngine()
	s := start(e, ModeNormal)

	if got := e.RevealTile(s, 0).Result; got != ResultIgnored {
		t.Fatalf("reveal while idle = %s", got)
	}
	if got := e.CancelHintMode(s).Result; got != ResultIgnored {
		t.Fatalf("cancel while idle = %s", got)
	}

	armed := e.StartHintMode(s).State
	cancelled := e.CancelHintMode(armed)
	if cancelled.Result != ResultHintCancelled || cancelled.State.Hints.Armed {
		t.Fatalf("cancel = %s armed=%v", cancelled.Result, cancelled.State.Hints.Armed)
	}
	if cancelled.State.Hints.Left != HintBatch {
		t.Fatal("cancel must not spend a hint")
	}

	step := e.RevealTile(armed, 5)
	if len(step.Effects) != 1 || step.Effects[0].Kind != EffectHintUse {
		t.Fatalf("effects = %+v", step.Effects)
	}
	if got := step.Effects[0].Fields["countryCode"]; got != "DE" {
		t.Fatalf("countryCode = %v", got)
	}
	s = step.State

	again := e.RevealTile(e.StartHintMode(s).State, 5)
	if again.Result != ResultAlreadyRevealed {
		t.Fatalf("second reveal = %s", again.Result)
	}
	if again.State.Hints.Left != s.Hints.Left || again.State.Hints.TotalUsed != 1 {
		t.Fatal("revealing the same tile twice spent a hint")
	}

	empty := useHints(t, e, start(e, ModeNormal), HintBatch)
	if got := e.StartHintMode(empty).Result; got != ResultOutOfHints {
		t.Fatalf("StartHintMode with no hints = %s", got)
	}
}

func TestHintDisplay(t *testing.T) {
	tests := []struct {
		name      string
		h         HintState
		remaining int
		label     string
	}{
		{"fresh", HintState{Left: 2}, 2, "Hint (2)"},
		{"empty", HintState{Left: 0, TotalUsed: 4}, 0, "Get More Hints"},
		{"cap hides leftover", HintState{Left: 2, TotalUsed: HintCap}, 0, "Get More Hints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, label := HintDisplay(tt.h)
			if remaining != tt.remaining || label != tt.label {
				t.Fatalf("got (%d, %q), want (%d, %q)", remaining, label, tt.remaining, tt.label)
			}
		})
	}
}

func TestRevealIgnoredOnSolvedTilesAndFinishedGames(t *testing.T) {
	e := newTestEngine()

	s := toggle(t, e, start(e, ModeEasy), 0, 1, 2, 3)
	s = e.StartHintMode(e.Skip(s).State).State
	step := e.RevealTile(s, 2)
	if step.Result != ResultIgnored || len(step.Effects) != 0 {
		t.Fatalf("reveal of solved tile: result=%s effects=%+v", step.Result, step.Effects)
	}
	if step.State.Hints.Left != HintBatch || step.State.Hints.TotalUsed != 0 {
		t.Fatal("reveal of a solved tile spent a hint")
	}

	lost := e.StartHintMode(start(e, ModeNormal)).State
	lost = toggle(t, e, lost, 0, 1, 2, 4)
	lost = e.HandleGuess(lost, TileSubmission{}).State
	for _, swap := range [][2]int{{4, 5}, {5, 6}, {6, 7}} {
		lost = toggle(t, e, lost, swap[0], swap[1])
		lost = e.HandleGuess(lost, TileSubmission{}).State
	}
	if !lost.GameOver {
		t.Fatal("expected game over")
	}
	step = e.RevealTile(lost, 12)
	if step.Result != ResultIgnored || len(step.Effects) != 0 || step.State.Hints.TotalUsed != 0 {
		t.Fatalf("reveal after game over: result=%s used=%d", step.Result, step.State.Hints.TotalUsed)
	}
	if len(step.State.Attempts) != len(lost.Attempts) {
		t.Fatal("reveal after game over logged a hint")
	}
}
