// internal/game/state.go
//
// Low-level State helpers shared by every transition. All of them operate
// on a *State that the caller has already cloned via begin().

package game

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// newState builds a fresh snapshot for mode over the given visual order.
func newState(mode Mode, order []int) State {
	return State{
		Mode:         mode,
		MistakesLeft: mode.MistakeBudget(),
		BucketOf:     map[int]int{},
		Hints: HintState{
			Left:     HintBatch,
			Revealed: map[int]struct{}{},
		},
		Order:   slices.Clone(order),
		History: map[string]struct{}{},
	}
}

// restart builds a fresh snapshot that keeps the feedback counter and the
// once-per-puzzle result guard of prev.
func restart(prev State, mode Mode, order []int) State {
	next := newState(mode, order)
	next.Feedback.ID = prev.Feedback.ID
	next.Completed = prev.Completed
	return next
}

// begin clones s and drops the transient fields of the previous step.
func (s State) begin() State {
	next := s.Clone()
	next.TilesToShake = nil
	return next
}

// openTiers lists the bucket indexes whose tier is still unsolved.
func (s State) openTiers() []int {
	var out []int
	for i := range NumTiers {
		if !s.IsSolved(Difficulty(i)) {
			out = append(out, i)
		}
	}
	return out
}

func (s State) allOpenBucketsFull() bool {
	return lo.EveryBy(s.openTiers(), func(i int) bool { return len(s.Buckets[i]) == GroupSize })
}

// fullBucket returns the first unsolved bucket holding GroupSize tiles.
func (s State) fullBucket() (int, bool) {
	for _, i := range s.openTiers() {
		if len(s.Buckets[i]) == GroupSize {
			return i, true
		}
	}
	return -1, false
}

// openBucket returns the first unsolved bucket with room left, or -1.
func (s State) openBucket() int {
	for _, i := range s.openTiers() {
		if len(s.Buckets[i]) < GroupSize {
			return i
		}
	}
	return -1
}

func (s *State) addToBucket(b, id int) {
	s.Buckets[b] = append(s.Buckets[b], id)
	s.BucketOf[id] = b
	s.Selection = append(s.Selection, id)
}

func (s *State) removeFromBucket(id int) {
	b, ok := s.BucketOf[id]
	if !ok {
		return
	}
	s.Buckets[b] = lo.Without(s.Buckets[b], id)
	delete(s.BucketOf, id)
	s.Selection = lo.Without(s.Selection, id)
}

// clearBucket empties bucket b and drops its tiles from the index and selection.
func (s *State) clearBucket(b int) {
	for _, id := range s.Buckets[b] {
		delete(s.BucketOf, id)
	}
	s.Selection = lo.Without(s.Selection, s.Buckets[b]...)
	s.Buckets[b] = nil
}

// clearSelection empties every bucket and closes the attribute prompt.
func (s *State) clearSelection() {
	for i := range s.Buckets {
		s.Buckets[i] = nil
	}
	s.BucketOf = map[int]int{}
	s.Selection = nil
	s.ShowAttributeGuess = false
}

// syncPrompt closes the attribute prompt once the submission it belongs to
// is no longer intact.
func (s *State) syncPrompt() {
	if s.ShowAttributeGuess && !s.CanSubmit() {
		s.ShowAttributeGuess = false
	}
}

func (s *State) feedback(msg string, kind FeedbackKind) {
	s.Feedback = Feedback{Message: msg, Kind: kind, ID: s.Feedback.ID + 1}
}

func (s *State) seen(key string) bool {
	_, ok := s.History[key]
	return ok
}

func (s *State) remember(key string) { s.History[key] = struct{}{} }

func (s *State) record(kind EventKind, at time.Time, tiles []int, correct, named bool) Event {
	ev := Event{Kind: kind, At: at, Tiles: slices.Clone(tiles), Correct: correct, Named: named}
	s.Attempts = append(s.Attempts, ev)
	return ev
}

// penalize charges one mistake. It returns a game_over effect the first
// time the budget is exhausted. The prompt and hint mode are left as they
// were so "keep trying" resumes exactly where the player stopped.
func (s *State) penalize() []Effect {
	s.MistakesMade++
	if s.MistakesLeft == UnlimitedMistakes {
		return nil
	}
	s.MistakesLeft--
	if s.MistakesLeft <= 0 && !s.GameOver {
		s.GameOver = true
		return []Effect{{Kind: EffectGameOver, Fields: map[string]any{
			"mode":     string(s.Mode),
			"mistakes": s.MistakesMade,
			"solved":   len(s.Solved),
		}}}
	}
	return nil
}
