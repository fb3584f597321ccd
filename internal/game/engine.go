// internal/game/engine.go
//
// Guess engine for the 4x4 grouping puzzle.
// Responsibilities:
//   - Classify a guess (tile submission vs. attribute naming) per mode.
//   - Detect repeated attempts through the guess history.
//   - Charge mistakes, emit feedback, and record attempt events.
//   - Promote correct groups to solved rows and detect completion.
//
// Notes:
//   - The engine holds no session state. Every call takes a State and returns
//     a Step carrying a new State; the input is never modified.
//   - Tiles missing from the catalog are treated as absent, never as errors.

package game

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Engine evaluates transitions against one puzzle's catalog.
type Engine struct {
	catalog Catalog
	now     func() time.Time
	shuffle func([]int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithShuffler overrides the in-place permutation used for visual order.
func WithShuffler(f func([]int)) Option { return func(e *Engine) { e.shuffle = f } }

// NewEngine returns an engine for cat.
func NewEngine(cat Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog: cat,
		now:     time.Now,
		shuffle: func(ids []int) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Catalog returns the catalog the engine evaluates against.
func (e *Engine) Catalog() Catalog { return e.catalog }

// groupCheck summarizes whether a set of tiles shares one attribute code.
type groupCheck struct {
	Code     string
	Tier     Difficulty
	Dominant int // size of the largest same-code subset
	Valid    bool
}

func (e *Engine) check(ids []int) groupCheck {
	tiles := lo.FilterMap(ids, func(id int, _ int) (Tile, bool) { return e.catalog.Tile(id) })
	codes := lo.FilterMap(tiles, func(t Tile, _ int) (string, bool) { return t.Code, t.Code != "" })

	var chk groupCheck
	for code, n := range lo.CountValues(codes) {
		if n > chk.Dominant || (n == chk.Dominant && code < chk.Code) {
			chk.Code, chk.Dominant = code, n
		}
	}
	chk.Valid = len(ids) == GroupSize && len(tiles) == GroupSize && chk.Dominant == GroupSize

	chk.Tier = DifficultyUnknown
	if tiers := lo.Uniq(lo.Map(tiles, func(t Tile, _ int) Difficulty { return t.Difficulty })); len(tiers) == 1 && tiers[0].Valid() {
		chk.Tier = tiers[0]
	}
	return chk
}

// distanceMessage reports how close a failed grouping was.
func distanceMessage(dominant int) string {
	switch dominant {
	case GroupSize - 1:
		return "One away!"
	case GroupSize - 2:
		return "Two away!"
	default:
		return "Those tiles aren't in a group!"
	}
}

// Start shuffles the full grid and returns a fresh session for mode.
func (e *Engine) Start(mode Mode) Step {
	order := lo.Range(e.catalog.Len())
	e.shuffle(order)
	s := newState(mode, order)
	return Step{State: s, Result: ResultStarted, Effects: []Effect{{
		Kind:   EffectPuzzleStarted,
		Fields: map[string]any{"mode": string(mode)},
	}}}
}

// HandleGuess evaluates g against s.
func (e *Engine) HandleGuess(s State, g Guess) Step {
	next := s.begin()
	switch {
	case next.GameOver:
		next.feedback("Out of mistakes!", FeedbackError)
		return Step{State: next, Result: ResultOutOfMistakes}
	case next.Finished():
		return Step{State: next, Result: ResultFinished}
	}

	if next.Mode == ModeExpert {
		switch g := g.(type) {
		case TileSubmission:
			return e.expertSubmit(next)
		case ExpertGuess:
			return e.expertGuess(next, g)
		}
		return Step{State: next, Result: ResultIgnored}
	}

	idx, ok := next.fullBucket()
	if !ok {
		next.feedback("Select 4 tiles to submit.", FeedbackInfo)
		return Step{State: next, Result: ResultIncomplete}
	}
	tiles := next.Buckets[idx]

	var key string
	switch g := g.(type) {
	case TileSubmission:
		key = TileSubmissionKey(next.Mode, tiles)
	case AttributeGuess:
		key = AttributeGuessKey(next.Mode, tiles, g.Code)
	default:
		return Step{State: next, Result: ResultIgnored}
	}
	if next.seen(key) {
		return e.duplicate(next)
	}
	next.remember(key)

	if g, ok := g.(AttributeGuess); ok {
		return e.guessAttribute(next, idx, g.Code)
	}
	return e.submitTiles(next, idx)
}

// duplicate reports a repeated attempt without charging a mistake.
func (e *Engine) duplicate(next State) Step {
	msg := "Already tried this combination!"
	if next.Mode != ModeExpert && len(next.Selection) == GroupSize {
		chk := e.check(next.Selection)
		switch {
		case chk.Valid:
			if next.Mode == ModeEasy {
				next.ShowAttributeGuess = true
			}
		case chk.Dominant == GroupSize-1:
			msg = "Already tried this combination — one away!"
		case chk.Dominant == GroupSize-2:
			msg = "Already tried this combination — two away!"
		}
	}
	next.feedback(msg, FeedbackWarning)
	return Step{State: next, Result: ResultDuplicateGuess}
}

// rejectGroup charges a mistake for a grouping that does not share a code.
// The bucket stays populated for a retry.
func (e *Engine) rejectGroup(next State, tiles []int, chk groupCheck, effects []Effect) Step {
	effects = append(effects, next.penalize()...)
	next.ShowAttributeGuess = false
	next.TilesToShake = slices.Clone(tiles)
	next.feedback(distanceMessage(chk.Dominant), FeedbackError)
	return Step{State: next, Result: ResultInvalidGroup, Effects: effects}
}

func (e *Engine) submitTiles(next State, idx int) Step {
	tiles := next.Buckets[idx]
	chk := e.check(tiles)
	ev := next.record(EventTileGuess, e.now(), tiles, chk.Valid, false)
	effects := []Effect{eventEffect(ev)}
	if !chk.Valid {
		return e.rejectGroup(next, tiles, chk, effects)
	}
	next.ShowAttributeGuess = true
	next.feedback("Now name the country!", FeedbackInfo)
	return Step{State: next, Result: ResultPrompt, Effects: effects}
}

func (e *Engine) guessAttribute(next State, idx int, code string) Step {
	tiles := next.Buckets[idx]
	chk := e.check(tiles)
	if !chk.Valid {
		ev := next.record(EventTileGuess, e.now(), tiles, false, false)
		return e.rejectGroup(next, tiles, chk, []Effect{eventEffect(ev)})
	}
	if strings.EqualFold(chk.Code, code) {
		return e.promote(next, []promotion{{bucket: idx, tier: chk.Tier}}, true, "Correct!")
	}
	ev := next.record(EventGroupGuess, e.now(), tiles, false, true)
	effects := append([]Effect{eventEffect(ev)}, next.penalize()...)
	next.TilesToShake = slices.Clone(tiles)
	next.feedback("Wrong country guess!", FeedbackError)
	return Step{State: next, Result: ResultWrongAttribute, Effects: effects}
}

func (e *Engine) expertSubmit(next State) Step {
	open := next.openTiers()
	if len(open) == 0 || !next.allOpenBucketsFull() {
		next.feedback("Fill all four groups before submitting.", FeedbackInfo)
		return Step{State: next, Result: ResultIncomplete}
	}
	groups := lo.Map(open, func(i int, _ int) []int { return next.Buckets[i] })
	key := TileSubmissionKey(ModeExpert, groups...)
	if next.seen(key) {
		return e.duplicate(next)
	}

	checks := lo.Map(groups, func(g []int, _ int) groupCheck { return e.check(g) })
	valid := len(next.Solved) + lo.CountBy(checks, func(c groupCheck) bool { return c.Valid })
	if valid == NumTiers {
		// Attempt events for this phase are written with the naming
		// result so a cancelled prompt leaves no trace in the log.
		next.ShowAttributeGuess = true
		next.feedback("Now name each country!", FeedbackInfo)
		return Step{State: next, Result: ResultPrompt}
	}

	next.remember(key)
	var effects []Effect
	at := e.now()
	for i, g := range groups {
		ev := next.record(EventTileGuess, at, g, checks[i].Valid, false)
		effects = append(effects, eventEffect(ev))
		if !checks[i].Valid {
			next.TilesToShake = append(next.TilesToShake, g...)
		}
	}
	effects = append(effects, next.penalize()...)
	next.ShowAttributeGuess = false
	next.feedback(fmt.Sprintf("%d groups are correct.", valid), FeedbackError)
	return Step{State: next, Result: ResultInvalidGroup, Effects: effects}
}

func (e *Engine) expertGuess(next State, g ExpertGuess) Step {
	open := next.openTiers()
	if len(open) == 0 || !next.allOpenBucketsFull() {
		next.feedback("Fill all four groups before submitting.", FeedbackInfo)
		return Step{State: next, Result: ResultIncomplete}
	}
	key := AttributeGuessKey(ModeExpert, nil, g.Input())
	if next.seen(key) {
		return e.duplicate(next)
	}
	next.remember(key)

	at := e.now()
	var effects []Effect
	named := make([]bool, len(open))
	ps := make([]promotion, 0, len(open))
	correct := len(next.Solved)
	for i, b := range open {
		chk := e.check(next.Buckets[b])
		ev := next.record(EventTileGuess, at, next.Buckets[b], chk.Valid, false)
		effects = append(effects, eventEffect(ev))
		named[i] = chk.Valid && strings.EqualFold(chk.Code, g.Codes[b])
		if named[i] {
			correct++
		}
		ps = append(ps, promotion{bucket: b, tier: chk.Tier})
	}

	if correct == NumTiers {
		step := e.promote(next, ps, true, "Correct!")
		step.Effects = append(effects, step.Effects...)
		return step
	}

	for i, b := range open {
		ev := next.record(EventGroupGuess, at, next.Buckets[b], named[i], true)
		effects = append(effects, eventEffect(ev))
		if !named[i] {
			next.TilesToShake = append(next.TilesToShake, next.Buckets[b]...)
		}
	}
	effects = append(effects, next.penalize()...)
	msg := fmt.Sprintf("Only %d groups are correct. Try again.", correct)
	if correct == 0 {
		msg = "All country guesses are wrong! Try again."
	}
	next.feedback(msg, FeedbackError)
	return Step{State: next, Result: ResultWrongAttribute, Effects: effects}
}

// promotion moves one bucket into a solved row for tier.
type promotion struct {
	bucket int
	tier   Difficulty
}

// resolveTier picks the row tier for p: the tiles' own tier when it is free,
// then the bucket's tier, then the first free tier.
func (s State) resolveTier(p promotion, claimed map[Difficulty]bool) Difficulty {
	free := func(d Difficulty) bool { return d.Valid() && !s.IsSolved(d) && !claimed[d] }
	for _, d := range []Difficulty{p.tier, Difficulty(p.bucket)} {
		if free(d) {
			return d
		}
	}
	for i := range NumTiers {
		if free(Difficulty(i)) {
			return Difficulty(i)
		}
	}
	return DifficultyUnknown
}

// promote locks the given buckets in as solved rows. Rows are appended in
// tier order and their tiles moved into the next reserved display row.
func (e *Engine) promote(next State, ps []promotion, named bool, msg string) Step {
	claimed := map[Difficulty]bool{}
	for i := range ps {
		ps[i].tier = next.resolveTier(ps[i], claimed)
		claimed[ps[i].tier] = true
	}
	ps = lo.Filter(ps, func(p promotion, _ int) bool { return p.tier.Valid() })
	slices.SortFunc(ps, func(a, b promotion) int { return cmp.Compare(a.tier, b.tier) })

	at := e.now()
	var effects []Effect
	for _, p := range ps {
		members := slices.Clone(next.Buckets[p.bucket])
		next.clearBucket(p.bucket)
		placeRow(next.Order, len(next.Solved), members)
		next.Solved = append(next.Solved, SolvedRow{Tiles: members, Difficulty: p.tier})
		ev := next.record(EventGroupGuess, at, members, true, named)
		effects = append(effects, eventEffect(ev))
	}
	next.ShowAttributeGuess = false
	next.feedback(msg, FeedbackSuccess)

	if next.Won() && !next.Completed {
		next.Completed = true
		effects = append(effects, Effect{Kind: EffectPuzzleCompleted, Fields: map[string]any{
			"mode":      string(next.Mode),
			"mistakes":  next.MistakesMade,
			"hintsUsed": next.Hints.TotalUsed,
			"named":     next.NamedSolves(),
		}})
	}
	return Step{State: next, Result: ResultSolved, Effects: effects}
}
