// internal/game/session.go
//
// Session is the single-writer container around State.
// Responsibilities:
//   - Serialize transitions (one in flight at a time) under a mutex.
//   - Commit the Step's State, then dispatch its Effects.
//   - Forward effects to the telemetry Recorder and, for completion and
//     give-up, to the result Ledger.
//
// Effects are fire-and-forget: a failing or panicking collaborator is
// logged and never rolls back or fails the committed transition.

package game

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder receives telemetry events. Implementations must not block.
type Recorder interface {
	Record(kind string, fields map[string]any)
}

// Completion is the per-puzzle result written to the ledgers.
type Completion struct {
	Player    string
	Puzzle    int
	Mode      Mode
	Won       bool
	Mistakes  int
	HintsUsed int
	Named     int
	Elapsed   time.Duration
}

// Ledger persists results (streaks, completion by puzzle number).
type Ledger interface {
	RecordCompletion(ctx context.Context, c Completion) error
}

// SessionConfig describes a new session.
type SessionConfig struct {
	ID     string
	Puzzle int
	Player string
	Mode   Mode
	Sink   Recorder
	Ledger Ledger
}

// Session holds one player's attempt at one puzzle.
type Session struct {
	ID     string
	Puzzle int
	Player string

	engine *Engine
	sink   Recorder
	ledger Ledger

	mu      sync.Mutex
	state   State
	started time.Time
	touched time.Time
	pending sync.WaitGroup
}

// ledgerTimeout bounds a single ledger write.
const ledgerTimeout = 5 * time.Second

// NewSession starts a session on e's puzzle.
func NewSession(e *Engine, cfg SessionConfig) *Session {
	now := time.Now()
	s := &Session{
		ID:      cfg.ID,
		Puzzle:  cfg.Puzzle,
		Player:  cfg.Player,
		engine:  e,
		sink:    cfg.Sink,
		ledger:  cfg.Ledger,
		started: now,
		touched: now,
	}
	step := e.Start(cfg.Mode)
	s.state = step.State
	s.dispatch(step.Effects)
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Engine returns the engine bound to the session's puzzle.
func (s *Session) Engine() *Engine { return s.engine }

// Touched reports the time of the last transition.
func (s *Session) Touched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Wait blocks until dispatched ledger writes have finished.
func (s *Session) Wait() { s.pending.Wait() }

func (s *Session) apply(f func(State) Step) Step {
	s.mu.Lock()
	step := f(s.state)
	s.state = step.State
	s.touched = time.Now()
	if step.Result == ResultStarted || step.Result == ResultReset {
		s.started = s.touched
	}
	out := step
	out.State = step.State.Clone()
	s.mu.Unlock()

	s.dispatch(step.Effects)
	return out
}

func (s *Session) ToggleTile(id int) Step {
	return s.apply(func(st State) Step { return s.engine.ToggleTile(st, id) })
}

// ClickTile reveals id while hint mode is armed and toggles it otherwise.
func (s *Session) ClickTile(id int) Step {
	return s.apply(func(st State) Step {
		if st.Hints.Armed {
			return s.engine.RevealTile(st, id)
		}
		return s.engine.ToggleTile(st, id)
	})
}

func (s *Session) Guess(g Guess) Step {
	return s.apply(func(st State) Step { return s.engine.HandleGuess(st, g) })
}

func (s *Session) Submit() Step { return s.Guess(TileSubmission{}) }

func (s *Session) Skip() Step {
	return s.apply(func(st State) Step { return s.engine.Skip(st) })
}

func (s *Session) GiveUp() Step {
	return s.apply(func(st State) Step { return s.engine.GiveUp(st) })
}

func (s *Session) Reset() Step {
	return s.apply(func(st State) Step { return s.engine.Reset(st) })
}

func (s *Session) ChangeMode(m Mode) Step {
	return s.apply(func(st State) Step { return s.engine.ChangeMode(st, m) })
}

func (s *Session) Shuffle() Step {
	return s.apply(func(st State) Step { return s.engine.Shuffle(st) })
}

func (s *Session) KeepTrying(n int) Step {
	return s.apply(func(st State) Step { return s.engine.AddMistakes(st, n) })
}

func (s *Session) StartHint() Step {
	return s.apply(func(st State) Step { return s.engine.StartHintMode(st) })
}

func (s *Session) RevealTile(id int) Step {
	return s.apply(func(st State) Step { return s.engine.RevealTile(st, id) })
}

func (s *Session) CancelHint() Step {
	return s.apply(func(st State) Step { return s.engine.CancelHintMode(st) })
}

func (s *Session) MoreHints() Step {
	return s.apply(func(st State) Step { return s.engine.GetMoreHints(st) })
}

// Share renders the share summary for the current attempt log.
func (s *Session) Share(streak int, link string) string {
	in := s.Snapshot().Summary(s.Puzzle, streak)
	in.Link = link
	return FormatShare(s.engine.Catalog(), in)
}

func (s *Session) dispatch(effects []Effect) {
	for _, eff := range effects {
		fields := maps.Clone(eff.Fields)
		if fields == nil {
			fields = map[string]any{}
		}
		fields["sessionId"] = s.ID
		fields["puzzle"] = s.Puzzle
		s.record(string(eff.Kind), fields)

		if eff.Kind == EffectPuzzleCompleted || eff.Kind == EffectGaveUp {
			s.finish(eff.Kind == EffectPuzzleCompleted)
		}
	}
}

func (s *Session) record(kind string, fields map[string]any) {
	if s.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("kind", kind).Msg("telemetry record")
		}
	}()
	s.sink.Record(kind, fields)
}

// finish writes the result to the ledger in the background.
func (s *Session) finish(won bool) {
	if s.ledger == nil || s.Player == "" {
		return
	}
	s.mu.Lock()
	st := s.state
	c := Completion{
		Player:    s.Player,
		Puzzle:    s.Puzzle,
		Mode:      st.Mode,
		Won:       won,
		Mistakes:  st.MistakesMade,
		HintsUsed: st.Hints.TotalUsed,
		Named:     st.NamedSolves(),
		Elapsed:   time.Since(s.started),
	}
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Warn().Interface("panic", r).Str("session", s.ID).Msg("ledger write")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
		defer cancel()
		if err := s.ledger.RecordCompletion(ctx, c); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Int("puzzle", s.Puzzle).Msg("record completion")
		}
	}()
}
