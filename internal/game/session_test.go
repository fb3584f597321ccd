package game

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordedEvent struct {
	kind   string
	fields map[string]any
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeRecorder) Record(kind string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind, fields})
}

func (f *fakeRecorder) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.kind
	}
	return out
}

type panicRecorder struct{}

func (panicRecorder) Record(string, map[string]any) { panic("sink exploded") }

type fakeLedger struct {
	mu   sync.Mutex
	got  []Completion
	fail error
}

func (f *fakeLedger) RecordCompletion(_ context.Context, c Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, c)
	return f.fail
}

func solveAll(s *Session) {
	for tier := range NumTiers {
		for i := range GroupSize {
			s.ToggleTile(tier*GroupSize + i)
		}
		s.Submit()
		s.Guess(AttributeGuess{Code: []string{"FR", "DE", "AT", "JP"}[tier]})
	}
}

func TestSessionCompletionWritesLedger(t *testing.T) {
	rec := &fakeRecorder{}
	led := &fakeLedger{}
	s := NewSession(newTestEngine(), SessionConfig{
		ID: "s1", Puzzle: 9, Player: "user:1", Mode: ModeNormal, Sink: rec, Ledger: led,
	})
	solveAll(s)
	s.Wait()

	snap := s.Snapshot()
	if !snap.Won() {
		t.Fatal("expected a won session")
	}
	if len(led.got) != 1 {
		t.Fatalf("ledger writes = %d, want 1", len(led.got))
	}
	c := led.got[0]
	if !c.Won || c.Puzzle != 9 || c.Player != "user:1" || c.Named != NumTiers || c.Mistakes != 0 {
		t.Fatalf("completion = %+v", c)
	}

	kinds := rec.kinds()
	if kinds[0] != string(EffectPuzzleStarted) || kinds[len(kinds)-1] != string(EffectPuzzleCompleted) {
		t.Fatalf("event kinds = %v", kinds)
	}
	for _, ev := range rec.events {
		if ev.fields["sessionId"] != "s1" || ev.fields["puzzle"] != 9 {
			t.Fatalf("event missing session fields: %+v", ev)
		}
	}

	// Further input does not complete the puzzle a second time.
	s.GiveUp()
	s.Wait()
	if len(led.got) != 1 {
		t.Fatalf("ledger writes after finish = %d", len(led.got))
	}
}

func TestSessionGiveUpRecordsLoss(t *testing.T) {
	led := &fakeLedger{}
	s := NewSession(newTestEngine(), SessionConfig{ID: "s2", Puzzle: 1, Player: "anon:x", Mode: ModeEasy, Ledger: led})
	s.GiveUp()
	s.Wait()
	if len(led.got) != 1 || led.got[0].Won {
		t.Fatalf("ledger = %+v", led.got)
	}
}

func TestSessionEffectFailuresDoNotRollBack(t *testing.T) {
	led := &fakeLedger{fail: errors.New("db down")}
	s := NewSession(newTestEngine(), SessionConfig{
		ID: "s3", Puzzle: 1, Player: "user:2", Mode: ModeNormal, Sink: panicRecorder{}, Ledger: led,
	})
	solveAll(s)
	s.Wait()
	if !s.Snapshot().Won() {
		t.Fatal("transition was rolled back by a failing collaborator")
	}
}

func TestSessionWithoutPlayerSkipsLedger(t *testing.T) {
	led := &fakeLedger{}
	s := NewSession(newTestEngine(), SessionConfig{ID: "s4", Mode: ModeNormal, Ledger: led})
	solveAll(s)
	s.Wait()
	if len(led.got) != 0 {
		t.Fatalf("ledger writes = %d, want 0", len(led.got))
	}
}

func TestSessionClickTile(t *testing.T) {
	s := NewSession(newTestEngine(), SessionConfig{ID: "s5", Mode: ModeNormal})
	if got := s.ClickTile(3).Result; got != ResultSelected {
		t.Fatalf("click while idle = %s", got)
	}
	s.StartHint()
	step := s.ClickTile(7)
	if step.Result != ResultHintRevealed || !step.State.Revealed(7) {
		t.Fatalf("click while armed = %s", step.Result)
	}
	if _, selected := step.State.BucketOf[7]; selected {
		t.Fatal("revealed tile must not be selected")
	}
}

func TestSessionReturnsIndependentState(t *testing.T) {
	s := NewSession(newTestEngine(), SessionConfig{ID: "s6", Mode: ModeNormal})
	step := s.ToggleTile(0)
	step.State.Selection[0] = 15
	step.State.BucketOf[15] = 0
	if snap := s.Snapshot(); snap.Selection[0] != 0 || len(snap.BucketOf) != 1 {
		t.Fatal("caller mutation leaked into the session")
	}
}

func TestSessionConcurrentInput(t *testing.T) {
	s := NewSession(newTestEngine(), SessionConfig{ID: "s7", Mode: ModeExpert})
	var wg sync.WaitGroup
	for id := range GridSize {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleTile(id)
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	assertConsistent(t, snap)
	if len(snap.Selection) != GridSize {
		t.Fatalf("selection = %d tiles, want %d", len(snap.Selection), GridSize)
	}
}

func TestNewViewHidesUnrevealedCodes(t *testing.T) {
	e := newTestEngine()
	s := toggle(t, e, start(e, ModeNormal), 0, 1, 2, 3)
	s = e.HandleGuess(s, TileSubmission{}).State
	s = e.HandleGuess(s, AttributeGuess{Code: "FR"}).State
	s = e.RevealTile(e.StartHintMode(s).State, 9).State

	v := NewView(e.Catalog(), "id", 4, s)
	for _, tv := range v.Tiles {
		switch {
		case tv.ID < 4:
			if tv.Code != "FR" || tv.Difficulty == nil || *tv.Difficulty != Easy {
				t.Fatalf("solved tile %d view = %+v", tv.ID, tv)
			}
		case tv.ID == 9:
			if tv.Code != "AT" || tv.Difficulty != nil {
				t.Fatalf("revealed tile view = %+v", tv)
			}
		default:
			if tv.Code != "" {
				t.Fatalf("tile %d leaked its code", tv.ID)
			}
		}
	}
	if v.Hints.Label != "Hint (1)" || len(v.Rows) != NumTiers || len(v.Solved) != 1 {
		t.Fatalf("view = %+v", v)
	}
}

func TestSessionReplayDoesNotRecordTwice(t *testing.T) {
	count := func(rec *fakeRecorder, kind EffectKind) int {
		n := 0
		for _, k := range rec.kinds() {
			if k == string(kind) {
				n++
			}
		}
		return n
	}

	t.Run("win", func(t *testing.T) {
		rec := &fakeRecorder{}
		led := &fakeLedger{}
		s := NewSession(newTestEngine(), SessionConfig{ID: "r1", Puzzle: 2, Player: "user:1", Mode: ModeNormal, Sink: rec, Ledger: led})
		solveAll(s)
		s.Reset()
		solveAll(s)
		s.Wait()
		if !s.Snapshot().Won() {
			t.Fatal("replay did not win")
		}
		if len(led.got) != 1 || count(rec, EffectPuzzleCompleted) != 1 {
			t.Fatalf("ledger=%d completed events=%d", len(led.got), count(rec, EffectPuzzleCompleted))
		}
	})

	t.Run("give up", func(t *testing.T) {
		rec := &fakeRecorder{}
		led := &fakeLedger{}
		s := NewSession(newTestEngine(), SessionConfig{ID: "r2", Puzzle: 2, Player: "user:1", Mode: ModeNormal, Sink: rec, Ledger: led})
		s.GiveUp()
		s.Reset()
		s.ChangeMode(ModeNormal)
		solveAll(s)
		s.Wait()
		if len(led.got) != 1 || led.got[0].Won {
			t.Fatalf("ledger = %+v", led.got)
		}
		if count(rec, EffectPuzzleCompleted) != 0 || count(rec, EffectGaveUp) != 1 {
			t.Fatalf("event kinds = %v", rec.kinds())
		}
	})
}
