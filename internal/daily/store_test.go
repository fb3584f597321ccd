package daily

import (
	"context"
	"testing"
	"time"

	"github.com/robalobadob/pano/internal/database"
	"github.com/robalobadob/pano/internal/game"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewStore(db)
	s.now = func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func win(player string, puzzle int) Result {
	return Result{PlayerID: player, Puzzle: puzzle, Mode: "normal", Won: true}
}

func loss(player string, puzzle int) Result {
	return Result{PlayerID: player, Puzzle: puzzle, Mode: "normal"}
}

func TestStreakApply(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    Streak
	}{
		{
			name:    "consecutive wins",
			results: []Result{win("p", 1), win("p", 2), win("p", 3)},
			want:    Streak{Current: 3, Best: 3, LastPuzzle: 3, LastWinPuzzle: 3, Played: 3, Wins: 3},
		},
		{
			name:    "gap restarts at one",
			results: []Result{win("p", 1), win("p", 2), win("p", 5)},
			want:    Streak{Current: 1, Best: 2, LastPuzzle: 5, LastWinPuzzle: 5, Played: 3, Wins: 3},
		},
		{
			name:    "loss resets current keeps best",
			results: []Result{win("p", 1), win("p", 2), loss("p", 3)},
			want:    Streak{Current: 0, Best: 2, LastPuzzle: 3, LastWinPuzzle: 2, Played: 3, Wins: 2},
		},
		{
			name:    "win after loss starts over",
			results: []Result{win("p", 1), loss("p", 2), win("p", 3)},
			want:    Streak{Current: 1, Best: 1, LastPuzzle: 3, LastWinPuzzle: 3, Played: 3, Wins: 2},
		},
		{
			name:    "archive play leaves streak",
			results: []Result{win("p", 4), win("p", 5), loss("p", 2)},
			want:    Streak{Current: 2, Best: 2, LastPuzzle: 5, LastWinPuzzle: 5, Played: 3, Wins: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st Streak
			for _, r := range tt.results {
				st = st.apply(r)
			}
			if st != tt.want {
				t.Errorf("streak = %+v, want %+v", st, tt.want)
			}
		})
	}
}

func TestEffective(t *testing.T) {
	st := Streak{Current: 4, LastWinPuzzle: 10}
	tests := []struct {
		today int
		want  int
	}{{10, 4}, {11, 4}, {12, 0}}
	for _, tt := range tests {
		if got := st.Effective(tt.today); got != tt.want {
			t.Errorf("Effective(%d) = %d, want %d", tt.today, got, tt.want)
		}
	}
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ok, err := s.RecordResult(ctx, win("alice", 1))
	if err != nil || !ok {
		t.Fatalf("first record = %v, %v", ok, err)
	}
	// Same puzzle again is ignored, including a different outcome.
	ok, err = s.RecordResult(ctx, loss("alice", 1))
	if err != nil || ok {
		t.Fatalf("duplicate record = %v, %v", ok, err)
	}
	if _, err := s.RecordResult(ctx, win("alice", 2)); err != nil {
		t.Fatal(err)
	}

	done, err := s.Completed(ctx, "alice", 2)
	if err != nil || !done {
		t.Fatalf("Completed = %v, %v", done, err)
	}
	done, _ = s.Completed(ctx, "alice", 3)
	if done {
		t.Fatal("puzzle 3 should not be completed")
	}

	st, err := s.Streak(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := Streak{Current: 2, Best: 2, LastPuzzle: 2, LastWinPuzzle: 2, Played: 2, Wins: 2}
	if st != want {
		t.Fatalf("streak = %+v, want %+v", st, want)
	}

	unknown, err := s.Streak(ctx, "nobody")
	if err != nil || unknown != (Streak{}) {
		t.Fatalf("unknown streak = %+v, %v", unknown, err)
	}

	if _, err := s.RecordResult(ctx, Result{Puzzle: 1}); err == nil {
		t.Fatal("result without player should fail")
	}
}

func TestRecordCompletionImplementsLedger(t *testing.T) {
	var _ game.Ledger = (*Store)(nil)

	ctx := context.Background()
	s := newTestStore(t)
	err := s.RecordCompletion(ctx, game.Completion{
		Player: "bob", Puzzle: 3, Mode: game.ModeExpert, Won: true,
		Mistakes: 1, HintsUsed: 2, Named: 3, Elapsed: 90 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := s.Leaderboard(ctx, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	got := rows[0]
	if got.PlayerID != "bob" || got.Mode != "expert" || got.Mistakes != 1 || got.HintsUsed != 2 || got.Named != 3 || got.ElapsedMs != 90000 {
		t.Fatalf("row = %+v", got)
	}
}

func TestLeaderboardOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	results := []Result{
		{PlayerID: "slow", Puzzle: 7, Mode: "normal", Won: true, Mistakes: 0, ElapsedMs: 9000},
		{PlayerID: "fast", Puzzle: 7, Mode: "normal", Won: true, Mistakes: 0, ElapsedMs: 1000},
		{PlayerID: "hinted", Puzzle: 7, Mode: "normal", Won: true, Mistakes: 0, HintsUsed: 1, ElapsedMs: 500},
		{PlayerID: "sloppy", Puzzle: 7, Mode: "normal", Won: true, Mistakes: 2, ElapsedMs: 100},
		{PlayerID: "lost", Puzzle: 7, Mode: "normal", Won: false},
		{PlayerID: "other", Puzzle: 8, Mode: "normal", Won: true},
	}
	for _, r := range results {
		if _, err := s.RecordResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	rows, err := s.Leaderboard(ctx, 7, 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, r := range rows {
		order = append(order, r.PlayerID)
	}
	want := []string{"fast", "slow", "hinted", "sloppy"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	top, _ := s.Leaderboard(ctx, 7, 2)
	if len(top) != 2 {
		t.Fatalf("limit ignored: %d rows", len(top))
	}
}

func TestLeaderboardUsernames(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		"u1", "carol", "x", s.stamp()); err != nil {
		t.Fatal(err)
	}
	_, _ = s.RecordResult(ctx, win("u1", 1))
	_, _ = s.RecordResult(ctx, win("anon-1", 1))
	rows, err := s.Leaderboard(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]string{}
	for _, r := range rows {
		names[r.PlayerID] = r.Username
	}
	if names["u1"] != "carol" || names["anon-1"] != "" {
		t.Fatalf("names = %v", names)
	}
}

func TestClaimAnon(t *testing.T) {
	ctx := context.Background()

	t.Run("account without history adopts everything", func(t *testing.T) {
		s := newTestStore(t)
		_, _ = s.RecordResult(ctx, win("anon", 1))
		_, _ = s.RecordResult(ctx, win("anon", 2))
		if err := s.ClaimAnon(ctx, "anon", "user"); err != nil {
			t.Fatal(err)
		}
		for _, n := range []int{1, 2} {
			if done, _ := s.Completed(ctx, "user", n); !done {
				t.Errorf("puzzle %d not claimed", n)
			}
		}
		st, _ := s.Streak(ctx, "user")
		if st.Current != 2 || st.Played != 2 {
			t.Errorf("streak = %+v", st)
		}
		if st, _ := s.Streak(ctx, "anon"); st != (Streak{}) {
			t.Errorf("anon streak left behind: %+v", st)
		}
	})

	t.Run("account rows win on overlap", func(t *testing.T) {
		s := newTestStore(t)
		_, _ = s.RecordResult(ctx, loss("user", 1))
		_, _ = s.RecordResult(ctx, win("anon", 1))
		_, _ = s.RecordResult(ctx, win("anon", 2))
		if err := s.ClaimAnon(ctx, "anon", "user"); err != nil {
			t.Fatal(err)
		}
		if rows, _ := s.Leaderboard(ctx, 1, 10); len(rows) != 0 {
			t.Errorf("anon win on puzzle 1 survived: %+v", rows)
		}
		if done, _ := s.Completed(ctx, "user", 2); !done {
			t.Error("puzzle 2 not claimed")
		}
		st, _ := s.Streak(ctx, "user")
		if st.Played != 1 || st.Current != 0 {
			t.Errorf("account streak replaced: %+v", st)
		}
	})

	t.Run("no-op inputs", func(t *testing.T) {
		s := newTestStore(t)
		for _, ids := range [][2]string{{"", "u"}, {"a", ""}, {"same", "same"}} {
			if err := s.ClaimAnon(ctx, ids[0], ids[1]); err != nil {
				t.Errorf("ClaimAnon(%q, %q) = %v", ids[0], ids[1], err)
			}
		}
	})
}
