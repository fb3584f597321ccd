// internal/daily/store.go
//
// Result ledgers keyed by player (account ID or anonymous ID).
// Responsibilities:
//   - completions: one row per (player, puzzle); the first recorded result
//     stands and later ones are ignored.
//   - streaks: played/wins counters and the current/best daily streak,
//     updated in the same transaction as the completion.
//   - Leaderboard per puzzle and claiming anonymous rows on login.

package daily

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/database"
	"github.com/robalobadob/pano/internal/game"
)

// Result is one finished attempt at a puzzle.
type Result struct {
	PlayerID  string `json:"playerId"`
	Puzzle    int    `json:"puzzle"`
	Mode      string `json:"mode"`
	Won       bool   `json:"won"`
	Mistakes  int    `json:"mistakes"`
	HintsUsed int    `json:"hintsUsed"`
	Named     int    `json:"named"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Streak is a player's running record.
type Streak struct {
	Current       int `json:"current"`
	Best          int `json:"best"`
	LastPuzzle    int `json:"lastPuzzle"`
	LastWinPuzzle int `json:"lastWinPuzzle"`
	Played        int `json:"played"`
	Wins          int `json:"wins"`
}

// Effective is the streak to show on puzzle today: a streak whose last win
// is older than yesterday's puzzle has lapsed.
func (s Streak) Effective(today int) int {
	if s.Current == 0 || s.LastWinPuzzle < today-1 {
		return 0
	}
	return s.Current
}

// apply folds r into s. Results for puzzles older than the last one played
// (archive play) count toward played/wins but leave the streak alone.
func (s Streak) apply(r Result) Streak {
	s.Played++
	if r.Won {
		s.Wins++
	}
	if r.Puzzle < s.LastPuzzle {
		return s
	}
	s.LastPuzzle = r.Puzzle
	if !r.Won {
		s.Current = 0
		return s
	}
	if s.Current > 0 && s.LastWinPuzzle == r.Puzzle-1 {
		s.Current++
	} else {
		s.Current = 1
	}
	s.LastWinPuzzle = r.Puzzle
	if s.Current > s.Best {
		s.Best = s.Current
	}
	return s
}

// LBRow is one leaderboard entry.
type LBRow struct {
	PlayerID  string `json:"playerId"`
	Username  string `json:"username,omitempty"`
	Mode      string `json:"mode"`
	Mistakes  int    `json:"mistakes"`
	HintsUsed int    `json:"hintsUsed"`
	Named     int    `json:"named"`
	ElapsedMs int64  `json:"elapsedMs"`
}

type Store struct {
	db  *database.DB
	now func() time.Time
}

func NewStore(db *database.DB) *Store { return &Store{db: db, now: time.Now} }

func (s *Store) stamp() string { return s.now().UTC().Format(time.RFC3339) }

// Completed reports whether player already has a result for puzzle.
func (s *Store) Completed(ctx context.Context, player string, puzzle int) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM completions WHERE player_id=? AND puzzle=?`,
		player, puzzle,
	).Scan(&cnt)
	return cnt > 0, err
}

// RecordCompletion adapts a finished session to RecordResult.
func (s *Store) RecordCompletion(ctx context.Context, c game.Completion) error {
	_, err := s.RecordResult(ctx, Result{
		PlayerID:  c.Player,
		Puzzle:    c.Puzzle,
		Mode:      string(c.Mode),
		Won:       c.Won,
		Mistakes:  c.Mistakes,
		HintsUsed: c.HintsUsed,
		Named:     c.Named,
		ElapsedMs: c.Elapsed.Milliseconds(),
	})
	return err
}

// RecordResult stores r and updates the player's streak. It returns false
// when the player already had a result for the puzzle.
func (s *Store) RecordResult(ctx context.Context, r Result) (bool, error) {
	if r.PlayerID == "" || r.Puzzle < 1 {
		return false, errors.New("daily: result needs a player and a puzzle")
	}
	inserted := false
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		var cnt int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM completions WHERE player_id=? AND puzzle=?`, r.PlayerID, r.Puzzle,
		).Scan(&cnt); err != nil {
			return err
		}
		if cnt > 0 {
			return nil
		}
		now := s.stamp()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO completions (player_id, puzzle, mode, won, mistakes, hints_used, named, elapsed_ms, created_at)
			 VALUES (?,?,?,?,?,?,?,?,?)`,
			r.PlayerID, r.Puzzle, r.Mode, boolInt(r.Won), r.Mistakes, r.HintsUsed, r.Named, r.ElapsedMs, now,
		); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}

		st, found, err := loadStreak(ctx, tx, r.PlayerID)
		if err != nil {
			return err
		}
		if err := saveStreak(ctx, tx, r.PlayerID, st.apply(r), found, now); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if inserted {
		log.Info().Str("player", r.PlayerID).Int("puzzle", r.Puzzle).Bool("won", r.Won).Msg("result recorded")
	}
	return inserted, nil
}

// Streak returns the player's record; unknown players get the zero value.
func (s *Store) Streak(ctx context.Context, player string) (Streak, error) {
	st, _, err := loadStreak(ctx, s.db, player)
	return st, err
}

// Leaderboard lists winners of puzzle: fewest mistakes, then fewest hints,
// then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, puzzle, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.player_id, COALESCE(u.username, ''), c.mode, c.mistakes, c.hints_used, c.named, c.elapsed_ms
		 FROM completions c
		 LEFT JOIN users u ON u.id = c.player_id
		 WHERE c.puzzle=? AND c.won=1
		 ORDER BY c.mistakes ASC, c.hints_used ASC, c.elapsed_ms ASC, c.created_at ASC
		 LIMIT ?`, puzzle, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Username, &r.Mode, &r.Mistakes, &r.HintsUsed, &r.Named, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnon moves an anonymous player's rows to userID. Puzzles the account
// already has a result for keep the account's row; the anonymous streak is
// adopted only when the account has none.
func (s *Store) ClaimAnon(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" || anonID == userID {
		return nil
	}
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM completions WHERE player_id=? AND puzzle IN
			   (SELECT puzzle FROM (SELECT puzzle FROM completions WHERE player_id=?) owned)`,
			anonID, userID,
		); err != nil {
			return fmt.Errorf("drop overlapping completions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE completions SET player_id=? WHERE player_id=?`, userID, anonID,
		); err != nil {
			return fmt.Errorf("claim completions: %w", err)
		}

		_, hasUser, err := loadStreak(ctx, tx, userID)
		if err != nil {
			return err
		}
		if hasUser {
			_, err = tx.ExecContext(ctx, `DELETE FROM streaks WHERE player_id=?`, anonID)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE streaks SET player_id=? WHERE player_id=?`, userID, anonID)
		}
		if err != nil {
			return fmt.Errorf("claim streak: %w", err)
		}
		return nil
	})
}

func loadStreak(ctx context.Context, q database.Queryer, player string) (Streak, bool, error) {
	var st Streak
	err := q.QueryRowContext(ctx,
		`SELECT current_streak, best_streak, last_puzzle, last_win_puzzle, played, wins
		 FROM streaks WHERE player_id=?`, player,
	).Scan(&st.Current, &st.Best, &st.LastPuzzle, &st.LastWinPuzzle, &st.Played, &st.Wins)
	if errors.Is(err, sql.ErrNoRows) {
		return Streak{}, false, nil
	}
	if err != nil {
		return Streak{}, false, fmt.Errorf("load streak: %w", err)
	}
	return st, true, nil
}

func saveStreak(ctx context.Context, q database.Queryer, player string, st Streak, exists bool, now string) error {
	var err error
	if exists {
		_, err = q.ExecContext(ctx,
			`UPDATE streaks SET current_streak=?, best_streak=?, last_puzzle=?, last_win_puzzle=?, played=?, wins=?, updated_at=?
			 WHERE player_id=?`,
			st.Current, st.Best, st.LastPuzzle, st.LastWinPuzzle, st.Played, st.Wins, now, player)
	} else {
		_, err = q.ExecContext(ctx,
			`INSERT INTO streaks (player_id, current_streak, best_streak, last_puzzle, last_win_puzzle, played, wins, updated_at)
			 VALUES (?,?,?,?,?,?,?,?)`,
			player, st.Current, st.Best, st.LastPuzzle, st.LastWinPuzzle, st.Played, st.Wins, now)
	}
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
