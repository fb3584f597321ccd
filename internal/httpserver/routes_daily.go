// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily puzzle.
//   - GET /daily             → today's puzzle number and date, and whether the
//                              caller already has a result for it
//   - GET /daily/leaderboard → winners for a puzzle (default today)
//
// Today's puzzle is the catalog puzzle numbered PuzzleNumber(now); when the
// catalog has none, one is picked deterministically from date + salt.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/catalog"
	"github.com/robalobadob/pano/internal/daily"
)

func (s *Server) mountDaily(r chi.Router) {
	r.Get("/daily", s.handleDaily)
	r.Get("/daily/leaderboard", s.handleLeaderboard)
}

// today returns the puzzle number for the current day.
func (s *Server) today() int {
	return daily.PuzzleNumber(s.now(), s.cfg.PuzzleEpoch)
}

// puzzleFor returns the tiles to play for puzzle number n. Numbers the
// catalog lacks are only served for today, via the salted fallback.
func (s *Server) puzzleFor(n int) (*catalog.Puzzle, error) {
	p, err := s.deps.Catalog.ByNumber(n)
	if err == nil {
		return p, nil
	}
	if n != s.today() || s.deps.Catalog.Len() == 0 {
		return nil, err
	}
	date := daily.PuzzleDate(n, s.cfg.PuzzleEpoch)
	return s.deps.Catalog.At(daily.PuzzleIndex(date, s.cfg.DailySalt, s.deps.Catalog.Len())), nil
}

type dailyRes struct {
	Number int    `json:"number"`
	Date   string `json:"date"`
	Played bool   `json:"played"`
	Streak int    `json:"streak"`
}

// handleDaily describes today's puzzle for the caller.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	n := s.today()
	res := dailyRes{Number: n, Date: daily.DateKey(daily.PuzzleDate(n, s.cfg.PuzzleEpoch))}

	player := s.playerID(w, r)
	played, err := s.deps.Ledger.Completed(r.Context(), player, n)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("check completed")
	}
	res.Played = played
	if st, err := s.deps.Ledger.Streak(r.Context(), player); err == nil {
		res.Streak = st.Effective(n)
	}
	_ = json.NewEncoder(w).Encode(res)
}

type lbRes struct {
	Puzzle int           `json:"puzzle"`
	Top    []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the top 20 for ?puzzle= (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := s.today()
	if q := r.URL.Query().Get("puzzle"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_puzzle")
			return
		}
		n = v
	}
	rows, err := s.deps.Ledger.Leaderboard(r.Context(), n, 20)
	if err != nil {
		log.Error().Err(err).Int("puzzle", n).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Puzzle: n, Top: rows})
}
