// internal/httpserver/routes_game.go
//
// Game endpoints. Every engine action is one POST under /game/{id}; each
// returns the session view with the action's result.
//
//   - POST /game/new                 {mode, puzzle?, fresh?}
//   - GET  /game/{id}
//   - POST /game/{id}/tile           {tileId}   reveal when a hint is armed, else toggle
//   - POST /game/{id}/submit
//   - POST /game/{id}/guess          {code} | {text} | {codes:[4]}
//   - POST /game/{id}/skip | giveup | reset | shuffle
//   - POST /game/{id}/mode           {mode}
//   - POST /game/{id}/keep-trying    {count}
//   - POST /game/{id}/hint/start | cancel | more
//   - POST /game/{id}/hint/reveal    {tileId}
//   - GET  /game/{id}/share
//
// Free-text country guesses are resolved to codes before they reach the
// engine; text that names no country is rejected without a penalty.

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/catalog"
	"github.com/robalobadob/pano/internal/game"
	"github.com/robalobadob/pano/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.withSession(s.handleView))
		r.Post("/tile", s.withSession(s.handleTile))
		r.Post("/submit", s.withSession(s.action((*game.Session).Submit)))
		r.Post("/guess", s.withSession(s.handleGuess))
		r.Post("/skip", s.withSession(s.action((*game.Session).Skip)))
		r.Post("/giveup", s.withSession(s.action((*game.Session).GiveUp)))
		r.Post("/reset", s.withSession(s.action((*game.Session).Reset)))
		r.Post("/shuffle", s.withSession(s.action((*game.Session).Shuffle)))
		r.Post("/mode", s.withSession(s.handleMode))
		r.Post("/keep-trying", s.withSession(s.handleKeepTrying))
		r.Post("/hint/start", s.withSession(s.action((*game.Session).StartHint)))
		r.Post("/hint/cancel", s.withSession(s.action((*game.Session).CancelHint)))
		r.Post("/hint/more", s.withSession(s.action((*game.Session).MoreHints)))
		r.Post("/hint/reveal", s.withSession(s.handleReveal))
		r.Get("/share", s.withSession(s.handleShare))
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *game.Session)

// withSession loads {id} and checks the caller owns it. Sessions of other
// players are reported as missing.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) || (err == nil && !s.owns(r, sess.Player)) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store_error")
			return
		}
		h(w, r, sess)
	}
}

// action adapts a body-less session method.
func (s *Server) action(f func(*game.Session) game.Step) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess *game.Session) {
		s.respond(w, sess, f(sess))
	}
}

// respond writes the post-transition view.
func (s *Server) respond(w http.ResponseWriter, sess *game.Session, step game.Step) {
	v := game.NewView(sess.Engine().Catalog(), sess.ID, sess.Puzzle, step.State)
	v.Result = step.Result
	writeJSON(w, http.StatusOK, v)
}

// ------------------------------ /game/new ----------------------------------

type newGameReq struct {
	Mode   string `json:"mode"`   // easy | normal | expert
	Puzzle int    `json:"puzzle"` // optional; default today
	Fresh  bool   `json:"fresh"`  // start over instead of resuming
}

type newGameRes struct {
	game.View
	Played bool `json:"played"`
}

// handleNewGame starts (or resumes) the caller's session on a puzzle.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	mode, ok := game.ParseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_mode")
		return
	}
	number := req.Puzzle
	if number <= 0 {
		number = s.today()
	}
	puzzle, err := s.puzzleFor(number)
	if errors.Is(err, catalog.ErrUnknownPuzzle) {
		writeError(w, http.StatusNotFound, "unknown_puzzle")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error")
		return
	}

	player := s.playerID(w, r)
	played, err := s.deps.Ledger.Completed(r.Context(), player, number)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("check completed")
	}

	sess, err := s.deps.Sessions.Current(r.Context(), player, number)
	if err != nil || req.Fresh {
		e := game.NewEngine(puzzle, s.deps.EngineOptions...)
		sess = game.NewSession(e, game.SessionConfig{
			ID:     uuid.NewString(),
			Puzzle: number,
			Player: player,
			Mode:   mode,
			Sink:   s.deps.Sink,
			Ledger: s.deps.Ledger,
		})
		if err := s.deps.Sessions.Save(r.Context(), sess); err != nil {
			log.Error().Err(err).Msg("save session")
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}
		log.Info().Str("session", sess.ID).Int("puzzle", number).Str("mode", string(mode)).Msg("session started")
	}

	v := game.NewView(sess.Engine().Catalog(), sess.ID, sess.Puzzle, sess.Snapshot())
	writeJSON(w, http.StatusOK, newGameRes{View: v, Played: played})
}

// ---------------------------- session actions ------------------------------

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	writeJSON(w, http.StatusOK, game.NewView(sess.Engine().Catalog(), sess.ID, sess.Puzzle, sess.Snapshot()))
}

type tileReq struct {
	TileID *int `json:"tileId"`
}

func (s *Server) tileID(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req tileReq
	if err := decode(r, &req); err != nil || req.TileID == nil {
		writeError(w, http.StatusBadRequest, "tile_required")
		return 0, false
	}
	return *req.TileID, true
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	if id, ok := s.tileID(w, r); ok {
		s.respond(w, sess, sess.ClickTile(id))
	}
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	if id, ok := s.tileID(w, r); ok {
		s.respond(w, sess, sess.RevealTile(id))
	}
}

type modeReq struct {
	Mode string `json:"mode"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	var req modeReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	mode, ok := game.ParseMode(req.Mode)
	if !ok || req.Mode == "" {
		writeError(w, http.StatusBadRequest, "bad_mode")
		return
	}
	s.respond(w, sess, sess.ChangeMode(mode))
}

type keepTryingReq struct {
	Count int `json:"count"`
}

// handleKeepTrying grants count more mistakes (default: a fresh budget for
// the session's mode).
func (s *Server) handleKeepTrying(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	var req keepTryingReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	n := req.Count
	if n <= 0 {
		n = sess.Snapshot().Mode.MistakeBudget()
	}
	s.respond(w, sess, sess.KeepTrying(n))
}

// ------------------------------- guesses -----------------------------------

type guessReq struct {
	Code  *string  `json:"code"`
	Text  *string  `json:"text"`
	Codes []string `json:"codes"`
}

// handleGuess converts the request into the engine's guess variant. No
// code/text/codes means "submit the current buckets".
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	input := req.Code
	if input == nil {
		input = req.Text
	}
	if req.Codes != nil {
		joined := strings.Join(req.Codes, "|")
		input = &joined
	}

	g, err := game.ParseGuess(sess.Snapshot().Mode, input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed_guess")
		return
	}
	g, unknown := s.resolveGuess(g)
	if unknown != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown_country", "input": unknown})
		return
	}
	s.respond(w, sess, sess.Guess(g))
}

// resolveGuess maps typed country names to codes. It returns the first
// input naming no country. Blank expert entries stay blank.
func (s *Server) resolveGuess(g game.Guess) (game.Guess, string) {
	switch g := g.(type) {
	case game.AttributeGuess:
		code, ok := s.deps.Countries.Resolve(g.Code)
		if !ok {
			return g, g.Code
		}
		return game.AttributeGuess{Code: code}, ""
	case game.ExpertGuess:
		for i, text := range g.Codes {
			if text == "" {
				continue
			}
			code, ok := s.deps.Countries.Resolve(text)
			if !ok {
				return g, text
			}
			g.Codes[i] = code
		}
		return g, ""
	}
	return g, ""
}

// -------------------------------- share ------------------------------------

type shareRes struct {
	Text   string `json:"text"`
	Streak int    `json:"streak"`
}

// handleShare renders the share text with the player's current streak.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	sess.Wait() // a just-finished game's ledger write counts toward the streak
	streak := 0
	if st, err := s.deps.Ledger.Streak(r.Context(), sess.Player); err == nil {
		streak = st.Effective(s.today())
	} else {
		log.Warn().Err(err).Str("player", sess.Player).Msg("load streak")
	}
	writeJSON(w, http.StatusOK, shareRes{Text: sess.Share(streak, s.cfg.ShareLink), Streak: streak})
}
