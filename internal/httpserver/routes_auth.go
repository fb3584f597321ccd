// internal/httpserver/routes_auth.go
//
// Accounts over HTTP.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me (require auth)
//
// Optional auth decorates requests with the user when a valid token is
// present; routes still run for guests, who are identified by the
// anonymous cookie instead.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/account"
)

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(currentUser(r))
	})
	s.r.With(s.requireAuth()).Get("/stats/me", s.handleStats)
}

// handleSignup creates a user, sets the auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.deps.Accounts.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	case account.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("create user")
		writeError(w, http.StatusInternalServerError, "signup_failed")
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates, sets the auth cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.deps.Accounts.Authenticate(r.Context(), body.Username, body.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("authenticate")
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnon(r, u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// GET /stats/me returns the caller's ledger record.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	st, err := s.deps.Ledger.Streak(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("load streak")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":            me.ID,
		"gamesPlayed":   st.Played,
		"wins":          st.Wins,
		"streak":        st.Effective(s.today()),
		"bestStreak":    st.Best,
		"lastPuzzle":    st.LastPuzzle,
		"lastWinPuzzle": st.LastWinPuzzle,
	})
}

func (s *Server) issueToken(w http.ResponseWriter, u *account.User) bool {
	tok, exp, err := s.tokens.Sign(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.cookies.Set(w, tok, exp)
	w.Header().Set("X-Auth-Token", tok)
	return true
}

// claimAnon moves the guest's ledger rows to userID. Best effort.
func (s *Server) claimAnon(r *http.Request, userID string) {
	c, err := r.Cookie(s.cfg.AnonCookieName)
	if err != nil || c.Value == "" {
		return
	}
	if err := s.deps.Ledger.ClaimAnon(r.Context(), c.Value, userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("claim anon results")
	}
}

// --------------------------- auth middleware -------------------------------

func (s *Server) userFromToken(ctx context.Context, tok string) (*authUser, bool) {
	claims, err := s.tokens.Parse(tok)
	if err != nil {
		return nil, false
	}
	// Ensure user still exists
	u, err := s.deps.Accounts.ByID(ctx, claims.ID)
	if err != nil {
		return nil, false
	}
	return &authUser{ID: u.ID, Username: u.Username}, true
}

// withOptionalAuth decorates requests with user context if a valid token is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := s.cookies.Token(r); tok != "" {
				if u, ok := s.userFromToken(r.Context(), tok); ok {
					r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid token and injects authUser into the context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.cookies.Token(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			u, ok := s.userFromToken(r.Context(), tok)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// anonID returns the anonymous cookie value, or "" when there is none.
func (s *Server) anonID(r *http.Request) string {
	if c, err := r.Cookie(s.cfg.AnonCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id := s.anonID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// playerID is the ledger key for the caller: the account ID when logged
// in, otherwise the anonymous ID.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// owns reports whether the caller may act on a session started by player.
// A guest who logs in mid-game keeps access through the anonymous cookie.
func (s *Server) owns(r *http.Request, player string) bool {
	if me := currentUser(r); me != nil && me.ID == player {
		return true
	}
	anon := s.anonID(r)
	return anon != "" && anon == player
}
