// internal/account/account.go
//
// Player accounts.
// Responsibilities:
//   - Username/password rules and bcrypt hashing.
//   - User rows: create, look up, authenticate.
//
// Usernames are unique case-insensitively; the stored spelling is the one
// given at signup.

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/pano/internal/database"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")

	ErrUsernameLength = errors.New("username must be 3-24 chars")
	ErrUsernameChars  = errors.New("username: letters, numbers, underscore only")
	ErrPasswordLength = errors.New("password must be 8-100 chars")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces the username and password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return ErrUsernameLength
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ErrUsernameChars
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return ErrPasswordLength
	}
	return nil
}

// IsValidationError reports whether err came from ValidateSignup.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUsernameLength) || errors.Is(err, ErrUsernameChars) || errors.Is(err, ErrPasswordLength)
}

// Service reads and writes the users table.
type Service struct {
	db   *database.DB
	cost int
	now  func() time.Time
}

func NewService(db *database.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost, now: time.Now}
}

// SetCost changes the bcrypt cost for new hashes.
func (s *Service) SetCost(cost int) { s.cost = cost }

// Create validates input, checks uniqueness, hashes the password and
// inserts the user.
func (s *Service) Create(ctx context.Context, username, pw string) (*User, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE lower(username)=lower(?)`, username,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	log.Info().Str("user", u.ID).Str("username", u.Username).Msg("account created")
	return u, nil
}

// Authenticate returns the user when the password matches.
func (s *Service) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.ByUsername(ctx, NormalizeUsername(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) ByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`, username))
}

func (s *Service) ByID(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id))
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// zero time on a malformed timestamp
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}
