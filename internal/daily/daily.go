// internal/daily/daily.go
//
// Puzzle calendar.
// Responsibilities:
//   - Map a calendar day to its puzzle number (days since the epoch + 1).
//   - Pick a deterministic fallback puzzle for a day when the catalog has
//     no puzzle with that number.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

const day = 24 * time.Hour

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// midnight truncates t to its UTC day.
func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PuzzleNumber returns the puzzle number for t. The epoch day is puzzle 1;
// days before the epoch clamp to 1.
func PuzzleNumber(t, epoch time.Time) int {
	n := int(midnight(t).Sub(midnight(epoch))/day) + 1
	if n < 1 {
		return 1
	}
	return n
}

// PuzzleDate is the inverse of PuzzleNumber.
func PuzzleDate(n int, epoch time.Time) time.Time {
	if n < 1 {
		n = 1
	}
	return midnight(epoch).Add(time.Duration(n-1) * day)
}

// PuzzleIndex returns a deterministic index for a date using
// HMAC(salt, YYYY-MM-DD) % n.
func PuzzleIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
