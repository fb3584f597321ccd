// internal/countries/countries.go
//
// Attribute resolver: maps what a player types ("côte d'ivoire", "ivory
// coast", "ci") to the two-letter country code tiles are labelled with.
//
// Responsibilities:
//   - Parse the `code|name|alt;alt` table (embedded by default).
//   - Fold case, accents and punctuation so lookups are forgiving.
//   - Expose Resolve, IsValid, Name and Alternates over the table.
//
// Notes:
//   - The default table is loaded once (sync.Once) from assets.
//   - Matching is exact after folding; there is no fuzzy search.

package countries

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/robalobadob/pano/assets"
)

// Country is one row of the table.
type Country struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Alternates []string `json:"alternates,omitempty"`
}

// Table indexes countries by code and by every folded spelling.
type Table struct {
	byCode map[string]Country
	index  map[string]string // folded spelling -> code
	codes  []string
}

// Parse builds a table from `code|name|alt;alt` lines.
func Parse(lines []string) (*Table, error) {
	t := &Table{byCode: map[string]Country{}, index: map[string]string{}}
	for i, line := range lines {
		parts := strings.Split(line, "|")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("countries: line %d: want code|name[|alternates], got %q", i+1, line)
		}
		c := Country{
			Code: strings.ToUpper(strings.TrimSpace(parts[0])),
			Name: strings.TrimSpace(parts[1]),
		}
		if len(c.Code) != 2 || c.Name == "" {
			return nil, fmt.Errorf("countries: line %d: bad entry %q", i+1, line)
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("countries: line %d: duplicate code %s", i+1, c.Code)
		}
		if len(parts) == 3 {
			for _, alt := range strings.Split(parts[2], ";") {
				if alt = strings.TrimSpace(alt); alt != "" {
					c.Alternates = append(c.Alternates, alt)
				}
			}
		}
		t.byCode[c.Code] = c
		t.codes = append(t.codes, c.Code)
		for _, s := range append([]string{c.Code, c.Name}, c.Alternates...) {
			// First writer wins so a code never gets shadowed by a later alias.
			if k := fold(s); k != "" {
				if _, taken := t.index[k]; !taken {
					t.index[k] = c.Code
				}
			}
		}
	}
	slices.Sort(t.codes)
	return t, nil
}

var foldCaser = cases.Fold()

// fold lowercases s, strips diacritics and drops everything that is not a
// letter or digit.
func fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		out = s
	}
	out = foldCaser.String(out)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, out)
}

// Resolve returns the country code text refers to.
func (t *Table) Resolve(text string) (string, bool) {
	code, ok := t.index[fold(text)]
	return code, ok
}

// IsValid reports whether text names a known country.
func (t *Table) IsValid(text string) bool {
	_, ok := t.Resolve(text)
	return ok
}

// Name returns the display name for code, or "" if unknown.
func (t *Table) Name(code string) string {
	return t.byCode[strings.ToUpper(code)].Name
}

// Alternates returns the accepted alternate spellings for code.
func (t *Table) Alternates(code string) []string {
	return slices.Clone(t.byCode[strings.ToUpper(code)].Alternates)
}

// Filter lists countries whose folded code, name or alternate contains q,
// ordered by code. An empty q lists every country.
func (t *Table) Filter(q string) []Country {
	needle := fold(q)
	out := []Country{}
	for _, code := range t.codes {
		c := t.byCode[code]
		if needle == "" || slices.ContainsFunc(append([]string{c.Code, c.Name}, c.Alternates...), func(s string) bool {
			return strings.Contains(fold(s), needle)
		}) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of countries.
func (t *Table) Len() int { return len(t.codes) }

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded table, loading it on first use.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		lines, err := assets.CountryLines()
		if err != nil {
			defaultErr = err
			return
		}
		defaultTable, defaultErr = Parse(lines)
	})
	return defaultTable, defaultErr
}
