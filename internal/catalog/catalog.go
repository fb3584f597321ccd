// internal/catalog/catalog.go
//
// Tile catalog: loads daily puzzles and exposes each as a game.Catalog.
//
// Responsibilities:
//   - Read puzzle JSON from PUZZLES_DIR or fall back to the embedded set.
//   - Accept every puzzle file shape in use (bare array, or an object with
//     `tiles`, `customCoordinates` or `data`).
//   - Validate the 4x4 structure before a puzzle is ever served.
//
// Puzzle files:
//   - One puzzle per *.json file. Its number is the `number` field or,
//     failing that, the file name (`12.json` -> puzzle 12).
//   - Tile IDs are the tile's position in the file (0..15).
//
// Constraints:
//   • Exactly 16 tiles, exactly 4 per difficulty tier.
//   • Every tile carries a known country code.
//   • Loading is run once (sync.Once) for the default catalog.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/pano/assets"
	"github.com/robalobadob/pano/internal/game"
)

var (
	ErrInvalidPuzzle = errors.New("catalog: invalid puzzle")
	ErrUnknownPuzzle = errors.New("catalog: unknown puzzle")
)

// CodeChecker reports whether an attribute code is known.
type CodeChecker interface {
	IsValid(text string) bool
}

// Puzzle is one day's grid. It satisfies game.Catalog.
type Puzzle struct {
	Number int
	game.TileList
}

// Catalog holds every loaded puzzle keyed by number.
type Catalog struct {
	puzzles map[int]*Puzzle
	numbers []int // sorted
}

type rawTile struct {
	CountryCode string  `json:"countryCode"`
	Difficulty  string  `json:"difficulty"`
	PanoID      string  `json:"panoId"`
	Heading     float64 `json:"heading"`
	Pitch       float64 `json:"pitch"`
	Zoom        float64 `json:"zoom"`
	Extra       struct {
		PanoID   string `json:"panoId"`
		PanoDate string `json:"panoDate"`
	} `json:"extra"`
}

type rawPuzzle struct {
	Number            int       `json:"number"`
	Tiles             []rawTile `json:"tiles"`
	CustomCoordinates []rawTile `json:"customCoordinates"`
	Data              []rawTile `json:"data"`
}

// Parse decodes one puzzle file. fallbackNumber is used when the file
// carries no `number` field.
func Parse(data []byte, fallbackNumber int, codes CodeChecker) (*Puzzle, error) {
	var (
		raw    []rawTile
		number = fallbackNumber
	)
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
		}
	} else {
		var doc rawPuzzle
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
		}
		switch {
		case len(doc.Tiles) > 0:
			raw = doc.Tiles
		case len(doc.CustomCoordinates) > 0:
			raw = doc.CustomCoordinates
		default:
			raw = doc.Data
		}
		if doc.Number > 0 {
			number = doc.Number
		}
	}
	if number <= 0 {
		return nil, fmt.Errorf("%w: no puzzle number", ErrInvalidPuzzle)
	}

	p := &Puzzle{Number: number, TileList: make(game.TileList, 0, len(raw))}
	for i, rt := range raw {
		t, err := rt.tile(i, codes)
		if err != nil {
			return nil, fmt.Errorf("%w: puzzle %d: %v", ErrInvalidPuzzle, number, err)
		}
		p.TileList = append(p.TileList, t)
	}
	if err := Validate(p.TileList); err != nil {
		return nil, fmt.Errorf("%w: puzzle %d: %v", ErrInvalidPuzzle, number, err)
	}
	return p, nil
}

func (rt rawTile) tile(id int, codes CodeChecker) (game.Tile, error) {
	code := strings.ToUpper(strings.TrimSpace(rt.CountryCode))
	if code == "" {
		return game.Tile{}, fmt.Errorf("tile %d: missing countryCode", id)
	}
	if codes != nil && !codes.IsValid(code) {
		return game.Tile{}, fmt.Errorf("tile %d: unknown countryCode %q", id, code)
	}
	d, ok := game.ParseDifficulty(rt.Difficulty)
	if !ok || !d.Valid() {
		return game.Tile{}, fmt.Errorf("tile %d: bad difficulty %q", id, rt.Difficulty)
	}

	t := game.Tile{ID: id, Code: code, Difficulty: d, Meta: map[string]string{}}
	panoID := rt.PanoID
	if panoID == "" {
		panoID = rt.Extra.PanoID
	}
	if panoID != "" {
		date := rt.Extra.PanoDate
		if date == "" {
			date = DefaultPanoDate
		}
		t.ImageRef = ImageName(panoID, date, rt.Heading, rt.Pitch, rt.Zoom)
		t.Meta["panoId"] = panoID
		t.Meta["panoDate"] = date
		t.Meta["thumb"] = ThumbName(t.ImageRef)
	}
	return t, nil
}

// Validate checks the 4x4 structure: 16 tiles, 4 per tier.
func Validate(tiles game.TileList) error {
	if len(tiles) != game.GridSize {
		return fmt.Errorf("want %d tiles, got %d", game.GridSize, len(tiles))
	}
	var perTier [game.NumTiers]int
	for _, t := range tiles {
		if !t.Difficulty.Valid() {
			return fmt.Errorf("tile %d: no tier", t.ID)
		}
		perTier[t.Difficulty]++
	}
	for d, n := range perTier {
		if n != game.GroupSize {
			return fmt.Errorf("tier %s has %d tiles, want %d", game.Difficulty(d), n, game.GroupSize)
		}
	}
	return nil
}

// Load reads every *.json puzzle in fsys.
func Load(fsys fs.FS, codes CodeChecker) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	c := &Catalog{puzzles: map[int]*Puzzle{}}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", name, err)
		}
		fallback, _ := strconv.Atoi(strings.TrimSuffix(path.Base(name), ".json"))
		p, err := Parse(data, fallback, codes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, dup := c.puzzles[p.Number]; dup {
			return nil, fmt.Errorf("%w: duplicate puzzle number %d (%s)", ErrInvalidPuzzle, p.Number, name)
		}
		c.puzzles[p.Number] = p
		c.numbers = append(c.numbers, p.Number)
	}
	if len(c.puzzles) == 0 {
		return nil, errors.New("catalog: no puzzles found")
	}
	slices.Sort(c.numbers)
	return c, nil
}

// ByNumber returns puzzle n.
func (c *Catalog) ByNumber(n int) (*Puzzle, error) {
	p, ok := c.puzzles[n]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPuzzle, n)
	}
	return p, nil
}

// At returns the i-th puzzle in number order, wrapping around.
func (c *Catalog) At(i int) *Puzzle {
	i %= len(c.numbers)
	if i < 0 {
		i += len(c.numbers)
	}
	return c.puzzles[c.numbers[i]]
}

// Numbers lists the loaded puzzle numbers in order.
func (c *Catalog) Numbers() []int { return slices.Clone(c.numbers) }

// Len returns the number of loaded puzzles.
func (c *Catalog) Len() int { return len(c.numbers) }

var (
	initOnce   sync.Once
	defaultCat *Catalog
	initErr    error
)

// Init loads the process-wide catalog exactly once: from dir when set,
// otherwise from the embedded puzzles.
func Init(dir string, codes CodeChecker) (*Catalog, error) {
	initOnce.Do(func() {
		fsys := assets.Puzzles()
		if dir != "" {
			fsys = os.DirFS(dir)
		}
		defaultCat, initErr = Load(fsys, codes)
	})
	return defaultCat, initErr
}
