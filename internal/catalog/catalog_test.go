package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/robalobadob/pano/internal/countries"
	"github.com/robalobadob/pano/internal/game"
)

// puzzleTiles builds a valid 16-tile list as JSON-ready maps.
func puzzleTiles() []map[string]any {
	codes := []string{"FR", "DE", "JP", "BR"}
	tiers := []string{"easy", "medium", "hard", "expert"}
	var out []map[string]any
	for i := range game.GridSize {
		out = append(out, map[string]any{
			"countryCode": codes[i/4],
			"difficulty":  tiers[i/4],
			"panoId":      fmt.Sprintf("pano%02d", i),
			"heading":     90.5,
			"pitch":       -1.234,
			"zoom":        1.7,
			"extra":       map[string]any{"panoDate": "2021-06"},
		})
	}
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestParseShapes(t *testing.T) {
	tiles := puzzleTiles()
	tests := []struct {
		name       string
		doc        any
		fallback   int
		wantNumber int
	}{
		{"bare array", tiles, 5, 5},
		{"tiles object", map[string]any{"number": 7, "tiles": tiles}, 1, 7},
		{"customCoordinates", map[string]any{"customCoordinates": tiles}, 9, 9},
		{"data", map[string]any{"number": 11, "data": tiles}, 0, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(mustJSON(t, tt.doc), tt.fallback, nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.Number != tt.wantNumber || p.Len() != game.GridSize {
				t.Fatalf("number=%d len=%d", p.Number, p.Len())
			}
			tile, _ := p.Tile(13)
			if tile.Code != "BR" || tile.Difficulty != game.Expert {
				t.Fatalf("tile 13 = %+v", tile)
			}
		})
	}
}

func TestParseImageRefs(t *testing.T) {
	tiles := puzzleTiles()
	tiles[0]["panoId"] = ""
	tiles[0]["extra"] = map[string]any{"panoId": "nested"}

	p, err := Parse(mustJSON(t, tiles), 1, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t0, _ := p.Tile(0)
	if t0.ImageRef != "nested~d2024-01~h90.5~p-1.23~z1.jpg" {
		t.Fatalf("ImageRef = %q", t0.ImageRef)
	}
	if t0.Meta["thumb"] != "nested~d2024-01~h90.5~p-1.23~z1~thumb.jpg" {
		t.Fatalf("thumb = %q", t0.Meta["thumb"])
	}
	t1, _ := p.Tile(1)
	if t1.ImageRef != "pano01~d2021-06~h90.5~p-1.23~z1.jpg" {
		t.Fatalf("ImageRef = %q", t1.ImageRef)
	}
}

func TestRoundNumber(t *testing.T) {
	tests := map[float64]string{
		0:        "0",
		180:      "180",
		12.5:     "12.5",
		12.346:   "12.35",
		-0.001:   "0",
		359.999:  "360",
		-45.1049: "-45.1",
	}
	for in, want := range tests {
		if got := roundNumber(in); got != want {
			t.Errorf("roundNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRejectsMalformedPuzzles(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]map[string]any) any
	}{
		{"fifteen tiles", func(ts []map[string]any) any { return ts[:15] }},
		{"five in one tier", func(ts []map[string]any) any {
			ts[4]["difficulty"] = "easy"
			return ts
		}},
		{"unknown tier", func(ts []map[string]any) any {
			ts[0]["difficulty"] = "brutal"
			return ts
		}},
		{"tierless tile", func(ts []map[string]any) any {
			ts[0]["difficulty"] = "unknown"
			return ts
		}},
		{"missing code", func(ts []map[string]any) any {
			ts[3]["countryCode"] = ""
			return ts
		}},
		{"unknown code", func(ts []map[string]any) any {
			ts[3]["countryCode"] = "QQ"
			return ts
		}},
	}
	codes, err := countries.Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(mustJSON(t, tt.mutate(puzzleTiles())), 1, codes)
			if !errors.Is(err, ErrInvalidPuzzle) {
				t.Fatalf("err = %v, want ErrInvalidPuzzle", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"3.json":     {Data: mustJSON(t, puzzleTiles())},
		"extra.json": {Data: mustJSON(t, map[string]any{"number": 1, "tiles": puzzleTiles()})},
		"notes.txt":  {Data: []byte("ignored")},
	}
	c, err := Load(fsys, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Numbers(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Numbers = %v", got)
	}
	if _, err := c.ByNumber(3); err != nil {
		t.Fatalf("ByNumber(3): %v", err)
	}
	if _, err := c.ByNumber(2); !errors.Is(err, ErrUnknownPuzzle) {
		t.Fatalf("ByNumber(2) err = %v", err)
	}
	if c.At(2).Number != 1 || c.At(-1).Number != 3 {
		t.Fatal("At does not wrap")
	}

	fsys["1.json"] = &fstest.MapFile{Data: mustJSON(t, puzzleTiles())}
	if _, err := Load(fsys, nil); !errors.Is(err, ErrInvalidPuzzle) {
		t.Fatalf("duplicate number err = %v", err)
	}
}

func TestEmbeddedPuzzles(t *testing.T) {
	codes, err := countries.Default()
	if err != nil {
		t.Fatal(err)
	}
	c, err := Init("", codes)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, n := range c.Numbers() {
		p, _ := c.ByNumber(n)
		if err := Validate(p.TileList); err != nil {
			t.Errorf("puzzle %d: %v", n, err)
		}
		for id := range p.Len() {
			if tile, _ := p.Tile(id); tile.ImageRef == "" {
				t.Errorf("puzzle %d tile %d has no image", n, id)
			}
		}
	}
}
