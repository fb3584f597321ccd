// internal/game/view.go
//
// JSON projection of a session for clients. Tile attributes are only
// disclosed for solved or hint-revealed tiles.

package game

import (
	"slices"
	"sort"
)

type TileView struct {
	ID         int         `json:"id"`
	ImageRef   string      `json:"imageRef,omitempty"`
	Code       string      `json:"countryCode,omitempty"`
	Difficulty *Difficulty `json:"difficulty,omitempty"`
	Selected   bool        `json:"selected"`
	Bucket     *int        `json:"bucket,omitempty"`
	Revealed   bool        `json:"revealed"`
	Solved     bool        `json:"solved"`
}

type HintView struct {
	Armed     bool   `json:"armed"`
	Remaining int    `json:"remaining"`
	Label     string `json:"label"`
	TotalUsed int    `json:"totalUsed"`
	Revealed  []int  `json:"revealed"`
}

type View struct {
	ID                 string      `json:"id"`
	Puzzle             int         `json:"puzzle"`
	Mode               Mode        `json:"mode"`
	MistakesLeft       int         `json:"mistakesLeft"`
	MistakesMade       int         `json:"mistakesMade"`
	GameOver           bool        `json:"gameOver"`
	GaveUp             bool        `json:"gaveUp"`
	Won                bool        `json:"won"`
	CanSubmit          bool        `json:"canSubmit"`
	ShowAttributeGuess bool        `json:"showCountryGuess"`
	Buckets            [][]int     `json:"buckets"`
	Selection          []int       `json:"selection"`
	Rows               [][]int     `json:"rows"`
	Solved             []SolvedRow `json:"solvedRows"`
	Tiles              []TileView  `json:"tiles"`
	Hints              HintView    `json:"hints"`
	Feedback           Feedback    `json:"feedback"`
	TilesToShake       []int       `json:"tilesToShake,omitempty"`
	Result             Result      `json:"result,omitempty"`
}

// NewView projects s for session id on puzzle number puzzle.
func NewView(cat Catalog, id string, puzzle int, s State) View {
	remaining, label := HintDisplay(s.Hints)
	revealed := make([]int, 0, len(s.Hints.Revealed))
	for tid := range s.Hints.Revealed {
		revealed = append(revealed, tid)
	}
	sort.Ints(revealed)

	v := View{
		ID:                 id,
		Puzzle:             puzzle,
		Mode:               s.Mode,
		MistakesLeft:       s.MistakesLeft,
		MistakesMade:       s.MistakesMade,
		GameOver:           s.GameOver,
		GaveUp:             s.GaveUp,
		Won:                s.Won() && !s.GaveUp,
		CanSubmit:          s.CanSubmit(),
		ShowAttributeGuess: s.ShowAttributeGuess && !s.Finished(),
		Selection:          nonNil(s.Selection),
		Rows:               Rows(s.Order),
		Solved:             slices.Clone(s.Solved),
		Hints: HintView{
			Armed:     s.Hints.Armed && !s.Finished(),
			Remaining: remaining,
			Label:     label,
			TotalUsed: s.Hints.TotalUsed,
			Revealed:  revealed,
		},
		Feedback:     s.Feedback,
		TilesToShake: s.TilesToShake,
	}
	for _, b := range s.Buckets {
		v.Buckets = append(v.Buckets, nonNil(b))
	}
	if v.Solved == nil {
		v.Solved = []SolvedRow{}
	}

	for _, tid := range s.Order {
		t, ok := cat.Tile(tid)
		if !ok {
			continue
		}
		tv := TileView{ID: tid, ImageRef: t.ImageRef, Revealed: s.Revealed(tid), Solved: s.SolvedTile(tid)}
		if b, ok := s.BucketOf[tid]; ok {
			tv.Selected, tv.Bucket = true, &b
		}
		if tv.Revealed || tv.Solved {
			tv.Code = t.Code
		}
		if tv.Solved {
			d := t.Difficulty
			tv.Difficulty = &d
		}
		v.Tiles = append(v.Tiles, tv)
	}
	return v
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return slices.Clone(ids)
}
