// internal/game/layout.go
//
// Visual order and row layout. The visual order is a permutation of tile
// IDs; display row r is order[4r : 4r+4]. Solved rows occupy the leading
// rows in solve order.

package game

import (
	"slices"
)

// placeRow moves members into display row `row` by pairwise swaps, so that
// tiles outside the row only move when they are displaced.
func placeRow(order []int, row int, members []int) {
	base := row * GroupSize
	for j, id := range members {
		target := base + j
		if target >= len(order) {
			return
		}
		pos := slices.Index(order, id)
		if pos < 0 || pos == target {
			continue
		}
		order[pos], order[target] = order[target], order[pos]
	}
}

// Rows partitions an order into display rows of GroupSize tiles.
func Rows(order []int) [][]int {
	rows := make([][]int, 0, (len(order)+GroupSize-1)/GroupSize)
	for chunk := range slices.Chunk(order, GroupSize) {
		rows = append(rows, slices.Clone(chunk))
	}
	return rows
}

// IsPermutation reports whether order holds each of 0..n-1 exactly once.
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, id := range order {
		if id < 0 || id >= n || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// Shuffle reshuffles the unsolved part of the grid. Solved rows stay pinned
// and the guess history and attempt log are kept, so earlier combinations
// stay disallowed.
func (e *Engine) Shuffle(s State) Step {
	next := s.begin()
	tail := next.Order[min(len(next.Solved)*GroupSize, len(next.Order)):]
	e.shuffle(tail)
	next.clearSelection()
	return Step{State: next, Result: ResultShuffled}
}
