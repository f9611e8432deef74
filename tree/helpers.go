// Package tree provides helpers to walk a finite game tree.
package tree

import (
	"github.com/nicehand/go-cfr"
)

// Visit calls visitor on every state reachable from root, in depth-first order.
func Visit(root cfr.GameState, visitor func(state cfr.GameState)) {
	visitor(root)
	if root.IsTerminal() {
		return
	}

	for _, action := range root.LegalActions() {
		Visit(root.Apply(action), visitor)
	}
}

// VisitInfoSets calls visitor once for each information set of the game.
func VisitInfoSets(root cfr.GameState, visitor func(player int, infoSet string)) {
	seen := make(map[string]struct{})
	Visit(root, func(state cfr.GameState) {
		if state.IsTerminal() || state.CurrentPlayer() == cfr.ChancePlayer {
			return
		}

		infoSet := state.InfoSetKey()
		if _, ok := seen[infoSet]; ok {
			return
		}

		visitor(state.CurrentPlayer(), infoSet)
		seen[infoSet] = struct{}{}
	})
}

func CountTerminalNodes(root cfr.GameState) int {
	total := 0
	Visit(root, func(state cfr.GameState) {
		if state.IsTerminal() {
			total++
		}
	})

	return total
}

func CountNodes(root cfr.GameState) int {
	total := 0
	Visit(root, func(state cfr.GameState) { total++ })
	return total
}

func CountInfoSets(root cfr.GameState) int {
	total := 0
	VisitInfoSets(root, func(player int, infoSet string) { total++ })
	return total
}
