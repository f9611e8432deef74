package cfr_test

import (
	"fmt"
	"sync/atomic"

	"github.com/nicehand/go-cfr"
)

// matchingGame is a two-action, two-information-set game: player 0 picks
// heads or tails, then player 1 guesses without seeing it. Player 0 receives
// 3 for heads-heads, 1 for tails-tails, and -1 on a mismatch.
type matchingGame struct {
	history string
}

const (
	heads = 'H'
	tails = 'T'
)

func (g matchingGame) IsTerminal() bool { return len(g.history) == 2 }
func (g matchingGame) NumPlayers() int  { return 2 }
func (g matchingGame) CurrentPlayer() int {
	return len(g.history) % 2
}

func (g matchingGame) LegalActions() []cfr.Action {
	if g.IsTerminal() {
		return nil
	}

	return []cfr.Action{byte(heads), byte(tails)}
}

func (g matchingGame) Apply(a cfr.Action) cfr.GameState {
	return matchingGame{history: g.history + string([]byte{a.(byte)})}
}

func (g matchingGame) InfoSetKey() string {
	return fmt.Sprintf("p%d", g.CurrentPlayer())
}

func (g matchingGame) Utility(player int) float64 {
	var u float64
	switch g.history {
	case "HH":
		u = 3
	case "TT":
		u = 1
	default:
		u = -1
	}

	if player == 1 {
		return -u
	}

	return u
}

// endlessGame never reaches a terminal state. It records the deepest state
// ever created and the number of calls to Apply.
type endlessGame struct {
	depth    int
	nActions int
	applies  *atomic.Int64
	deepest  *atomic.Int64
}

func newEndlessGame(nActions int) endlessGame {
	return endlessGame{
		nActions: nActions,
		applies:  &atomic.Int64{},
		deepest:  &atomic.Int64{},
	}
}

func (g endlessGame) IsTerminal() bool   { return false }
func (g endlessGame) NumPlayers() int    { return 2 }
func (g endlessGame) CurrentPlayer() int { return g.depth % 2 }
func (g endlessGame) InfoSetKey() string { return fmt.Sprintf("raise-%d", g.depth%4) }

func (g endlessGame) Utility(player int) float64 {
	panic("endless game has no terminal states")
}

func (g endlessGame) LegalActions() []cfr.Action {
	result := make([]cfr.Action, g.nActions)
	for i := range result {
		result[i] = i
	}

	return result
}

func (g endlessGame) Apply(a cfr.Action) cfr.GameState {
	g.applies.Add(1)
	child := g
	child.depth++
	for {
		cur := g.deepest.Load()
		if int64(child.depth) <= cur || g.deepest.CompareAndSwap(cur, int64(child.depth)) {
			break
		}
	}

	return child
}

// brokenGame is a non-terminal state with no legal actions.
type brokenGame struct{}

func (brokenGame) IsTerminal() bool           { return false }
func (brokenGame) NumPlayers() int            { return 2 }
func (brokenGame) CurrentPlayer() int         { return 0 }
func (brokenGame) InfoSetKey() string         { return "broken" }
func (brokenGame) LegalActions() []cfr.Action { return nil }
func (brokenGame) Utility(int) float64        { return 0 }
func (g brokenGame) Apply(cfr.Action) cfr.GameState {
	return g
}

// aliasedGame deals one of two states that share an information set key but
// have a different number of legal actions.
type aliasedGame struct {
	dealt   bool
	actions int
	done    bool
}

func (g aliasedGame) IsTerminal() bool { return g.done }
func (g aliasedGame) NumPlayers() int  { return 2 }
func (g aliasedGame) CurrentPlayer() int {
	if !g.dealt {
		return cfr.ChancePlayer
	}

	return 0
}

func (g aliasedGame) InfoSetKey() string  { return "aliased" }
func (g aliasedGame) Utility(int) float64 { return 0 }

func (g aliasedGame) LegalActions() []cfr.Action {
	if !g.dealt {
		return []cfr.Action{2, 3}
	}

	result := make([]cfr.Action, g.actions)
	for i := range result {
		result[i] = i
	}

	return result
}

func (g aliasedGame) Apply(a cfr.Action) cfr.GameState {
	if !g.dealt {
		return aliasedGame{dealt: true, actions: a.(int)}
	}

	return aliasedGame{dealt: true, actions: g.actions, done: true}
}
