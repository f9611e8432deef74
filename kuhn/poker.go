// Package kuhn implements Kuhn Poker as a cfr.GameState,
// adapted from: https://justinsermeno.com/posts/cfr/.
//
// Each player antes 1 and is dealt one of three cards. Player 0 may check or
// bet 1; player 1 may then check or bet (after a check) or fold or call
// (after a bet); after check-bet player 0 may fold or call. Folding is
// represented by Check and calling by Bet.
package kuhn

import (
	"fmt"

	"github.com/nicehand/go-cfr"
)

const (
	player0 = 0
	player1 = 1
)

// Action is a betting decision.
type Action byte

const (
	Random Action = 'r' // Recorded in the history for each deal.
	Check  Action = 'c'
	Bet    Action = 'b'
)

// Card is a private card. Deals are the actions of the chance player.
type Card int

const (
	Jack Card = iota
	Queen
	King
)

var cardStr = [...]string{
	"J",
	"Q",
	"K",
}

func (c Card) String() string {
	return cardStr[c]
}

var (
	deck          = []cfr.Action{Jack, Queen, King}
	bettingChoice = []cfr.Action{Check, Bet}
)

// PokerState implements cfr.GameState for Kuhn Poker.
type PokerState struct {
	history string

	// Private card held by either player.
	p0Card, p1Card Card
}

var _ cfr.GameState = PokerState{}
var _ cfr.ChanceState = PokerState{}

// NewGame returns the root of the game, before any card is dealt.
func NewGame() PokerState {
	return PokerState{}
}

// String implements fmt.Stringer.
func (k PokerState) String() string {
	return fmt.Sprintf("Player %v's turn. History: %5s [Cards: P0 - %s, P1 - %s]",
		k.CurrentPlayer(), k.history, k.p0Card, k.p1Card)
}

// History returns the sequence of actions taken so far.
func (k PokerState) History() string {
	return k.history
}

// IsTerminal implements cfr.GameState.
func (k PokerState) IsTerminal() bool {
	return (k.history == "rrcc" || k.history == "rrcbc" ||
		k.history == "rrcbb" || k.history == "rrbc" || k.history == "rrbb")
}

// NumPlayers implements cfr.GameState.
func (k PokerState) NumPlayers() int {
	return 2
}

// CurrentPlayer implements cfr.GameState. At terminal states it is the
// player whose turn it would be, i.e. not the last player to act.
func (k PokerState) CurrentPlayer() int {
	if len(k.history) < 2 {
		return cfr.ChancePlayer
	}

	return (len(k.history) - 2) % 2
}

// LegalActions implements cfr.GameState.
func (k PokerState) LegalActions() []cfr.Action {
	switch len(k.history) {
	case 0:
		return deck
	case 1:
		result := make([]cfr.Action, 0, len(deck)-1)
		for _, card := range deck {
			if card != k.p0Card { // Both players can't be dealt the same card.
				result = append(result, card)
			}
		}
		return result
	case 2, 3:
		if !k.IsTerminal() {
			return bettingChoice
		}
	case 4:
		if k.history[2] == byte(Check) && k.history[3] == byte(Bet) {
			return bettingChoice
		}
	}

	return nil
}

// ChanceProbabilities implements cfr.ChanceState. Every remaining card is
// equally likely.
func (k PokerState) ChanceProbabilities() []float64 {
	n := len(k.LegalActions())
	result := make([]float64, n)
	for i := range result {
		result[i] = 1.0 / float64(n)
	}

	return result
}

// Apply implements cfr.GameState.
func (k PokerState) Apply(action cfr.Action) cfr.GameState {
	child := k
	switch a := action.(type) {
	case Card:
		if len(k.history) == 0 {
			child.p0Card = a
		} else {
			child.p1Card = a
		}
		child.history += string(Random)
	case Action:
		child.history += string(a)
	default:
		panic(fmt.Errorf("kuhn: invalid action %v (%T) at %v", action, action, k))
	}

	return child
}

// Utility implements cfr.GameState.
func (k PokerState) Utility(player int) float64 {
	cardPlayer := k.playerCard(player)
	cardOpponent := k.playerCard(1 - player)

	switch k.history {
	case "rrcbc", "rrbc":
		// Last player folded. The current player wins.
		if k.CurrentPlayer() == player {
			return 1.0
		}
		return -1.0
	case "rrcc":
		// Showdown with no bets.
		if cardPlayer > cardOpponent {
			return 1.0
		}
		return -1.0
	case "rrcbb", "rrbb":
		// Showdown with 1 bet.
		if cardPlayer > cardOpponent {
			return 2.0
		}
		return -2.0
	}

	panic("unexpected history: " + k.history)
}

// InfoSetKey implements cfr.GameState: the acting player's card and the
// public history, e.g. "K-rrb".
func (k PokerState) InfoSetKey() string {
	player := k.CurrentPlayer()
	if player == cfr.ChancePlayer {
		return k.history
	}

	return k.playerCard(player).String() + "-" + k.history
}

func (k PokerState) playerCard(player int) Card {
	if player == player0 {
		return k.p0Card
	}

	return k.p1Card
}
