package cfr

// ChancePlayer is returned by GameState.CurrentPlayer at chance nodes.
const ChancePlayer = -1

// Action is an opaque move identifier. Solvers never inspect actions; they
// refer to them by their index in GameState.LegalActions, which must be stable
// for all states sharing an information set.
type Action interface{}

// GameState is one node of an extensive-form game tree. The tree is never
// materialized: children are produced on demand by Apply.
type GameState interface {
	// IsTerminal returns true if the game is over.
	IsTerminal() bool
	// Utility returns this state's payoff for the given player.
	// It may only be called for terminal states, and payoffs must sum
	// to zero across players.
	Utility(player int) float64
	// CurrentPlayer returns the acting player, or ChancePlayer.
	CurrentPlayer() int
	// NumPlayers returns the number of (non-chance) players in the game.
	NumPlayers() int
	// LegalActions returns the available actions, or chance outcomes at
	// chance nodes. It must be non-empty for non-terminal states.
	LegalActions() []Action
	// Apply returns the state that results from playing the given action.
	// The receiver must not be modified.
	Apply(a Action) GameState
	// InfoSetKey identifies the information set of the acting player.
	//
	// It may be an arbitrary string of bytes and does not need to be
	// human-readable. For example, it could be a simplified abstraction
	// or hash of the full game history.
	InfoSetKey() string
}

// ChanceState may be implemented by games whose chance outcomes are not
// equally likely. The returned distribution is indexed like LegalActions.
type ChanceState interface {
	ChanceProbabilities() []float64
}

// Estimator may be implemented by games that can cheaply estimate the value
// of a non-terminal state, e.g. by treating it as an immediate showdown.
// It is consulted by StaticEvaluator when the depth limit is reached.
type Estimator interface {
	EstimateUtility(player int) float64
}
