package cfr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCorruptTable is returned (wrapped) when a serialized Table is malformed
// or truncated.
var ErrCorruptTable = errors.New("corrupt node table")

// ContractViolation reports a GameState that broke its contract, e.g. a
// non-terminal state with no legal actions. Training cannot continue
// meaningfully after one; it is returned as an error from Solve and Run.
type ContractViolation struct {
	Key   string // Information set key, if known.
	State GameState
	Msg   string
}

func (e *ContractViolation) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("game state contract violation at %q: %s", e.Key, e.Msg)
	}

	return fmt.Sprintf("game state contract violation: %s (state: %v)", e.Msg, e.State)
}

// recoverContractViolation converts a ContractViolation panic raised during
// traversal into an error. Any other panic is propagated.
func recoverContractViolation(err *error) {
	if r := recover(); r != nil {
		cv, ok := r.(*ContractViolation)
		if !ok {
			panic(r)
		}

		*err = cv
	}
}
