package assistant

// State is a step of the per-turn reply pipeline.
type State string

const (
	StateAwaitingClassification State = "awaiting_classification"
	StateGreeting               State = "greeting"
	StateDispatched             State = "dispatched"
	StateDeferred               State = "deferred"
	StateHandlerSucceeded       State = "handler_succeeded"
	StateHandlerFailed          State = "handler_failed"
	StateGenericGeneration      State = "generic_generation"
	StateGenerationSucceeded    State = "generation_succeeded"
	StateGenerationFailed       State = "generation_failed"
)

// AllowedTransitions is the reply pipeline. Terminal states have no entry.
var AllowedTransitions = map[State][]State{
	StateAwaitingClassification: {StateDispatched, StateDeferred, StateGreeting},
	StateDispatched:             {StateHandlerSucceeded, StateHandlerFailed},
	StateHandlerFailed:          {StateGenericGeneration},
	StateDeferred:               {StateGenericGeneration},
	StateGenericGeneration:      {StateGenerationSucceeded, StateGenerationFailed},
}

func CanTransition(from, to State) bool {
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a turn may end in s.
func Terminal(s State) bool {
	_, ok := AllowedTransitions[s]
	return !ok
}
