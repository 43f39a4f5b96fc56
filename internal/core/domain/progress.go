package domain

// SearchState is a state of the zoom-in search state machine.
type SearchState string

// Search states, in transition order. Done is reachable from every stage.
const (
	StateIdle               SearchState = "idle"
	StateScoringFolders     SearchState = "scoring_folders"
	StateScoringFiles       SearchState = "scoring_files"
	StateRetrievingSections SearchState = "retrieving_sections"
	StateDone               SearchState = "done"
)

// Stage returns the pipeline stage number of the state (0 for idle and done).
func (s SearchState) Stage() int {
	switch s {
	case StateScoringFolders:
		return 1
	case StateScoringFiles:
		return 2
	case StateRetrievingSections:
		return 3
	default:
		return 0
	}
}

// Description returns a human-readable description of the state.
func (s SearchState) Description() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateScoringFolders:
		return "Scoring folders"
	case StateScoringFiles:
		return "Scoring files"
	case StateRetrievingSections:
		return "Retrieving sections"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ProgressEvent reports a state transition of a running search.
type ProgressEvent struct {
	// SearchID identifies the search emitting the event.
	SearchID string

	// Stage is the pipeline stage number (1-3), or 0 when idle or done.
	Stage int

	// State is the state entered.
	State SearchState

	// Message is a human-readable status line.
	Message string

	// Done is true on the final event of a search.
	Done bool
}
