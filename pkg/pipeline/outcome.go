package pipeline

// Outcome is the tagged result of a single pipeline step.
type Outcome int

const (
	// Continue moves to the next step.
	Continue Outcome = iota
	// AbortEarly stops the pipeline. Only cleanup runs afterwards.
	AbortEarly
	// ContinueWithWarning reports the step failure and moves on.
	ContinueWithWarning
)

var outcomeNames = map[Outcome]string{ //nolint:gochecknoglobals
	Continue:            "continue",
	AbortEarly:          "abort_early",
	ContinueWithWarning: "continue_with_warning",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// State is a point in the request generation lifecycle.
type State int

const (
	Collecting State = iota
	ConfigWritten
	DirReady
	KeyGenerated
	CSRGenerated
	CSRFailed
	ConfigCleanedUp
	Archived
	Aborted
	Done
)

var stateNames = map[State]string{ //nolint:gochecknoglobals
	Collecting:      "collecting",
	ConfigWritten:   "config_written",
	DirReady:        "dir_ready",
	KeyGenerated:    "key_generated",
	CSRGenerated:    "csr_generated",
	CSRFailed:       "csr_failed",
	ConfigCleanedUp: "config_cleaned_up",
	Archived:        "archived",
	Aborted:         "aborted",
	Done:            "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
