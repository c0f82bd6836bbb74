package pipeline

type State int

const (
	StateIdle State = iota
	StateValidating
	StateUploadingAsset
	StateUploadingMetadata
	StateSubmitting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateValidating:        "validating",
	StateUploadingAsset:    "uploading_asset",
	StateUploadingMetadata: "uploading_metadata",
	StateSubmitting:        "submitting",
	StateSucceeded:         "succeeded",
	StateFailed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Busy reports whether an attempt is in flight. A busy draft accepts neither
// edits nor a new submission.
func (s State) Busy() bool {
	return s != StateIdle && !s.Terminal()
}
