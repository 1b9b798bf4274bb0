package modelfactory

import "time"

// State is the closed set of ModelInstance states (spec §4.5).
type State string

const (
	StateUnloaded  State = "unloaded"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateError     State = "error"
	StateSwitching State = "switching"
)

// Instance is the runtime state of a loaded (or loading/errored) model.
type Instance struct {
	Name         string
	State        State
	LoadedAt     time.Time
	LastUsedAt   time.Time
	MemoryUsageGB float64
	ErrorCount   int
	LastError    string
}

// Snapshot is a read-only copy of an Instance for external callers.
type Snapshot = Instance
