package worker

import (
	"time"

	"github.com/kunthar/disco-playground/internal/input"
)

// Config carries the worker-level defaults. Each knob resolves in three
// tiers: a run-time override from the job data wins over the job
// description attribute, which wins over the configured default here.
type Config struct {
	// Save persists outputs to durable storage at task end instead of
	// handing them back to the master. Default false.
	Save bool
	// Profile writes a CPU profile of the run step into the task working
	// directory. Default false.
	Profile bool
	// Partitions is the number of output partitions a map feeds.
	// Default 1.
	Partitions int
	// PollDelay is the pause between polls of busy inputs.
	PollDelay time.Duration
	// WorkRoot is where per-task working directories are created.
	WorkRoot string
}

func Default() Config {
	return Config{
		Partitions: 1,
		PollDelay:  input.PollDelay,
		WorkRoot:   ".",
	}
}

// Overrides are the run-time argument tier, decoded from the job data.
// Nil fields defer to the lower tiers.
type Overrides struct {
	Save       *bool `json:"save,omitempty"`
	Profile    *bool `json:"profile,omitempty"`
	Partitions *int  `json:"partitions,omitempty"`
}

func resolveBool(override, jobValue *bool, fallback bool) bool {
	if override != nil {
		return *override
	}
	if jobValue != nil {
		return *jobValue
	}
	return fallback
}

func resolveInt(override, jobValue *int, fallback int) int {
	if override != nil {
		return *override
	}
	if jobValue != nil {
		return *jobValue
	}
	return fallback
}
