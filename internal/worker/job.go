package worker

import (
	"encoding/json"
	"fmt"

	"github.com/kunthar/disco-playground/internal/jobpack"
)

// JobInfo is the job description the submitting client wrote into the job
// pack. Optional fields are pointers so absence defers to lower
// configuration tiers.
type JobInfo struct {
	Name       string `json:"prefix"`
	Owner      string `json:"owner"`
	HasMap     bool   `json:"map?"`
	HasReduce  bool   `json:"reduce?"`
	Partitions *int   `json:"nr_reduces"`
	Save       *bool  `json:"save?"`
}

// Bootstrap is what a worker needs from an unpacked job pack to start
// running: the job description, the run-time overrides, and the raw
// run-time arguments for the procedures.
type Bootstrap struct {
	Job       JobInfo
	Overrides Overrides
	Args      map[string]json.RawMessage
}

func UnpackBootstrap(pack *jobpack.JobPack) (Bootstrap, error) {
	var bootstrap Bootstrap
	if err := json.Unmarshal(pack.JobDict, &bootstrap.Job); err != nil {
		return Bootstrap{}, fmt.Errorf("corrupt job description: %w", err)
	}

	var data struct {
		Config Overrides                  `json:"config"`
		Args   map[string]json.RawMessage `json:"args"`
	}
	if len(pack.JobData) > 0 {
		if err := json.Unmarshal(pack.JobData, &data); err != nil {
			return Bootstrap{}, fmt.Errorf("corrupt job data: %w", err)
		}
	}
	bootstrap.Overrides = data.Config
	bootstrap.Args = data.Args
	return bootstrap, nil
}
