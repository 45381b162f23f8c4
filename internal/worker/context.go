package worker

import (
	"encoding/json"
	"time"

	"github.com/kunthar/disco-playground/internal/input"
)

// Strategy selects how the task's logical inputs are composed into one
// record sequence.
type Strategy uint8

const (
	// Serial concatenates inputs in the order the master lists them.
	Serial Strategy = iota
	// Parallel interleaves inputs with no ordering between them.
	Parallel
	// Merged assumes each input is sorted and emits one globally sorted
	// sequence.
	Merged
)

// TaskContext is what a procedure gets to work with: the task and job
// descriptions, the run-time arguments, the composed inputs, and the
// task's outputs. The driver owns it for exactly one task.
type TaskContext struct {
	Task       TaskInfo
	Mode       Mode
	Job        JobInfo
	Args       map[string]json.RawMessage
	Partitions int

	resolver *input.Resolver
	opener   input.Opener
	outputs  *OutputSet
	delay    time.Duration
}

// Input composes the logical inputs the master assigned to this task.
func (ctx *TaskContext) Input(strategy Strategy) (input.Iterator, error) {
	inputs, err := ctx.resolver.Enumerate().All()
	if err != nil {
		return nil, err
	}

	streams := make([]*input.Stream, len(inputs))
	for i, in := range inputs {
		streams[i] = input.NewStream(in, ctx.opener)
	}

	switch strategy {
	case Parallel:
		return input.NewParallelInput(streams, ctx.delay), nil
	case Merged:
		return input.NewMergedInput(streams, input.ByKey, ctx.delay), nil
	default:
		return input.NewSerialInput(streams, ctx.delay), nil
	}
}

// Output returns the open output for partition, creating it on first use.
// The empty partition is the task's plain, unpartitioned output.
func (ctx *TaskContext) Output(partition string) (*Output, error) {
	return ctx.outputs.Output(partition)
}
