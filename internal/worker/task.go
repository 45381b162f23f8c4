package worker

import "fmt"

// Mode is the kind of procedure a task runs.
type Mode uint8

const (
	ModeMap Mode = iota + 1
	ModeReduce
)

func (mode Mode) String() string {
	switch mode {
	case ModeMap:
		return "map"
	case ModeReduce:
		return "reduce"
	}
	return fmt.Sprintf("mode(%d)", uint8(mode))
}

func ParseMode(name string) (Mode, error) {
	switch name {
	case "map":
		return ModeMap, nil
	case "reduce":
		return ModeReduce, nil
	}
	return 0, fmt.Errorf("unrecognized task mode %q", name)
}

// TaskInfo is the task parameter record the master replies with to a TSK
// request.
type TaskInfo struct {
	ID      int    `json:"taskid"`
	Mode    string `json:"mode"`
	JobName string `json:"jobname"`
	Host    string `json:"host"`
	Master  string `json:"master"`
	JobFile string `json:"jobfile"`
}

// Procedure is a user-registered map or reduce step: it consumes a
// composed input and writes through the task's outputs.
type Procedure func(ctx *TaskContext) error

// Procedures holds the procedure for each task mode. A task whose mode
// has no registered procedure is a configuration error.
type Procedures struct {
	Map    Procedure
	Reduce Procedure
}

func (procs Procedures) forMode(mode Mode) (Procedure, error) {
	var proc Procedure
	switch mode {
	case ModeMap:
		proc = procs.Map
	case ModeReduce:
		proc = procs.Reduce
	}
	if proc == nil {
		return nil, fmt.Errorf("no procedure registered for %v tasks", mode)
	}
	return proc, nil
}
