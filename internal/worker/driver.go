package worker

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"runtime/pprof"

	"github.com/google/uuid"

	"github.com/kunthar/disco-playground/internal/input"
	"github.com/kunthar/disco-playground/internal/jobpack"
	"github.com/kunthar/disco-playground/internal/pkg/fault"
	"github.com/kunthar/disco-playground/internal/pkg/protocol"
)

// Driver runs one task from start to completion: it reports the process
// id, fetches the job pack and task parameters, dispatches the registered
// procedure for the task mode, and disposes of the produced outputs. Any
// unrecovered failure is classified, reported to the master, and returned;
// the master reschedules, the worker never retries.
type Driver struct {
	transport protocol.Transport
	procs     Procedures
	config    Config

	// Persister handles durable storage when a job requests saving.
	Persister Persister
	// Opener overrides how replica URLs are opened, for tests.
	Opener input.Opener
}

func NewDriver(transport protocol.Transport, procs Procedures, config Config) *Driver {
	return &Driver{
		transport: transport,
		procs:     procs,
		config:    config,
		Persister: DirPersister{Root: filepath.Join(config.WorkRoot, "durable")},
	}
}

func (driver *Driver) Run() error {
	err := driver.run()
	if err != nil {
		driver.report(err)
	}
	return err
}

func (driver *Driver) run() error {
	if _, err := driver.transport.Exchange(protocol.KindPid, os.Getpid()); err != nil {
		return err
	}

	bootstrap, err := driver.fetchJob()
	if err != nil {
		return err
	}
	task, mode, err := driver.fetchTask()
	if err != nil {
		return err
	}

	proc, err := driver.procs.forMode(mode)
	if err != nil {
		return err
	}

	workDir := filepath.Join(driver.config.WorkRoot,
		fmt.Sprintf("task-%s-%s", mode, uuid.NewString()))
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return &fault.ResourceError{Reason: fmt.Sprintf("could not create working directory: %v", err)}
	}

	ctx := &TaskContext{
		Task: task,
		Mode: mode,
		Job:  bootstrap.Job,
		Args: bootstrap.Args,
		Partitions: resolveInt(
			bootstrap.Overrides.Partitions, bootstrap.Job.Partitions, driver.config.Partitions),
		resolver: input.NewResolver(driver.transport),
		opener:   driver.Opener,
		outputs:  NewOutputSet(workDir),
		delay:    driver.config.PollDelay,
	}

	log.Printf("starting %v task %v of job %v", mode, task.ID, task.JobName)
	if err := driver.runProcedure(proc, ctx, bootstrap, workDir); err != nil {
		ctx.outputs.Close()
		return err
	}

	return driver.finish(ctx, bootstrap)
}

func (driver *Driver) runProcedure(proc Procedure, ctx *TaskContext, bootstrap Bootstrap, workDir string) error {
	profile := resolveBool(bootstrap.Overrides.Profile, nil, driver.config.Profile)
	if profile {
		file, err := os.Create(filepath.Join(workDir, "profile-cpu"))
		if err != nil {
			return &fault.ResourceError{Reason: fmt.Sprintf("could not create profile: %v", err)}
		}
		defer file.Close()

		if err := pprof.StartCPUProfile(file); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	return proc(ctx)
}

// finish disposes of the task's outputs. Map stages that feed a reduce
// always hand their outputs back to the master; otherwise a job that
// requested saving has them persisted and submits the durable reference.
func (driver *Driver) finish(ctx *TaskContext, bootstrap Bootstrap) error {
	if err := ctx.outputs.Close(); err != nil {
		return err
	}

	save := resolveBool(bootstrap.Overrides.Save, bootstrap.Job.Save, driver.config.Save)
	intermediate := ctx.Mode == ModeMap && bootstrap.Job.HasReduce

	if save && !intermediate {
		ref, err := driver.Persister.Persist(ctx.Task.JobName, ctx.outputs.All())
		if err != nil {
			return err
		}
		if _, err := driver.transport.Exchange(protocol.KindOutput, []any{ref, OutputTypeTag, nil}); err != nil {
			return err
		}
		log.Printf("results saved to %v", ref)
	} else {
		for _, output := range ctx.outputs.All() {
			payload := []any{output.Path, output.Type, nil}
			if output.Partition != "" {
				payload[2] = output.Partition
			}
			if _, err := driver.transport.Exchange(protocol.KindOutput, payload); err != nil {
				return err
			}
		}
		log.Printf("results sent to master")
	}

	_, err := driver.transport.Exchange(protocol.KindEnd, "")
	return err
}

func (driver *Driver) fetchJob() (Bootstrap, error) {
	body, err := driver.transport.Exchange(protocol.KindJobPack, "")
	if err != nil {
		return Bootstrap{}, err
	}
	var packPath string
	if err := decode(body, &packPath); err != nil {
		return Bootstrap{}, fmt.Errorf("malformed job pack reply: %w", err)
	}

	pack, err := jobpack.UnpackFile(packPath)
	if err != nil {
		return Bootstrap{}, err
	}
	return UnpackBootstrap(pack)
}

func (driver *Driver) fetchTask() (TaskInfo, Mode, error) {
	body, err := driver.transport.Exchange(protocol.KindTask, "")
	if err != nil {
		return TaskInfo{}, 0, err
	}

	var task TaskInfo
	if err := decode(body, &task); err != nil {
		return TaskInfo{}, 0, fmt.Errorf("malformed task reply: %w", err)
	}

	mode, err := ParseMode(task.Mode)
	if err != nil {
		return TaskInfo{}, 0, err
	}
	return task, mode, nil
}

func decode(body json.RawMessage, v any) error {
	return json.Unmarshal(body, v)
}

// report surfaces an unrecovered failure to the master under its fault
// classification. Unexpected failures carry the full stack.
func (driver *Driver) report(err error) {
	kind := fault.Classification(err)
	detail := err.Error()
	if kind == protocol.KindError {
		detail = fmt.Sprintf("%v\n%s", err, debug.Stack())
	}
	if _, sendErr := driver.transport.Exchange(kind, detail); sendErr != nil {
		log.Printf("could not report failure to master: %v", sendErr)
	}
}
