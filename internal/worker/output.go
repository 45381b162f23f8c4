package worker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kunthar/disco-playground/internal/input"
)

const (
	// OutputTypeFile is a plain, unpartitioned result file.
	OutputTypeFile = "file"
	// OutputTypePart is one partition of a partitioned result.
	OutputTypePart = "part"
	// OutputTypeTag is a reference to results persisted in durable storage.
	OutputTypeTag = "tag"
)

// Output is one destination for produced records.
type Output struct {
	Path      string
	Type      string
	Partition string

	file   *os.File
	writer *bufio.Writer
	closed bool
}

func openOutput(dir, partition string) (*Output, error) {
	name := fmt.Sprintf("out-%s", uuid.NewString())
	kind := OutputTypeFile
	if partition != "" {
		name = fmt.Sprintf("part-%s-%s", partition, uuid.NewString())
		kind = OutputTypePart
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create output %v: %w", path, err)
	}
	return &Output{
		Path:      path,
		Type:      kind,
		Partition: partition,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

func (output *Output) Append(record input.Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not encode record: %w", err)
	}
	if _, err := output.writer.Write(line); err != nil {
		return err
	}
	return output.writer.WriteByte('\n')
}

// Close flushes and closes the underlying file. Closing twice is a no-op.
func (output *Output) Close() error {
	if output.closed {
		return nil
	}
	output.closed = true

	if err := output.writer.Flush(); err != nil {
		output.file.Close()
		return err
	}
	return output.file.Close()
}

// OutputSet is the registry of live outputs for one task. The task driver
// owns it; asking for the same partition twice returns the same instance.
type OutputSet struct {
	dir     string
	outputs map[string]*Output
	order   []string
}

func NewOutputSet(dir string) *OutputSet {
	return &OutputSet{dir: dir, outputs: map[string]*Output{}}
}

func (set *OutputSet) Output(partition string) (*Output, error) {
	if output, ok := set.outputs[partition]; ok {
		return output, nil
	}

	output, err := openOutput(set.dir, partition)
	if err != nil {
		return nil, err
	}
	set.outputs[partition] = output
	set.order = append(set.order, partition)
	return output, nil
}

// All returns the live outputs in creation order.
func (set *OutputSet) All() []*Output {
	outputs := make([]*Output, 0, len(set.order))
	for _, partition := range set.order {
		outputs = append(outputs, set.outputs[partition])
	}
	return outputs
}

// Close closes every output exactly once and returns the first failure.
func (set *OutputSet) Close() error {
	var firstErr error
	for _, output := range set.All() {
		if err := output.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
