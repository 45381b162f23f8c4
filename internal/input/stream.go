package input

import (
	"errors"
	"io"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
)

// Step is the three-way outcome of asking a stream for its next record.
type Step uint8

const (
	// StepReady means a record was delivered.
	StepReady Step = iota
	// StepBusy means the input is not ready yet; retry after a delay.
	StepBusy
	// StepDone means the stream ended, cleanly or with the returned error.
	StepDone
)

// Stream delivers the records of one logical input, swapping to another
// replica on data failure without re-emitting or skipping records. It owns
// the currently open reader exclusively.
type Stream struct {
	replicas  *ReplicaSet
	open      Opener
	reader    RecordReader
	delivered int
	err       error
	done      bool
}

func NewStream(input LogicalInput, open Opener) *Stream {
	return newStream(newReplicaSet(input), open)
}

// NewLiteralStream reads a fixed replica list that needs no resolution.
func NewLiteralStream(urls []string, open Opener) *Stream {
	return newStream(newLiteralReplicaSet(urls), open)
}

func newStream(replicas *ReplicaSet, open Opener) *Stream {
	if open == nil {
		open = Open
	}
	return &Stream{replicas: replicas, open: open}
}

// Delivered is the number of records handed to the consumer so far, the
// watermark used to resume after a replica swap.
func (stream *Stream) Delivered() int {
	return stream.delivered
}

// TryNext advances the stream by one record. StepBusy asks the caller to
// back off; StepDone with a nil error is clean exhaustion; StepDone with
// an error is terminal.
func (stream *Stream) TryNext() (Record, Step, error) {
	for {
		if stream.done || stream.err != nil {
			return Record{}, StepDone, stream.err
		}

		if stream.reader == nil {
			if err := stream.swap(); err != nil {
				if errors.Is(err, ErrBusy) {
					return Record{}, StepBusy, nil
				}
				stream.err = err
				return Record{}, StepDone, err
			}
			if stream.reader == nil {
				// the fresh replica ended within the skip
				stream.done = true
				return Record{}, StepDone, nil
			}
		}

		record, err := stream.reader.Next()
		if err == nil {
			stream.delivered++
			return record, StepReady, nil
		}

		stream.reader.Close()
		stream.reader = nil
		if errors.Is(err, io.EOF) {
			stream.done = true
			return Record{}, StepDone, nil
		}
		if !fault.IsData(err) {
			stream.err = err
			return Record{}, StepDone, err
		}
		// data failure mid-read: the URL is already marked tried, go
		// back to resolving and pick another replica
	}
}

// swap opens the next untried replica and advances it past the watermark
// so every record is delivered exactly once across swaps.
func (stream *Stream) swap() error {
	for {
		url, err := stream.replicas.Next()
		if errors.Is(err, errNoReplicas) {
			return fault.Dataf("", "exhausted all available replicas %v", stream.replicas.Tried())
		}
		if err != nil {
			return err
		}

		reader, err := stream.open(url)
		if err != nil {
			if fault.IsData(err) {
				continue
			}
			return err
		}

		ended, err := skipRecords(reader, stream.delivered)
		if err != nil {
			reader.Close()
			if fault.IsData(err) {
				continue
			}
			return err
		}
		if ended {
			reader.Close()
			return nil
		}

		stream.reader = reader
		return nil
	}
}

func skipRecords(reader RecordReader, n int) (ended bool, err error) {
	for i := 0; i < n; i++ {
		if _, err := reader.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return true, nil
			}
			return false, err
		}
	}
	return false, nil
}
