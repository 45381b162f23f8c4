package input

import (
	"io"
	"time"
)

// ParallelInput is an unordered fan-in over a set of streams. It drains
// one stream while it keeps delivering, rotates to the next on busy, and
// pauses only when every live stream is busy at once. Records from the
// same stream keep their original order; there is no ordering between
// streams.
type ParallelInput struct {
	streams []*Stream
	current int
	delay   time.Duration
}

func NewParallelInput(streams []*Stream, delay time.Duration) *ParallelInput {
	if delay <= 0 {
		delay = PollDelay
	}
	return &ParallelInput{streams: streams, delay: delay}
}

func (parallel *ParallelInput) Next() (Record, error) {
	busyStreak := 0
	for len(parallel.streams) > 0 {
		if parallel.current >= len(parallel.streams) {
			parallel.current = 0
		}

		record, step, err := parallel.streams[parallel.current].TryNext()
		if err != nil {
			return Record{}, err
		}

		switch step {
		case StepReady:
			return record, nil
		case StepBusy:
			busyStreak++
			if busyStreak >= len(parallel.streams) {
				time.Sleep(parallel.delay)
				busyStreak = 0
			}
			parallel.current++
		case StepDone:
			parallel.streams = append(
				parallel.streams[:parallel.current],
				parallel.streams[parallel.current+1:]...,
			)
			busyStreak = 0
		}
	}
	return Record{}, io.EOF
}
