package input

import (
	"io"
	"time"
)

// PollDelay is how long a composition waits before polling again once the
// streams it needs are all busy.
const PollDelay = time.Second

// SerialInput concatenates streams in order: all records of the first,
// then all of the second, and so on. A busy stream blocks the sequence.
type SerialInput struct {
	streams []*Stream
	delay   time.Duration
}

func NewSerialInput(streams []*Stream, delay time.Duration) *SerialInput {
	if delay <= 0 {
		delay = PollDelay
	}
	return &SerialInput{streams: streams, delay: delay}
}

func (serial *SerialInput) Next() (Record, error) {
	for len(serial.streams) > 0 {
		record, step, err := serial.streams[0].TryNext()
		if err != nil {
			return Record{}, err
		}

		switch step {
		case StepReady:
			return record, nil
		case StepBusy:
			time.Sleep(serial.delay)
		case StepDone:
			serial.streams = serial.streams[1:]
		}
	}
	return Record{}, io.EOF
}
