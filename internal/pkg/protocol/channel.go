package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
)

// ReplyTimeout bounds how long a worker waits for any single reply from
// the master before giving up on the whole task.
const ReplyTimeout = 10 * time.Minute

// Transport is the synchronous control channel to the master. Exactly one
// request may be outstanding; Exchange blocks until the reply arrives.
type Transport interface {
	Exchange(kind string, payload any) (json.RawMessage, error)
}

// Channel implements Transport over a pair of byte streams, normally the
// worker process's standard output (requests) and standard input (replies).
type Channel struct {
	out     io.Writer
	in      *bufio.Reader
	timeout time.Duration
}

func NewChannel(out io.Writer, in io.Reader) *Channel {
	return &Channel{out: out, in: bufio.NewReader(in), timeout: ReplyTimeout}
}

func NewChannelWithTimeout(out io.Writer, in io.Reader, timeout time.Duration) *Channel {
	return &Channel{out: out, in: bufio.NewReader(in), timeout: timeout}
}

func (channel *Channel) Exchange(kind string, payload any) (json.RawMessage, error) {
	if err := writeFrame(channel.out, kind, payload); err != nil {
		return nil, fmt.Errorf("could not send %v to master: %w", kind, err)
	}
	if flusher, ok := channel.out.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return nil, fmt.Errorf("could not flush %v to master: %w", kind, err)
		}
	}

	reply, err := channel.readReply()
	if err != nil {
		return nil, fmt.Errorf("no reply to %v: %w", kind, err)
	}

	if reply.Kind == KindErrReply {
		var detail string
		if err := json.Unmarshal(reply.Body, &detail); err != nil {
			detail = string(reply.Body)
		}
		return nil, &fault.ProtocolError{Payload: detail}
	}

	return reply.Body, nil
}

// readReply reads one framed reply, bounded by the channel timeout. The
// read runs on its own goroutine; a timeout abandons it and fails the
// task.
func (channel *Channel) readReply() (frame, error) {
	type result struct {
		reply frame
		err   error
	}

	results := make(chan result, 1)
	go func() {
		reply, err := readFrame(channel.in)
		results <- result{reply: reply, err: err}
	}()

	timer := time.NewTimer(channel.timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		return r.reply, r.err
	case <-timer.C:
		return frame{}, fmt.Errorf("timed out after %v waiting for master", channel.timeout)
	}
}

// MessageWriter forwards everything written to it to the master as MSG
// messages, one per line, so stdlib log output travels in-band instead of
// corrupting the protocol stream.
type MessageWriter struct {
	transport Transport
}

func NewMessageWriter(transport Transport) *MessageWriter {
	return &MessageWriter{transport: transport}
}

func (writer *MessageWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		text := string(bytes.TrimSpace(line))
		if text == "" {
			continue
		}
		if _, err := writer.transport.Exchange(KindMessage, text); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
