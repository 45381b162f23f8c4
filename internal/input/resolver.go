package input

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
	"github.com/kunthar/disco-playground/internal/pkg/protocol"
)

// ErrBusy signals that a logical input is not ready yet and the caller
// should back off and retry. It is a retry condition, not a failure.
var ErrBusy = errors.New("input not ready yet")

const (
	statusBusy   = "busy"
	statusFailed = "failed"
)

// Resolver answers which physical replicas currently hold a logical input,
// by asking the master over the control channel.
type Resolver struct {
	transport protocol.Transport
}

func NewResolver(transport protocol.Transport) *Resolver {
	return &Resolver{transport: transport}
}

// LogicalInput names one unit of data assigned to the task. The replica
// set behind it may change between resolutions.
type LogicalInput struct {
	ID       string
	resolver *Resolver
}

// Resolve returns the replica URLs currently known for id. A busy input
// returns ErrBusy; a permanently failed input returns a DataError.
func (resolver *Resolver) Resolve(id string) ([]string, error) {
	body, err := resolver.transport.Exchange(protocol.KindInput, []any{"include", []string{id}})
	if err != nil {
		return nil, err
	}

	_, statuses, err := decodeInputReply(body)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("master returned no status for input %v", id)
	}

	status := statuses[0]
	switch status.Status {
	case statusBusy:
		return nil, ErrBusy
	case statusFailed:
		return nil, fault.Dataf("", "input %v is broken", id)
	}
	return status.URLs, nil
}

// Unavailable tells the master that every known replica of id has failed
// locally. It does not itself fail the task.
func (resolver *Resolver) Unavailable(id string, tried []string) error {
	_, err := resolver.transport.Exchange(protocol.KindDataErr, []any{id, tried})
	return err
}

// Enumeration is a lazy sequence of the logical inputs assigned to the
// task. It is restartable only by creating a new one.
type Enumeration struct {
	resolver *Resolver
	seen     map[string]bool
	pending  []LogicalInput
	done     bool
}

func (resolver *Resolver) Enumerate() *Enumeration {
	return &Enumeration{resolver: resolver, seen: map[string]bool{}}
}

// Next yields the next distinct logical input, or ok=false once the master
// signals the enumeration is complete.
func (enum *Enumeration) Next() (LogicalInput, bool, error) {
	for len(enum.pending) == 0 && !enum.done {
		body, err := enum.resolver.transport.Exchange(protocol.KindInput, "")
		if err != nil {
			return LogicalInput{}, false, err
		}

		done, statuses, err := decodeInputReply(body)
		if err != nil {
			return LogicalInput{}, false, err
		}
		enum.done = done

		for _, status := range statuses {
			if enum.seen[status.ID] {
				continue
			}
			enum.seen[status.ID] = true
			enum.pending = append(enum.pending, LogicalInput{ID: status.ID, resolver: enum.resolver})
		}
	}

	if len(enum.pending) == 0 {
		return LogicalInput{}, false, nil
	}

	next := enum.pending[0]
	enum.pending = enum.pending[1:]
	return next, true, nil
}

// All drains the enumeration.
func (enum *Enumeration) All() ([]LogicalInput, error) {
	var inputs []LogicalInput
	for {
		next, ok, err := enum.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return inputs, nil
		}
		inputs = append(inputs, next)
	}
}

type inputStatus struct {
	ID     string
	Status string
	URLs   []string
}

// decodeInputReply unpacks the master's [done, [[id, status, [[rid, url],
// ...]], ...]] reply. Input ids are opaque: both JSON numbers and strings
// are accepted.
func decodeInputReply(body json.RawMessage) (bool, []inputStatus, error) {
	var reply []json.RawMessage
	if err := json.Unmarshal(body, &reply); err != nil || len(reply) != 2 {
		return false, nil, fmt.Errorf("malformed input reply %q", body)
	}

	var done bool
	if err := json.Unmarshal(reply[0], &done); err != nil {
		return false, nil, fmt.Errorf("malformed input reply flag %q", reply[0])
	}

	var entries [][]json.RawMessage
	if err := json.Unmarshal(reply[1], &entries); err != nil {
		return false, nil, fmt.Errorf("malformed input list %q", reply[1])
	}

	statuses := make([]inputStatus, 0, len(entries))
	for _, entry := range entries {
		if len(entry) != 3 {
			return false, nil, fmt.Errorf("malformed input entry %q", entry)
		}

		id, err := decodeInputID(entry[0])
		if err != nil {
			return false, nil, err
		}

		var status string
		if err := json.Unmarshal(entry[1], &status); err != nil {
			return false, nil, fmt.Errorf("malformed input status %q", entry[1])
		}

		var replicas [][2]json.RawMessage
		if err := json.Unmarshal(entry[2], &replicas); err != nil {
			return false, nil, fmt.Errorf("malformed replica list %q", entry[2])
		}
		urls := make([]string, 0, len(replicas))
		for _, replica := range replicas {
			var url string
			if err := json.Unmarshal(replica[1], &url); err != nil {
				return false, nil, fmt.Errorf("malformed replica url %q", replica[1])
			}
			urls = append(urls, url)
		}

		statuses = append(statuses, inputStatus{ID: id, Status: status, URLs: urls})
	}
	return done, statuses, nil
}

func decodeInputID(raw json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String(), nil
	}
	return "", fmt.Errorf("malformed input id %q", raw)
}
