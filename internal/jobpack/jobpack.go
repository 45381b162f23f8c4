package jobpack

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// A job pack is the bundle the master hands to a worker: a fixed-size
// header with section offsets, the JSON job description, the JSON job
// environment, the packaged job home archive, and the opaque job data the
// worker bootstraps itself from. Workers only unpack; building packs is
// the submitting client's concern.
const (
	Magic      = 0xd5c0
	Version    = 1
	HeaderSize = 128
)

type JobPack struct {
	JobDict json.RawMessage
	JobEnvs map[string]string
	JobHome []byte
	JobData []byte
}

func UnpackFile(path string) (*JobPack, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open job pack: %w", err)
	}
	defer file.Close()
	return Unpack(file)
}

func Unpack(r io.Reader) (*JobPack, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read job pack: %w", err)
	}
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("job pack too short: %v bytes", len(raw))
	}

	if magic := binary.BigEndian.Uint16(raw[0:2]); magic != Magic {
		return nil, fmt.Errorf("bad job pack magic %#x", magic)
	}
	if version := binary.BigEndian.Uint16(raw[2:4]); version != Version {
		return nil, fmt.Errorf("unsupported job pack version %v", version)
	}

	offsets := [4]int{}
	for i := range offsets {
		offsets[i] = int(binary.BigEndian.Uint32(raw[4+4*i : 8+4*i]))
	}
	previous := HeaderSize
	for _, offset := range offsets {
		if offset < previous || offset > len(raw) {
			return nil, fmt.Errorf("job pack section offsets out of order: %v", offsets)
		}
		previous = offset
	}

	pack := &JobPack{
		JobDict: json.RawMessage(raw[offsets[0]:offsets[1]]),
		JobHome: raw[offsets[2]:offsets[3]],
		JobData: raw[offsets[3]:],
	}
	if err := json.Unmarshal(raw[offsets[1]:offsets[2]], &pack.JobEnvs); err != nil {
		return nil, fmt.Errorf("corrupt job environment section: %w", err)
	}
	return pack, nil
}
