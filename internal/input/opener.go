package input

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
)

// RecordReader is a positioned stream of records from one physical
// location. Next returns io.EOF on a clean end of stream and a DataError
// when the underlying data is corrupt or unreachable.
type RecordReader interface {
	Next() (Record, error)
	Close() error
}

// Opener maps a replica URL to an open RecordReader. Failures to reach or
// parse the data must be DataErrors so the replica-swap path can tell them
// apart from programming errors.
type Opener func(url string) (RecordReader, error)

// Open dispatches on the URL scheme. Schemeless URLs are local paths.
func Open(url string) (RecordReader, error) {
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return openFile(url)
	}

	switch scheme {
	case "file":
		return openFile(rest)
	case "http", "https":
		return openHTTP(url)
	case "raw":
		return openRaw(rest)
	default:
		return nil, fmt.Errorf("unsupported input scheme %q in %v", scheme, url)
	}
}

func openFile(path string) (RecordReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fault.Dataf(path, "could not open input file: %v", err)
	}
	return &lineReader{url: path, closer: file, scanner: bufio.NewScanner(file)}, nil
}

func openHTTP(url string) (RecordReader, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fault.Dataf(url, "could not fetch input: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fault.Dataf(url, "input fetch returned status %v", resp.StatusCode)
	}
	return &lineReader{url: url, closer: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// openRaw treats the URL body itself as the data: a single record whose
// value is everything after the scheme.
func openRaw(body string) (RecordReader, error) {
	return &rawReader{body: body}, nil
}

// lineReader decodes one JSON record per line.
type lineReader struct {
	url     string
	closer  io.Closer
	scanner *bufio.Scanner
}

func (reader *lineReader) Next() (Record, error) {
	if !reader.scanner.Scan() {
		if err := reader.scanner.Err(); err != nil {
			return Record{}, fault.Dataf(reader.url, "read failed: %v", err)
		}
		return Record{}, io.EOF
	}

	var record Record
	if err := json.Unmarshal(reader.scanner.Bytes(), &record); err != nil {
		return Record{}, fault.Dataf(reader.url, "corrupt record: %v", err)
	}
	return record, nil
}

func (reader *lineReader) Close() error {
	return reader.closer.Close()
}

type rawReader struct {
	body string
	done bool
}

func (reader *rawReader) Next() (Record, error) {
	if reader.done {
		return Record{}, io.EOF
	}
	reader.done = true
	return Record{Value: reader.body}, nil
}

func (reader *rawReader) Close() error {
	return nil
}
