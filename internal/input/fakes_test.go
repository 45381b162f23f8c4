package input

import (
	"fmt"
	"io"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
)

// scriptedOpener serves per-URL record scripts. A script may fail at a
// given record index or refuse to open at all.
type scriptedOpener struct {
	scripts map[string]script
	opened  []string
}

type script struct {
	records    []Record
	failAt     int // fail with a DataError before delivering this index; -1 never
	openBroken bool
}

func newScriptedOpener() *scriptedOpener {
	return &scriptedOpener{scripts: map[string]script{}}
}

func (opener *scriptedOpener) serve(url string, records []Record) {
	opener.scripts[url] = script{records: records, failAt: -1}
}

func (opener *scriptedOpener) serveFailingAt(url string, records []Record, failAt int) {
	opener.scripts[url] = script{records: records, failAt: failAt}
}

func (opener *scriptedOpener) serveBroken(url string) {
	opener.scripts[url] = script{openBroken: true}
}

func (opener *scriptedOpener) open(url string) (RecordReader, error) {
	opener.opened = append(opener.opened, url)
	scripted, ok := opener.scripts[url]
	if !ok {
		return nil, fmt.Errorf("no script for %v", url)
	}
	if scripted.openBroken {
		return nil, fault.Dataf(url, "unreachable")
	}
	return &scriptedReader{url: url, script: scripted}, nil
}

type scriptedReader struct {
	url    string
	script script
	pos    int
}

func (reader *scriptedReader) Next() (Record, error) {
	if reader.script.failAt >= 0 && reader.pos == reader.script.failAt {
		return Record{}, fault.Dataf(reader.url, "read failed at record %v", reader.pos)
	}
	if reader.pos >= len(reader.script.records) {
		return Record{}, io.EOF
	}

	record := reader.script.records[reader.pos]
	reader.pos++
	return record, nil
}

func (reader *scriptedReader) Close() error {
	return nil
}

func keyed(keys ...string) []Record {
	records := make([]Record, len(keys))
	for i, key := range keys {
		records[i] = Record{Key: key, Value: "v" + key}
	}
	return records
}

func keysOf(records []Record) []string {
	keys := make([]string, len(records))
	for i, record := range records {
		keys[i] = record.Key
	}
	return keys
}

func drain(iterator Iterator) ([]Record, error) {
	var records []Record
	for {
		record, err := iterator.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// inputReply builds the master's reply to an input status request.
func inputReply(done bool, entries ...[]any) []any {
	list := make([]any, len(entries))
	for i, entry := range entries {
		list[i] = entry
	}
	return []any{done, list}
}

func inputEntry(id, status string, urls ...string) []any {
	replicas := make([]any, len(urls))
	for i, url := range urls {
		replicas[i] = []any{i, url}
	}
	return []any{id, status, replicas}
}
