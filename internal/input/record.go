package input

import "strings"

// Record is one key/value pair read from a task input or written to a task
// output. Records travel as JSON lines; the key carries the ordering used
// by merged inputs.
type Record struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Compare orders two records. Negative means a before b.
type Compare func(a, b Record) int

// ByKey is the conventional ordering: the natural ordering of record keys.
func ByKey(a, b Record) int {
	return strings.Compare(a.Key, b.Key)
}

// Iterator is a forward-only, non-restartable sequence of records.
// Next returns io.EOF once the sequence ends.
type Iterator interface {
	Next() (Record, error)
}
