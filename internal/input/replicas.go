package input

import (
	"errors"
	"sort"
)

// errNoReplicas means every known replica of an input has been tried.
var errNoReplicas = errors.New("no untried replicas remain")

// ReplicaSet is the working state for one logical input while it is being
// consumed: the candidate URLs from the last resolution and the set
// already tried. Tried URLs are never revisited within the task.
type ReplicaSet struct {
	input      *LogicalInput
	candidates []string
	tried      map[string]bool
	reported   bool
}

func newReplicaSet(input LogicalInput) *ReplicaSet {
	return &ReplicaSet{input: &input, tried: map[string]bool{}}
}

// newLiteralReplicaSet works over a fixed URL list with no master
// resolution and no exhaustion report.
func newLiteralReplicaSet(urls []string) *ReplicaSet {
	return &ReplicaSet{candidates: urls, tried: map[string]bool{}}
}

// Next hands out an untried replica URL and marks it tried. When the
// cached candidates are exhausted it resolves a fresh set; when nothing
// untried remains anywhere it reports the input unavailable to the master
// (exactly once) and returns errNoReplicas. A busy resolution returns
// ErrBusy.
func (set *ReplicaSet) Next() (string, error) {
	if url, ok := set.untried(); ok {
		return url, nil
	}

	if set.input != nil && !set.reported {
		urls, err := set.input.resolver.Resolve(set.input.ID)
		if err != nil {
			return "", err
		}
		set.candidates = urls
		if url, ok := set.untried(); ok {
			return url, nil
		}

		set.reported = true
		if err := set.input.resolver.Unavailable(set.input.ID, set.Tried()); err != nil {
			return "", err
		}
	}
	return "", errNoReplicas
}

func (set *ReplicaSet) untried() (string, bool) {
	for _, url := range set.candidates {
		if !set.tried[url] {
			set.tried[url] = true
			return url, true
		}
	}
	return "", false
}

// Tried lists the URLs already attempted, in stable order.
func (set *ReplicaSet) Tried() []string {
	tried := make([]string, 0, len(set.tried))
	for url := range set.tried {
		tried = append(tried, url)
	}
	sort.Strings(tried)
	return tried
}
