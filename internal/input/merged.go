package input

import (
	"io"
	"time"
)

// MergedInput is an order-preserving fan-in: assuming every stream is
// individually non-decreasing under the comparator, it emits one globally
// non-decreasing sequence without materializing any input. One head record
// is buffered per live stream; empty heads are refilled opportunistically,
// sleeping the shared delay between passes while any needed head is still
// busy.
type MergedInput struct {
	slots []mergeSlot
	cmp   Compare
	delay time.Duration
}

type mergeSlot struct {
	stream *Stream
	head   Record
	filled bool
	live   bool
}

func NewMergedInput(streams []*Stream, cmp Compare, delay time.Duration) *MergedInput {
	if cmp == nil {
		cmp = ByKey
	}
	if delay <= 0 {
		delay = PollDelay
	}

	slots := make([]mergeSlot, len(streams))
	for i, stream := range streams {
		slots[i] = mergeSlot{stream: stream, live: true}
	}
	return &MergedInput{slots: slots, cmp: cmp, delay: delay}
}

func (merged *MergedInput) Next() (Record, error) {
	for {
		busy, live, err := merged.refill()
		if err != nil {
			return Record{}, err
		}
		if live == 0 {
			return Record{}, io.EOF
		}
		if busy > 0 {
			time.Sleep(merged.delay)
			continue
		}
		return merged.takeSmallest(), nil
	}
}

// refill attempts to buffer a head for every live stream that has none.
// Busy is transient; a cleanly ended stream is removed for good.
func (merged *MergedInput) refill() (busy, live int, err error) {
	for i := range merged.slots {
		slot := &merged.slots[i]
		if !slot.live {
			continue
		}
		if slot.filled {
			live++
			continue
		}

		record, step, err := slot.stream.TryNext()
		if err != nil {
			return 0, 0, err
		}

		switch step {
		case StepReady:
			slot.head = record
			slot.filled = true
			live++
		case StepBusy:
			busy++
			live++
		case StepDone:
			slot.live = false
		}
	}
	return busy, live, nil
}

func (merged *MergedInput) takeSmallest() Record {
	smallest := -1
	for i := range merged.slots {
		slot := &merged.slots[i]
		if !slot.live || !slot.filled {
			continue
		}
		if smallest < 0 || merged.cmp(slot.head, merged.slots[smallest].head) < 0 {
			smallest = i
		}
	}

	slot := &merged.slots[smallest]
	slot.filled = false
	return slot.head
}
