package main

import (
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kunthar/disco-playground/internal/input"
	"github.com/kunthar/disco-playground/internal/pkg/protocol"
	"github.com/kunthar/disco-playground/internal/worker"
)

func main() {
	pollDelay := flag.Duration("poll-delay", input.PollDelay, "pause between polls of busy inputs")
	replyTimeout := flag.Duration("reply-timeout", protocol.ReplyTimeout, "how long to wait for a master reply")
	workRoot := flag.String("work-root", ".", "root directory for task working directories")
	flag.Parse()

	// Standard output carries the control protocol, so log output is
	// forwarded to the master as MSG messages instead.
	channel := protocol.NewChannelWithTimeout(os.Stdout, os.Stdin, *replyTimeout)
	log.SetFlags(0)
	log.SetOutput(protocol.NewMessageWriter(channel))

	config := worker.Default()
	config.PollDelay = *pollDelay
	config.WorkRoot = *workRoot

	driver := worker.NewDriver(channel, worker.Procedures{Map: mapWords, Reduce: countWords}, config)
	if err := driver.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mapWords splits input values into words, partitioned by word hash.
func mapWords(ctx *worker.TaskContext) error {
	records, err := ctx.Input(worker.Serial)
	if err != nil {
		return err
	}

	for {
		record, err := records.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, word := range strings.Fields(record.Value) {
			output, err := ctx.Output(partitionFor(word, ctx.Partitions))
			if err != nil {
				return err
			}
			if err := output.Append(input.Record{Key: word, Value: "1"}); err != nil {
				return err
			}
		}
	}
}

// countWords sums the counts of each word over the merged, sorted inputs.
func countWords(ctx *worker.TaskContext) error {
	records, err := ctx.Input(worker.Merged)
	if err != nil {
		return err
	}

	output, err := ctx.Output("")
	if err != nil {
		return err
	}

	current, count, any := "", 0, false
	for {
		record, err := records.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if any && record.Key != current {
			if err := emitCount(output, current, count); err != nil {
				return err
			}
			count = 0
		}
		current, any = record.Key, true

		n, err := strconv.Atoi(record.Value)
		if err != nil {
			n = 1
		}
		count += n
	}

	if any {
		return emitCount(output, current, count)
	}
	return nil
}

func emitCount(output *worker.Output, word string, count int) error {
	return output.Append(input.Record{Key: word, Value: strconv.Itoa(count)})
}

func partitionFor(key string, partitions int) string {
	if partitions <= 1 {
		return "0"
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return strconv.Itoa(int(h.Sum32()&0x7fffffff) % partitions)
}
