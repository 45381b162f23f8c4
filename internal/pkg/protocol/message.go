package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Message kinds exchanged with the master. One text line per message:
// KIND SPACE BYTE-LENGTH SPACE JSON-BODY NEWLINE.
const (
	KindPid      = "PID" // process id report
	KindMessage  = "MSG" // log/progress message
	KindJobPack  = "JOB" // job pack request
	KindTask     = "TSK" // task parameters request
	KindInput    = "INP" // input status request
	KindDataErr  = "DAT" // data error report
	KindOutput   = "OUT" // output submission
	KindError    = "ERR" // generic error report
	KindEnd      = "END" // end of task
	KindErrReply = "ERROR"
)

type frame struct {
	Kind string
	Body json.RawMessage
}

func writeFrame(w io.Writer, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("could not encode %v payload: %w", kind, err)
	}

	_, err = fmt.Fprintf(w, "%s %d %s\n", kind, len(body), body)
	return err
}

func readFrame(reader *bufio.Reader) (frame, error) {
	kind, err := readToken(reader)
	if err != nil {
		return frame{}, fmt.Errorf("could not read reply kind: %w", err)
	}

	sizeToken, err := readToken(reader)
	if err != nil {
		return frame{}, fmt.Errorf("could not read reply length: %w", err)
	}
	size, err := strconv.Atoi(sizeToken)
	if err != nil || size < 0 {
		return frame{}, fmt.Errorf("malformed reply length %q", sizeToken)
	}

	body := make([]byte, size+1)
	if _, err := io.ReadFull(reader, body); err != nil {
		return frame{}, fmt.Errorf("could not read reply body: %w", err)
	}
	if body[size] != '\n' {
		return frame{}, fmt.Errorf("reply body of kind %v not terminated by newline", kind)
	}

	return frame{Kind: kind, Body: json.RawMessage(body[:size])}, nil
}

func readToken(reader *bufio.Reader) (string, error) {
	token, err := reader.ReadString(' ')
	if err != nil {
		return "", err
	}
	return token[:len(token)-1], nil
}
