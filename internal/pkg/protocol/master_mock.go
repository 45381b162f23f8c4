package protocol

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
)

// MasterMock is a Transport standing in for the master in tests. Replies
// are enqueued per request kind; kinds with no enqueued reply are answered
// with null, the master's plain acknowledgement.
type MasterMock struct {
	Requests []Request
	replies  map[string][]mockReply
}

type Request struct {
	Kind    string
	Payload json.RawMessage
}

type mockReply struct {
	kind string
	body json.RawMessage
}

func NewMasterMock() *MasterMock {
	return &MasterMock{replies: map[string][]mockReply{}}
}

func (mock *MasterMock) EnqueueReply(kind string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Panicf("unencodable mock reply for %v: %v", kind, err)
	}
	mock.replies[kind] = append(mock.replies[kind], mockReply{kind: kind, body: body})
}

// EnqueueErrorReply makes the next request of this kind fail the way an
// ERROR frame from the master would.
func (mock *MasterMock) EnqueueErrorReply(kind string, detail string) {
	body, _ := json.Marshal(detail)
	mock.replies[kind] = append(mock.replies[kind], mockReply{kind: KindErrReply, body: body})
}

func (mock *MasterMock) Exchange(kind string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unencodable %v payload: %w", kind, err)
	}
	mock.Requests = append(mock.Requests, Request{Kind: kind, Payload: body})

	queue := mock.replies[kind]
	if len(queue) == 0 {
		return json.RawMessage("null"), nil
	}
	reply := queue[0]
	mock.replies[kind] = queue[1:]

	if reply.kind == KindErrReply {
		var detail string
		json.Unmarshal(reply.body, &detail)
		return nil, &fault.ProtocolError{Payload: detail}
	}
	return reply.body, nil
}

// RequestsOfKind filters the recorded requests.
func (mock *MasterMock) RequestsOfKind(kind string) []Request {
	var requests []Request
	for _, request := range mock.Requests {
		if request.Kind == kind {
			requests = append(requests, request)
		}
	}
	return requests
}

// Kinds lists the recorded request kinds in order.
func (mock *MasterMock) Kinds() []string {
	kinds := make([]string, len(mock.Requests))
	for i, request := range mock.Requests {
		kinds[i] = request.Kind
	}
	return kinds
}
