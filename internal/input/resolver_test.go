package input

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
	"github.com/kunthar/disco-playground/internal/pkg/protocol"
)

func TestThat_ItShouldReturnReplicaUrls_WhenTheInputIsReady(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput,
		inputReply(true, inputEntry("7", "ok", "http://a/7", "http://b/7")))
	resolver := NewResolver(mock)

	urls, err := resolver.Resolve("7")

	assert.NoError(t, err)
	assert.Equal(t, []string{"http://a/7", "http://b/7"}, urls)
	assert.Equal(t, []string{protocol.KindInput}, mock.Kinds())
}

func TestThat_ItShouldSignalBusy_WhenTheInputIsNotReadyYet(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput, inputReply(true, inputEntry("7", "busy")))
	resolver := NewResolver(mock)

	urls, err := resolver.Resolve("7")

	assert.Nil(t, urls)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestThat_ItShouldFailWithDataError_WhenTheInputIsBroken(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput, inputReply(true, inputEntry("7", "failed")))
	resolver := NewResolver(mock)

	_, err := resolver.Resolve("7")

	assert.True(t, fault.IsData(err))
}

func TestThat_ItShouldAcceptNumericInputIds(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput, []any{true, []any{[]any{3, "ok", []any{[]any{0, "file://x"}}}}})
	resolver := NewResolver(mock)

	inputs, err := resolver.Enumerate().All()

	assert.NoError(t, err)
	assert.Len(t, inputs, 1)
	assert.Equal(t, "3", inputs[0].ID)
}

func TestThat_ItShouldEnumerateEachInputOnce_UntilTheMasterSignalsDone(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput,
		inputReply(false, inputEntry("0", "ok", "file://a"), inputEntry("1", "busy")))
	mock.EnqueueReply(protocol.KindInput,
		inputReply(true, inputEntry("1", "ok", "file://b"), inputEntry("2", "ok", "file://c")))
	resolver := NewResolver(mock)

	inputs, err := resolver.Enumerate().All()

	assert.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, idsOf(inputs))
	assert.Len(t, mock.RequestsOfKind(protocol.KindInput), 2)
}

func TestThat_ItShouldReportTriedReplicasAsUnavailable(t *testing.T) {
	mock := protocol.NewMasterMock()
	resolver := NewResolver(mock)

	err := resolver.Unavailable("7", []string{"http://a/7", "http://b/7"})

	assert.NoError(t, err)
	reports := mock.RequestsOfKind(protocol.KindDataErr)
	assert.Len(t, reports, 1)
	assert.Equal(t, json.RawMessage(`["7",["http://a/7","http://b/7"]]`), reports[0].Payload)
}

func idsOf(inputs []LogicalInput) []string {
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		ids[i] = in.ID
	}
	return ids
}
