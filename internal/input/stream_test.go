package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunthar/disco-playground/internal/pkg/fault"
	"github.com/kunthar/disco-playground/internal/pkg/protocol"
)

func drainStream(t *testing.T, stream *Stream) []Record {
	t.Helper()
	var records []Record
	for {
		record, step, err := stream.TryNext()
		assert.NoError(t, err)
		assert.NotEqual(t, StepBusy, step)
		if step == StepDone {
			return records
		}
		records = append(records, record)
	}
}

func TestThat_ItShouldDeliverAllRecordsInOrder_WhenTheFirstReplicaSucceeds(t *testing.T) {
	opener := newScriptedOpener()
	opener.serve("file://a", keyed("1", "2", "3"))
	stream := NewLiteralStream([]string{"file://a", "file://b"}, opener.open)

	records := drainStream(t, stream)

	assert.Equal(t, []string{"1", "2", "3"}, keysOf(records))
	assert.Equal(t, []string{"file://a"}, opener.opened)
	assert.Equal(t, 3, stream.Delivered())
}

func TestThat_ItShouldDeliverEveryRecordExactlyOnce_WhenReplicasFailMidStream(t *testing.T) {
	records := keyed("1", "2", "3", "4", "5", "6")
	opener := newScriptedOpener()
	opener.serveFailingAt("file://a", records, 2)
	opener.serveFailingAt("file://b", records, 4)
	opener.serve("file://c", records)
	stream := NewLiteralStream([]string{"file://a", "file://b", "file://c"}, opener.open)

	delivered := drainStream(t, stream)

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, keysOf(delivered))
	assert.Equal(t, []string{"file://a", "file://b", "file://c"}, opener.opened)
}

func TestThat_ItShouldSkipUnopenableReplicas(t *testing.T) {
	opener := newScriptedOpener()
	opener.serveBroken("file://a")
	opener.serve("file://b", keyed("1", "2"))
	stream := NewLiteralStream([]string{"file://a", "file://b"}, opener.open)

	delivered := drainStream(t, stream)

	assert.Equal(t, []string{"1", "2"}, keysOf(delivered))
}

func TestThat_ItShouldEndCleanly_WhenASwappedReplicaEndsAtTheWatermark(t *testing.T) {
	opener := newScriptedOpener()
	opener.serveFailingAt("file://a", keyed("1", "2"), 2)
	opener.serve("file://b", keyed("1", "2"))
	stream := NewLiteralStream([]string{"file://a", "file://b"}, opener.open)

	delivered := drainStream(t, stream)

	assert.Equal(t, []string{"1", "2"}, keysOf(delivered))
}

func TestThat_ItShouldFailWithDataError_WhenEveryReplicaIsExhausted(t *testing.T) {
	opener := newScriptedOpener()
	opener.serveBroken("file://a")
	opener.serveFailingAt("file://b", keyed("1", "2"), 1)
	stream := NewLiteralStream([]string{"file://a", "file://b"}, opener.open)

	first, step, err := stream.TryNext()
	assert.NoError(t, err)
	assert.Equal(t, StepReady, step)
	assert.Equal(t, "1", first.Key)

	_, step, err = stream.TryNext()
	assert.Equal(t, StepDone, step)
	assert.True(t, fault.IsData(err))
	assert.Contains(t, err.Error(), "exhausted all available replicas")

	// the failure is terminal
	_, step, err = stream.TryNext()
	assert.Equal(t, StepDone, step)
	assert.Error(t, err)
}

func TestThat_ItShouldReportExhaustionToTheMasterExactlyOnce(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput,
		inputReply(true, inputEntry("9", "ok", "file://a", "file://b")))
	mock.EnqueueReply(protocol.KindInput,
		inputReply(true, inputEntry("9", "ok", "file://a", "file://b")))
	resolver := NewResolver(mock)
	opener := newScriptedOpener()
	opener.serveBroken("file://a")
	opener.serveBroken("file://b")
	stream := NewStream(LogicalInput{ID: "9", resolver: resolver}, opener.open)

	_, step, err := stream.TryNext()

	assert.Equal(t, StepDone, step)
	assert.True(t, fault.IsData(err))
	assert.Len(t, mock.RequestsOfKind(protocol.KindDataErr), 1)

	_, _, err = stream.TryNext()
	assert.Error(t, err)
	assert.Len(t, mock.RequestsOfKind(protocol.KindDataErr), 1)
}

func TestThat_ItShouldReportBusy_WhenResolutionIsNotReadyYet(t *testing.T) {
	mock := protocol.NewMasterMock()
	mock.EnqueueReply(protocol.KindInput, inputReply(true, inputEntry("9", "busy")))
	mock.EnqueueReply(protocol.KindInput, inputReply(true, inputEntry("9", "ok", "file://a")))
	resolver := NewResolver(mock)
	opener := newScriptedOpener()
	opener.serve("file://a", keyed("1"))
	stream := NewStream(LogicalInput{ID: "9", resolver: resolver}, opener.open)

	_, step, err := stream.TryNext()
	assert.NoError(t, err)
	assert.Equal(t, StepBusy, step)

	record, step, err := stream.TryNext()
	assert.NoError(t, err)
	assert.Equal(t, StepReady, step)
	assert.Equal(t, "1", record.Key)
}
