package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStreamStartsInInit(t *testing.T) {
	s := NewStream(65535, 65535)

	assert.Equal(t, StreamInit, s.Status())
	assert.Equal(t, UnassignedStreamID, s.ID())
	assert.Equal(t, int32(65535), s.SendWindow())
	assert.Equal(t, int32(65535), s.RecvWindow())
}

func TestSetIDMovesInitToIdle(t *testing.T) {
	s := NewStream(0, 0)
	s.SetID(1)

	assert.Equal(t, uint32(1), s.ID())
	assert.Equal(t, StreamIdle, s.Status())

	// A second SetID (e.g. re-homing onto a different id) must not
	// force the status back to idle once the stream has moved on.
	s.status = StreamOpen
	s.SetID(3)
	assert.Equal(t, StreamOpen, s.Status())
}

func TestStreamWindowArithmetic(t *testing.T) {
	s := NewStream(100, 100)

	s.ConsumeSendWindow(40)
	assert.Equal(t, int32(60), s.SendWindow())

	s.GrowSendWindow(10)
	assert.Equal(t, int32(70), s.SendWindow())

	s.ConsumeRecvWindow(30)
	assert.Equal(t, int32(70), s.RecvWindow())

	s.GrowRecvWindow(5)
	assert.Equal(t, int32(75), s.RecvWindow())
}

func TestStreamRequestBinding(t *testing.T) {
	s := NewStream(0, 0)
	assert.Nil(t, s.Request())

	rr := &reqRes{ch: make(chan error, 1)}
	s.SetRequest(rr)
	assert.Same(t, rr, s.Request())
}

func TestStreamPipelineLazilyAllocated(t *testing.T) {
	s := NewStream(0, 0)

	p1 := s.Pipeline()
	require.NotNil(t, p1)

	p2 := s.Pipeline()
	assert.Same(t, p1, p2, "Pipeline must memoize the aggregator instead of replacing it every call")
}

// TestClientStreamLifecycle walks a stream through the path an ordinary
// request/response exchange with a body takes: idle -> open (headers
// sent) -> half-closed(local) (body's END_STREAM sent) -> closed
// (response's END_STREAM received).
func TestClientStreamLifecycle(t *testing.T) {
	s := NewStream(65535, 65535)
	s.SetID(1)

	require.NoError(t, s.transition(eventSendHeaders))
	assert.Equal(t, StreamOpen, s.Status())

	require.NoError(t, s.transition(eventSendEndStream))
	assert.Equal(t, StreamHalfClosedLocal, s.Status())

	require.NoError(t, s.transition(eventRecvEndStream))
	assert.Equal(t, StreamClosed, s.Status())
	assert.True(t, s.IsClosed())
}

// TestClientStreamHeadOnlyRequestHalfClosesImmediately covers a request
// with no body: the HEADERS frame itself carries END_STREAM, so the
// stream jumps straight from open to half-closed(local) without a
// separate DATA frame.
func TestClientStreamHeadOnlyRequestHalfClosesImmediately(t *testing.T) {
	s := NewStream(65535, 65535)
	s.SetID(1)

	require.NoError(t, s.transition(eventSendHeaders))
	require.NoError(t, s.transition(eventSendEndStream))

	assert.Equal(t, StreamHalfClosedLocal, s.Status())
}

func TestStreamRejectsEventsInWrongState(t *testing.T) {
	s := NewStream(0, 0)
	s.SetID(1)
	require.NoError(t, s.transition(eventSendHeaders)) // -> open

	err := s.transition(eventReserveChild)
	require.Error(t, err)

	h2e, ok := err.(*Http2Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, h2e.Code)
}

func TestStreamRstStreamAlwaysCloses(t *testing.T) {
	tests := []StreamStatus{
		StreamIdle, StreamReservedLocal, StreamReservedRemote,
		StreamOpen, StreamHalfClosedLocal, StreamHalfClosedRemote,
	}

	for _, start := range tests {
		s := NewStream(0, 0)
		s.status = start

		require.NoError(t, s.transition(eventRecvRstStream), "from %s", start)
		assert.Equal(t, StreamClosed, s.Status(), "from %s", start)
	}
}

func TestStreamClosedRejectsFramesExceptRst(t *testing.T) {
	s := NewStream(0, 0)
	s.status = StreamClosed

	err := s.transition(eventRecvHeaders)
	require.Error(t, err)
	assert.Equal(t, StreamClosedError, err.(*Http2Error).Code)

	assert.NoError(t, s.transition(eventRecvRstStream))
}

func TestReservedRemoteMovesToHalfClosedLocalOnHeaders(t *testing.T) {
	// A pushed stream starts reserved(remote); once its response headers
	// arrive, it moves to half-closed(local) since the client never
	// sends anything of its own on a push stream.
	s := NewStream(0, 0)
	s.status = StreamReservedRemote

	require.NoError(t, s.transition(eventRecvHeaders))
	assert.Equal(t, StreamHalfClosedLocal, s.Status())
}
