package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestCloseStreamRemovesFromTableAndWrittenQueue(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(1)
	c.streams.Insert(strm)
	c.writtenReqs = append(c.writtenReqs, strm)

	c.closeStream(strm)

	assert.Nil(t, c.streams.Get(1))
	assert.Empty(t, c.writtenReqs)
	assert.Equal(t, StreamClosed, strm.Status())
}

func TestCloseStreamReleasesPipeline(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(1)
	strm.Pipeline().Write([]byte("partial body"))
	c.streams.Insert(strm)

	c.closeStream(strm)

	assert.Nil(t, strm.pipeline.body, "closing a stream must release its pipeline buffer back to the pool")
}

func TestCloseStreamIsIdempotentForUntrackedStream(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(5)

	assert.NotPanics(t, func() { c.closeStream(strm) })
}

func TestResetStreamLocalWritesRstAndFailsRequest(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(1)
	require.NoError(t, strm.transition(eventSendHeaders))
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{ch: ch})
	c.streams.Insert(strm)

	c.resetStream(strm, CancelError, true)

	fr := <-c.writer
	defer ReleaseFrameHeader(fr)
	assert.Equal(t, FrameResetStream, fr.Type())
	assert.Equal(t, CancelError, fr.Body().(*RstStream).Code())

	err := <-ch
	require.Error(t, err)
	assert.Equal(t, CancelError, err.(*Http2Error).Code)

	assert.Equal(t, StreamClosed, strm.Status())
	assert.Nil(t, c.streams.Get(1))
}

func TestResetStreamRemoteDoesNotWriteFrame(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(1)
	require.NoError(t, strm.transition(eventSendHeaders))
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{ch: ch})
	c.streams.Insert(strm)

	c.resetStream(strm, RefusedStreamError, false)

	select {
	case fr := <-c.writer:
		t.Fatalf("unexpected frame written for a remote reset: %v", fr.Type())
	default:
	}

	err := <-ch
	require.Error(t, err)
	assert.Equal(t, RefusedStreamError, err.(*Http2Error).Code)
}

func TestResetStreamOnUnassignedStreamEmitsNoFrame(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{ch: ch})

	c.resetStream(strm, CancelError, true)

	select {
	case fr := <-c.writer:
		t.Fatalf("unexpected frame written for a stream that was never assigned an id: %v", fr.Type())
	default:
	}

	err := <-ch
	require.Error(t, err)
	assert.Equal(t, CancelError, err.(*Http2Error).Code)

	assert.Equal(t, StreamClosed, strm.Status())
	assert.Nil(t, strm.Request(), "resetStream must unbind the request")
}

func TestResetStreamIsIdempotentOnClosedStream(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, 0)
	strm.SetID(1)
	require.NoError(t, strm.transition(eventSendHeaders))
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{ch: ch})
	c.streams.Insert(strm)

	c.resetStream(strm, CancelError, true)
	<-c.writer
	<-ch

	assert.NotPanics(t, func() { c.resetStream(strm, CancelError, true) })

	select {
	case fr := <-c.writer:
		t.Fatalf("second resetStream call must not write a frame: %v", fr.Type())
	default:
	}
	select {
	case err := <-ch:
		t.Fatalf("second resetStream call must not signal rr.ch again: %v", err)
	default:
	}
}

func TestCancelStreamResetsUnwrittenRequest(t *testing.T) {
	c := newTestConn(t)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	strm := NewStream(0, 0)
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{req: req, ch: ch})
	c.unwrittenReqs = append(c.unwrittenReqs, strm)

	c.cancelStream(req)

	select {
	case fr := <-c.writer:
		t.Fatalf("unexpected frame written for an unwritten canceled stream: %v", fr.Type())
	default:
	}

	err := <-ch
	require.Error(t, err)
	assert.Equal(t, CancelError, err.(*Http2Error).Code)
	assert.Empty(t, c.unwrittenReqs)
	assert.Equal(t, StreamClosed, strm.Status())
}

func TestCancelStreamResetsWrittenRequest(t *testing.T) {
	c := newTestConn(t)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	strm := NewStream(0, 0)
	strm.SetID(1)
	require.NoError(t, strm.transition(eventSendHeaders))
	ch := make(chan error, 1)
	strm.SetRequest(&reqRes{req: req, ch: ch})
	c.streams.Insert(strm)

	c.cancelStream(req)

	fr := <-c.writer
	defer ReleaseFrameHeader(fr)
	assert.Equal(t, FrameResetStream, fr.Type())
	assert.Equal(t, CancelError, fr.Body().(*RstStream).Code())

	err := <-ch
	require.Error(t, err)
	assert.Nil(t, c.streams.Get(1))
}

func TestCancelStreamIsNoopForUnknownRequest(t *testing.T) {
	c := newTestConn(t)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	assert.NotPanics(t, func() { c.cancelStream(req) })
}
