package http2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandlePushPromiseRejectsByDefault covers the mandated default
// policy: a PUSH_PROMISE is always answered with RST_STREAM
// (REFUSED_STREAM), regardless of what it promises, since this client
// never advertises server push support.
func TestHandlePushPromiseRejectsByDefault(t *testing.T) {
	c := newTestConn(t)

	parent := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
	parent.SetID(1)
	require.NoError(t, parent.transition(eventSendHeaders))
	c.streams.Insert(parent)

	hf := AcquireHeaderField()
	defer ReleaseHeaderField(hf)
	hf.SetBytes(StringMethod, []byte("GET"))
	headerBlock := c.enc.AppendHeader(nil, hf, true)

	pp := AcquireFrame(FramePushPromise).(*PushPromise)
	pp.SetPromised(2)
	pp.SetHeaders(headerBlock)
	pp.SetEndHeaders(true)

	fr := AcquireFrameHeader()
	fr.SetStream(1) // associated stream, not the promised one
	fr.SetBody(pp)

	c.handlePushPromise(fr)

	rstFr := <-c.writer
	defer ReleaseFrameHeader(rstFr)
	assert.Equal(t, FrameResetStream, rstFr.Type())
	rst := rstFr.Body().(*RstStream)
	assert.Equal(t, RefusedStreamError, rst.Code())

	assert.Equal(t, uint32(2), rstFr.Stream(), "the RST_STREAM must address the promised child, not the parent")
	assert.Nil(t, c.streams.Get(2), "the refused child stream must be closed and removed from the stream table")
}

// TestHandlePushPromiseMalformedHeadersStillGetsRefused verifies that a
// promise whose header block fails to decode is still refused rather
// than silently dropped, keeping the HPACK decoder state aside: the
// handler must not panic or leave the child stream dangling.
func TestHandlePushPromiseMalformedHeadersStillGetsRefused(t *testing.T) {
	c := newTestConn(t)

	pp := AcquireFrame(FramePushPromise).(*PushPromise)
	pp.SetPromised(2)
	pp.SetHeaders([]byte{0xff, 0xff, 0xff}) // not valid HPACK
	pp.SetEndHeaders(true)

	fr := AcquireFrameHeader()
	fr.SetStream(1)
	fr.SetBody(pp)

	assert.NotPanics(t, func() { c.handlePushPromise(fr) })

	rstFr := <-c.writer
	defer ReleaseFrameHeader(rstFr)
	assert.Equal(t, FrameResetStream, rstFr.Type())
}
