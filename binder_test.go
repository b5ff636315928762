package http2

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// newTestConn builds a Conn around one end of an in-memory pipe. Only
// setupNextRequest/writeBody are exercised directly here, so the other
// end of the pipe is left undrained: those paths push frames onto
// c.writer without ever touching the socket.
func newTestConn(t *testing.T) *Conn {
	t.Helper()
	client, _ := net.Pipe()
	t.Cleanup(func() { client.Close() })
	return newConn(client, ConnOpts{})
}

func TestSetupNextRequestWithoutBody(t *testing.T) {
	c := newTestConn(t)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod("GET")
	req.SetRequestURI("https://example.com/widgets")

	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(res)

	strm := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
	strm.SetID(1)
	strm.SetRequest(&reqRes{req: req, res: res, ch: make(chan error, 1)})

	require.NoError(t, c.setupNextRequest(strm))

	fr := <-c.writer
	defer ReleaseFrameHeader(fr)

	assert.Equal(t, FrameHeaders, fr.Type())
	h := fr.Body().(*Headers)
	assert.True(t, h.EndHeaders())
	assert.True(t, h.EndStream(), "a bodyless request's HEADERS frame must carry END_STREAM")

	assert.Equal(t, StreamHalfClosedLocal, strm.Status())
}

func TestSetupNextRequestWithBodySendsDataFrame(t *testing.T) {
	c := newTestConn(t)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod("POST")
	req.SetRequestURI("https://example.com/widgets")
	req.SetBody([]byte(`{"ok":true}`))

	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(res)

	strm := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
	strm.SetID(1)
	strm.SetRequest(&reqRes{req: req, res: res, ch: make(chan error, 1)})

	require.NoError(t, c.setupNextRequest(strm))

	headersFr := <-c.writer
	h := headersFr.Body().(*Headers)
	assert.False(t, h.EndStream(), "a request with a body must not end the stream on its HEADERS frame")
	ReleaseFrameHeader(headersFr)

	dataFr := <-c.writer
	defer ReleaseFrameHeader(dataFr)
	assert.Equal(t, FrameData, dataFr.Type())

	d := dataFr.Body().(*Data)
	assert.Equal(t, `{"ok":true}`, string(d.Data()))
	assert.True(t, d.EndStream())

	assert.Equal(t, StreamHalfClosedLocal, strm.Status())
}

func TestSetupNextRequestSplitsBodyAcrossMultipleDataFrames(t *testing.T) {
	c := newTestConn(t)
	c.serverS.SetMaxFrameSize(16)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.Header.SetMethod("POST")
	req.SetRequestURI("https://example.com/widgets")
	req.SetBody([]byte("0123456789abcdefghijklmnopqrstuvwxyz"))

	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(res)

	strm := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
	strm.SetID(1)
	strm.SetRequest(&reqRes{req: req, res: res, ch: make(chan error, 1)})

	require.NoError(t, c.setupNextRequest(strm))
	ReleaseFrameHeader(<-c.writer) // HEADERS

	var reassembled []byte
	for {
		fr := <-c.writer
		d := fr.Body().(*Data)
		reassembled = append(reassembled, d.Data()...)
		done := d.EndStream()
		ReleaseFrameHeader(fr)
		if done {
			break
		}
	}

	assert.Equal(t, "0123456789abcdefghijklmnopqrstuvwxyz", string(reassembled))
}

func TestWriteBodyFailsWhenSendWindowExhausted(t *testing.T) {
	c := newTestConn(t)

	strm := NewStream(0, int32(c.st.MaxWindowSize()))
	strm.SetID(1)
	strm.SetRequest(&reqRes{ch: make(chan error, 1)})
	require.NoError(t, strm.transition(eventSendHeaders))

	err := c.writeBody(strm, []byte("no credit for this"))
	require.Error(t, err)
	assert.Equal(t, FlowControlError, err.(*Http2Error).Code)
}
