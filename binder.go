package http2

import (
	"bytes"
	"sync/atomic"
)

// setupNextRequest binds strm to the request at the front of the
// connection's unwritten queue: it encodes the request's headers
// (pseudo-headers first, then regular fields, matching HPACK's
// preference for stable table ordering) and, if the request carries a
// body, follows with one or more DATA frames.
//
// This is the "outgoing request binder": the moment a Stream stops
// being just a reserved id and starts being a live HTTP/2 exchange.
func (c *Conn) setupNextRequest(strm *Stream) error {
	rr := strm.Request()
	req := rr.req

	if err := strm.transition(eventSendHeaders); err != nil {
		return err
	}

	body := req.Body()
	hasBody := len(body) != 0

	fr := AcquireFrameHeader()
	fr.SetStream(strm.ID())

	h := AcquireFrame(FrameHeaders).(*Headers)
	fr.SetBody(h)

	hf := AcquireHeaderField()
	defer ReleaseHeaderField(hf)

	hf.SetBytes(StringAuthority, req.URI().Host())
	h.AppendHeaderField(c.enc, hf, true)

	hf.SetBytes(StringMethod, req.Header.Method())
	h.AppendHeaderField(c.enc, hf, true)

	hf.SetBytes(StringPath, req.URI().RequestURI())
	h.AppendHeaderField(c.enc, hf, true)

	hf.SetBytes(StringScheme, req.URI().Scheme())
	h.AppendHeaderField(c.enc, hf, true)

	hf.SetBytes(StringUserAgent, req.Header.UserAgent())
	h.AppendHeaderField(c.enc, hf, true)

	if c.opts.EnableCompression {
		hf.SetBytes(StringAcceptEnc, []byte("gzip, deflate, br"))
		h.AppendHeaderField(c.enc, hf, true)
	}

	req.Header.VisitAll(func(k, v []byte) {
		if bytes.EqualFold(k, StringUserAgent) || bytes.EqualFold(k, StringAcceptEnc) {
			return
		}

		hf.SetBytes(ToLower(append([]byte(nil), k...)), v)
		h.AppendHeaderField(c.enc, hf, false)
	})

	h.SetEndHeaders(true)
	h.SetEndStream(!hasBody)

	c.send(fr)

	if !hasBody {
		if err := strm.transition(eventSendEndStream); err != nil {
			return err
		}
		return nil
	}

	return c.writeBody(strm, body)
}

// writeBody cuts req into DATA frames no larger than the smaller of the
// peer's negotiated max frame size and the stream/connection send
// windows, decrementing both windows as it goes. This closes the
// "body/DATA framing" extension point: a request with a body is not
// just a single oversized frame, it respects flow control like any
// other sender.
func (c *Conn) writeBody(strm *Stream, body []byte) error {
	maxFrame := int(c.serverS.MaxFrameSize())
	if maxFrame <= 0 {
		maxFrame = int(defaultMaxFrameSize)
	}

	for len(body) > 0 {
		chunk := maxFrame
		if winLimit := int(minInt32(strm.SendWindow(), atomic.LoadInt32(&c.serverWindow))); winLimit < chunk {
			chunk = winLimit
		}
		if chunk <= 0 {
			// No credit left. The remainder is not parked until a
			// WINDOW_UPDATE arrives: the write fails with a flow
			// control error instead of blocking the run loop. The
			// peer's default initial window is 65,535 bytes, both per
			// stream and per connection.
			return &Http2Error{Code: FlowControlError, StreamID: strm.ID(), Reason: "send window exhausted while writing request body"}
		}
		if chunk > len(body) {
			chunk = len(body)
		}

		fr := AcquireFrameHeader()
		fr.SetStream(strm.ID())

		data := AcquireFrame(FrameData).(*Data)
		data.SetData(body[:chunk])
		data.SetEndStream(chunk == len(body))
		fr.SetBody(data)

		c.send(fr)

		strm.ConsumeSendWindow(int32(chunk))
		atomic.AddInt32(&c.serverWindow, -int32(chunk))

		body = body[chunk:]
	}

	return strm.transition(eventSendEndStream)
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
