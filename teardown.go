package http2

import "github.com/valyala/fasthttp"

// resetStream implements component F's reset/teardown path: it sends
// (or, for a remotely-initiated reset, just records) an RST_STREAM
// with code, fails the stream's bound request if one exists, and tears
// the stream down.
//
// local=true means this connection is the one deciding to reset the
// stream (a protocol violation it detected, a refused push, or an
// application-initiated cancel); in that case an RST_STREAM frame is
// written to the peer, unless the stream never got far enough to be
// assigned an id, in which case there is nothing for the peer to hear
// about. local=false is used when the peer already told us via its own
// RST_STREAM and no frame needs to go back out.
//
// Calling resetStream on an already-closed stream is a no-op: it must
// not re-send a frame, re-signal rr.ch (already fired once, and the
// channel only has room for one error), or unbind a request that was
// already unbound.
func (c *Conn) resetStream(strm *Stream, code ErrorCode, local bool) {
	if strm.IsClosed() {
		return
	}

	ev := eventRecvRstStream
	if local {
		ev = eventSendRstStream

		if strm.ID() != UnassignedStreamID {
			fr := AcquireFrameHeader()
			fr.SetStream(strm.ID())

			rst := AcquireFrame(FrameResetStream).(*RstStream)
			rst.SetCode(code)
			fr.SetBody(rst)

			c.send(fr)
		}
	}

	strm.transition(ev)

	if rr := strm.Request(); rr != nil {
		rr.ch <- NewError(code, "")
		strm.SetRequest(nil)
	}

	c.closeStream(strm)
}

// cancelStream implements the application-facing half of component F's
// cancellation path: it locates the stream bound to req, wherever it
// currently sits (queued but never written, or already on the wire),
// and resets it locally with CancelError. A req with no matching
// stream — never submitted, or already finished — is a no-op.
func (c *Conn) cancelStream(req *fasthttp.Request) {
	for i, strm := range c.unwrittenReqs {
		if rr := strm.Request(); rr != nil && rr.req == req {
			c.unwrittenReqs = append(c.unwrittenReqs[:i], c.unwrittenReqs[i+1:]...)
			c.resetStream(strm, CancelError, true)
			return
		}
	}

	for _, strm := range c.streams.All() {
		if rr := strm.Request(); rr != nil && rr.req == req {
			c.resetStream(strm, CancelError, true)
			return
		}
	}
}

// closeStream removes strm from the stream table and releases the
// resources it was holding. It is idempotent, and calling it on a
// stream that was never inserted in the table is safe: the table and
// written-queue removals simply find nothing to remove.
func (c *Conn) closeStream(strm *Stream) {
	strm.SetStatus(StreamClosed)
	c.streams.Del(strm.ID())

	for i, s := range c.writtenReqs {
		if s == strm {
			c.writtenReqs = append(c.writtenReqs[:i], c.writtenReqs[i+1:]...)
			break
		}
	}

	if p := strm.pipeline; p != nil && p.body != nil {
		p.release()
	}
}
