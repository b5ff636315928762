package http2

import (
	"github.com/valyala/bytebufferpool"
)

// responsePipeline is the append-only byte aggregator a stream's
// response body is written into as DATA frames arrive. It has a single
// consumer (the *fasthttp.Response the request was bound to): there is
// no second reader draining it concurrently, so it needs no locking.
type responsePipeline struct {
	body *bytebufferpool.ByteBuffer

	// headerBlock accumulates a HEADERS/CONTINUATION sequence until
	// END_HEADERS is seen; it is not response body data.
	headerBlock []byte
}

// Write appends b to the aggregated body. It never returns an error;
// bytebufferpool grows its buffer as needed.
func (p *responsePipeline) Write(b []byte) (int, error) {
	return p.body.Write(b)
}

// Bytes returns the bytes aggregated so far.
func (p *responsePipeline) Bytes() []byte {
	return p.body.Bytes()
}

// EOF reports whether the pipeline will receive no further data: the
// stream has reached half-closed(remote) or is fully closed. Matches
// the original's rule that a response is only "done" once the stream
// itself says so, not merely because END_STREAM arrived on a DATA
// frame out of order.
func (p *responsePipeline) EOF(status StreamStatus) bool {
	return status == StreamHalfClosedRemote || status == StreamClosed
}

// release returns the underlying buffer to its pool. Called once the
// stream is torn down and its body has been copied into the bound
// *fasthttp.Response.
func (p *responsePipeline) release() {
	bytebufferpool.Put(p.body)
	p.body = nil
}
