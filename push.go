package http2

// handlePushPromise implements the push-promise subflow: reserve the
// promised child stream, decode its promised pseudo-headers through
// the connection's decoder (so the HPACK dynamic table stays in sync
// even though the promise is rejected), and reject it with
// RST_STREAM(REFUSED_STREAM) — this client never asked for server
// push, so the mandated default policy is to refuse every promise
// rather than silently accept resources it has no consumer for.
func (c *Conn) handlePushPromise(fr *FrameHeader) {
	pp, ok := fr.Body().(*PushPromise)
	if !ok {
		return
	}

	child := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
	child.SetID(pp.Promised())
	child.SetPromisedParent(fr.Stream())

	if err := child.transition(eventReserveChild); err != nil {
		return
	}

	// Decoding (and discarding) the promised header block keeps the
	// shared HPACK dynamic table state consistent with the peer's,
	// even though the child stream is about to be refused.
	if _, err := c.dec.DecodeFull(pp.Headers()); err != nil {
		debugLog.Printf("push promise %d: discarding malformed header block: %v", child.ID(), err)
	}

	c.streams.Insert(child)
	c.resetStream(child, RefusedStreamError, true)
}
